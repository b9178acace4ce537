// Package paypal performs the payment operations the assistant can request
// against the PayPal REST API.
package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/worldofchami/paychat/pkg/models"
	"github.com/worldofchami/paychat/pkg/utils"
)

const (
	currencyUSD = "USD"
	// reportTimeLayout is UTC truncated to whole seconds, as the reporting API expects.
	reportTimeLayout = "2006-01-02T15:04:05Z"
	reportPageSize   = 10
	maxResponseBytes = 1 << 20
)

// Config carries the credentials and fixed order parameters.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	VaultedToken string
	ReturnURL    string
	CancelURL    string
	Timeout      time.Duration
}

// Client calls the PayPal Orders, Payments and Reporting APIs. Every call is
// issued once; failures are returned to the caller and never retried here.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	vaultedToken string
	returnURL    string
	cancelURL    string

	catalog *models.Catalog
	http    *http.Client
	clock   func() time.Time
	logger  *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithClock overrides the time source used for reporting date ranges.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.clock = now
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient builds a Client. The catalog is only used to label reporting
// entries with product names.
func NewClient(cfg Config, catalog *models.Catalog, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("paypal: base URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("paypal: invalid base URL %q: %w", base, err)
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("paypal: client id and secret are required")
	}

	c := &Client{
		baseURL:      base,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		vaultedToken: cfg.VaultedToken,
		returnURL:    cfg.ReturnURL,
		cancelURL:    cfg.CancelURL,
		catalog:      catalog,
		http:         utils.NewHTTPClient(cfg.Timeout),
		clock:        time.Now,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// CreateInvoiceOrder creates a CAPTURE-intent order whose approval link the
// buyer follows to pay later. No money moves here. This call authenticates
// with the app credentials directly rather than a bearer token.
func (c *Client) CreateInvoiceOrder(ctx context.Context, product models.Product) (*models.Order, error) {
	amount := product.Amount()
	body := models.OrderRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []models.PurchaseUnitRequest{{
			Amount: models.AmountWithBreakdown{
				CurrencyCode: currencyUSD,
				Value:        amount,
				Breakdown: &models.AmountBreakdown{
					ItemTotal: models.PayPalMoney{CurrencyCode: currencyUSD, Value: amount},
				},
			},
			Description: product.Name,
			Items: []models.OrderItem{{
				Name:       product.Name,
				UnitAmount: models.PayPalMoney{CurrencyCode: currencyUSD, Value: amount},
				Quantity:   "1",
				Category:   "PHYSICAL_GOODS",
			}},
		}},
		ApplicationContext: &models.OrderApplicationContext{
			ReturnURL: c.returnURL,
			CancelURL: c.cancelURL,
		},
	}

	var order models.Order
	if err := c.postJSON(ctx, "/v2/checkout/orders", c.basicAuth(), body, &order); err != nil {
		return nil, fmt.Errorf("paypal: create invoice order: %w", err)
	}

	c.logger.Info("invoice order created",
		zap.String("order_id", order.ID),
		zap.String("status", order.Status),
		zap.String("product", product.Name),
	)
	return &order, nil
}

// CreateAndCaptureOrder charges the vaulted payment token for product. The
// order is captured only when creation did not already settle it.
func (c *Client) CreateAndCaptureOrder(ctx context.Context, product models.Product) (*models.Order, error) {
	tok, err := c.fetchToken(ctx)
	if err != nil {
		return nil, err
	}

	order, err := c.createVaultedOrder(ctx, tok, product)
	if err != nil {
		return nil, err
	}

	if order.Status == models.OrderStatusCompleted {
		c.logger.Info("order settled at creation",
			zap.String("order_id", order.ID),
			zap.String("product", product.Name),
		)
		return order, nil
	}

	captured, err := c.captureOrder(ctx, tok, order.ID)
	if err != nil {
		return nil, err
	}

	c.logger.Info("order captured",
		zap.String("order_id", captured.ID),
		zap.String("status", captured.Status),
		zap.String("product", product.Name),
	)
	return captured, nil
}

func (c *Client) createVaultedOrder(ctx context.Context, tok accessToken, product models.Product) (*models.Order, error) {
	body := models.OrderRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []models.PurchaseUnitRequest{{
			Amount: models.AmountWithBreakdown{
				CurrencyCode: currencyUSD,
				Value:        product.Amount(),
			},
			Description: product.Name,
		}},
		PaymentSource: &models.PaymentSource{
			Token: &models.PaymentToken{ID: c.vaultedToken, Type: "BILLING_AGREEMENT"},
		},
	}

	var order models.Order
	if err := c.postJSON(ctx, "/v2/checkout/orders", tok.header(), body, &order); err != nil {
		return nil, fmt.Errorf("paypal: create order: %w", err)
	}
	if order.ID == "" {
		return nil, ErrMissingOrderID
	}
	return &order, nil
}

func (c *Client) captureOrder(ctx context.Context, tok accessToken, orderID string) (*models.Order, error) {
	var captured models.Order
	path := "/v2/checkout/orders/" + url.PathEscape(orderID) + "/capture"
	if err := c.postJSON(ctx, path, tok.header(), struct{}{}, &captured); err != nil {
		return nil, fmt.Errorf("paypal: capture order %s: %w", orderID, err)
	}
	return &captured, nil
}

// RefundTransaction refunds the full amount of a capture.
func (c *Client) RefundTransaction(ctx context.Context, captureID string) (*models.Refund, error) {
	if strings.TrimSpace(captureID) == "" {
		return nil, ErrMissingCaptureID
	}

	tok, err := c.fetchToken(ctx)
	if err != nil {
		return nil, err
	}

	var refund models.Refund
	path := "/v2/payments/captures/" + url.PathEscape(captureID) + "/refund"
	if err := c.postJSON(ctx, path, tok.header(), struct{}{}, &refund); err != nil {
		return nil, fmt.Errorf("paypal: refund capture %s: %w", captureID, err)
	}

	c.logger.Info("capture refunded",
		zap.String("capture_id", captureID),
		zap.String("refund_id", refund.ID),
		zap.String("status", refund.Status),
	)
	return &refund, nil
}

// FetchUserTransactions lists up to ten transactions from the trailing
// calendar month and labels each with the catalog product of equal price.
func (c *Client) FetchUserTransactions(ctx context.Context) ([]models.TransactionRecord, error) {
	tok, err := c.fetchToken(ctx)
	if err != nil {
		return nil, err
	}

	end := c.clock().UTC().Truncate(time.Second)
	start := end.AddDate(0, -1, 0)

	q := url.Values{}
	q.Set("start_date", start.Format(reportTimeLayout))
	q.Set("end_date", end.Format(reportTimeLayout))
	q.Set("fields", "all")
	q.Set("page_size", fmt.Sprint(reportPageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/reporting/transactions?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("paypal: build transactions request: %w", err)
	}
	req.Header.Set("Authorization", tok.header())
	req.Header.Set("Content-Type", "application/json")

	var resp models.TransactionSearchResponse
	if err := c.do(req, &resp); err != nil {
		return nil, fmt.Errorf("paypal: list transactions: %w", err)
	}

	records := make([]models.TransactionRecord, 0, len(resp.TransactionDetails))
	for _, d := range resp.TransactionDetails {
		records = append(records, c.toRecord(d.TransactionInfo))
	}
	return records, nil
}

func (c *Client) toRecord(info models.TransactionInfo) models.TransactionRecord {
	rec := models.TransactionRecord{
		TransactionID: info.TransactionID,
		Status:        info.TransactionStatus,
		Timestamp:     info.TransactionInitiationDate,
		ProductName:   models.UnknownItem,
	}
	if info.TransactionAmount != nil {
		rec.Gross = info.TransactionAmount.Value
		rec.Currency = info.TransactionAmount.CurrencyCode
		if p, ok := c.catalog.FindByPrice(info.TransactionAmount.Value); ok {
			rec.ProductName = p.Name
		}
	}
	return rec
}

func (c *Client) postJSON(ctx context.Context, path, authorization string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", authorization)
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

// do executes req and decodes a 2xx JSON body into out.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		httpErr := newHTTPError(resp.StatusCode, resp.Status, redactURL(req.URL), resp.Header.Get("Paypal-Debug-Id"), body)
		c.logger.Warn("paypal request failed",
			zap.String("method", req.Method),
			zap.String("url", httpErr.URL),
			zap.Int("status", resp.StatusCode),
			zap.String("debug_id", httpErr.DebugID),
			zap.String("name", httpErr.Name),
		)
		return httpErr
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func redactURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	cp := *u
	cp.RawQuery = ""
	cp.User = nil
	return cp.String()
}
