package paypal

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldofchami/paychat/pkg/models"
)

type recordedCall struct {
	Method string
	Path   string
	Query  url.Values
	Auth   string
	Body   string
}

// fakePayPal serves canned responses per "METHOD path" and records every call.
type fakePayPal struct {
	mu        sync.Mutex
	calls     []recordedCall
	responses map[string]fakeResponse
}

type fakeResponse struct {
	status int
	body   string
}

func newFakePayPal(t *testing.T) (*fakePayPal, *httptest.Server) {
	t.Helper()
	f := &fakePayPal{responses: map[string]fakeResponse{
		"POST /v1/oauth2/token": {http.StatusOK, `{"access_token":"A21AAtoken","token_type":"Bearer","expires_in":32400}`},
	}}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakePayPal) on(method, path string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[method+" "+path] = fakeResponse{status, body}
}

func (f *fakePayPal) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.calls = append(f.calls, recordedCall{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Auth:   r.Header.Get("Authorization"),
		Body:   string(body),
	})
	resp, ok := f.responses[r.Method+" "+r.URL.Path]
	f.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"name":"RESOURCE_NOT_FOUND"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Paypal-Debug-Id", "dbg-123")
	w.WriteHeader(resp.status)
	_, _ = w.Write([]byte(resp.body))
}

func (f *fakePayPal) paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.Method+" "+c.Path)
	}
	return out
}

func (f *fakePayPal) call(i int) recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[i]
}

var trailRunner = models.Product{Name: "Trail Runner", Price: decimal.RequireFromString("89.9"), Image: "trail.png"}

func newTestClient(t *testing.T, srv *httptest.Server, opts ...Option) *Client {
	t.Helper()
	catalog := models.NewCatalog([]models.Product{
		trailRunner,
		{Name: "Yoga Mat", Price: decimal.RequireFromString("25"), Image: "mat.png"},
	})
	c, err := NewClient(Config{
		BaseURL:      srv.URL + "/",
		ClientID:     "client-id",
		ClientSecret: "secret",
		VaultedToken: "B-VAULTED",
		ReturnURL:    "https://shop.example.com/success",
		CancelURL:    "https://shop.example.com/cancel",
	}, catalog, opts...)
	require.NoError(t, err)
	return c
}

func basic() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte("client-id:secret"))
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(Config{ClientID: "a", ClientSecret: "b"}, nil)
	assert.Error(t, err)
	_, err = NewClient(Config{BaseURL: "https://api"}, nil)
	assert.Error(t, err)
}

func TestAccessTokenUsesClientCredentialsGrant(t *testing.T) {
	fake, srv := newFakePayPal(t)
	c := newTestClient(t, srv)

	tok, err := c.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "A21AAtoken", tok)

	call := fake.call(0)
	assert.Equal(t, basic(), call.Auth)
	assert.Equal(t, "grant_type=client_credentials", call.Body)
}

func TestAccessTokenEmpty(t *testing.T) {
	fake, srv := newFakePayPal(t)
	fake.on(http.MethodPost, "/v1/oauth2/token", http.StatusOK, `{}`)
	c := newTestClient(t, srv)

	_, err := c.AccessToken(context.Background())
	assert.ErrorIs(t, err, ErrMissingAccessToken)
}

func TestCreateAndCaptureOrderAlreadyCompletedSkipsCapture(t *testing.T) {
	fake, srv := newFakePayPal(t)
	fake.on(http.MethodPost, "/v2/checkout/orders", http.StatusCreated,
		`{"id":"ORDER1","status":"COMPLETED","purchase_units":[{"payments":{"captures":[{"id":"CAP1","status":"COMPLETED"}]}}]}`)
	c := newTestClient(t, srv)

	order, err := c.CreateAndCaptureOrder(context.Background(), trailRunner)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, order.Status)

	id, ok := order.FirstCaptureID()
	require.True(t, ok)
	assert.Equal(t, "CAP1", id)

	assert.Equal(t, []string{"POST /v1/oauth2/token", "POST /v2/checkout/orders"}, fake.paths())

	create := fake.call(1)
	assert.Equal(t, "Bearer A21AAtoken", create.Auth)

	var body models.OrderRequest
	require.NoError(t, json.Unmarshal([]byte(create.Body), &body))
	assert.Equal(t, "CAPTURE", body.Intent)
	require.Len(t, body.PurchaseUnits, 1)
	assert.Equal(t, "89.90", body.PurchaseUnits[0].Amount.Value)
	assert.Equal(t, "USD", body.PurchaseUnits[0].Amount.CurrencyCode)
	assert.Equal(t, "Trail Runner", body.PurchaseUnits[0].Description)
	require.NotNil(t, body.PaymentSource)
	assert.Equal(t, &models.PaymentToken{ID: "B-VAULTED", Type: "BILLING_AGREEMENT"}, body.PaymentSource.Token)
}

func TestCreateAndCaptureOrderCapturesOnceWhenNotCompleted(t *testing.T) {
	for _, status := range []string{"CREATED", "APPROVED", "PAYER_ACTION_REQUIRED"} {
		t.Run(status, func(t *testing.T) {
			fake, srv := newFakePayPal(t)
			fake.on(http.MethodPost, "/v2/checkout/orders", http.StatusCreated, `{"id":"ORDER2","status":"`+status+`"}`)
			fake.on(http.MethodPost, "/v2/checkout/orders/ORDER2/capture", http.StatusCreated,
				`{"id":"ORDER2","status":"COMPLETED","purchase_units":[{"payments":{"captures":[{"id":"CAP2"}]}}]}`)
			c := newTestClient(t, srv)

			order, err := c.CreateAndCaptureOrder(context.Background(), trailRunner)
			require.NoError(t, err)
			assert.Equal(t, "COMPLETED", order.Status)

			assert.Equal(t, []string{
				"POST /v1/oauth2/token",
				"POST /v2/checkout/orders",
				"POST /v2/checkout/orders/ORDER2/capture",
			}, fake.paths())
			assert.Equal(t, "Bearer A21AAtoken", fake.call(2).Auth)
			assert.Equal(t, "{}", fake.call(2).Body)
		})
	}
}

func TestCreateAndCaptureOrderShortCircuitsOnTokenFailure(t *testing.T) {
	fake, srv := newFakePayPal(t)
	fake.on(http.MethodPost, "/v1/oauth2/token", http.StatusUnauthorized, `{"error":"invalid_client"}`)
	c := newTestClient(t, srv)

	_, err := c.CreateAndCaptureOrder(context.Background(), trailRunner)
	require.Error(t, err)

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
	assert.Equal(t, "invalid_client", httpErr.Name)
	assert.Equal(t, "dbg-123", httpErr.DebugID)
	assert.Equal(t, []string{"POST /v1/oauth2/token"}, fake.paths())
}

func TestCreateAndCaptureOrderCaptureFailureIsNotRetried(t *testing.T) {
	fake, srv := newFakePayPal(t)
	fake.on(http.MethodPost, "/v2/checkout/orders", http.StatusCreated, `{"id":"ORDER3","status":"CREATED"}`)
	fake.on(http.MethodPost, "/v2/checkout/orders/ORDER3/capture", http.StatusUnprocessableEntity,
		`{"name":"UNPROCESSABLE_ENTITY","message":"The requested action could not be performed"}`)
	c := newTestClient(t, srv)

	_, err := c.CreateAndCaptureOrder(context.Background(), trailRunner)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "capture order ORDER3")
	assert.Len(t, fake.paths(), 3)
}

func TestCreateAndCaptureOrderMissingOrderID(t *testing.T) {
	fake, srv := newFakePayPal(t)
	fake.on(http.MethodPost, "/v2/checkout/orders", http.StatusCreated, `{"status":"CREATED"}`)
	c := newTestClient(t, srv)

	_, err := c.CreateAndCaptureOrder(context.Background(), trailRunner)
	assert.ErrorIs(t, err, ErrMissingOrderID)
	assert.Len(t, fake.paths(), 2)
}

func TestCreateInvoiceOrderUsesBasicAuthAndBreakdown(t *testing.T) {
	fake, srv := newFakePayPal(t)
	fake.on(http.MethodPost, "/v2/checkout/orders", http.StatusCreated,
		`{"id":"INV1","status":"CREATED","links":[{"href":"https://www.sandbox.paypal.com/checkoutnow?token=INV1","rel":"approve","method":"GET"}]}`)
	c := newTestClient(t, srv)

	order, err := c.CreateInvoiceOrder(context.Background(), trailRunner)
	require.NoError(t, err)

	link, ok := order.Link("approve")
	require.True(t, ok)
	assert.Equal(t, "https://www.sandbox.paypal.com/checkoutnow?token=INV1", link)

	require.Equal(t, []string{"POST /v2/checkout/orders"}, fake.paths(), "invoice orders skip the token call")
	call := fake.call(0)
	assert.Equal(t, basic(), call.Auth)

	var body models.OrderRequest
	require.NoError(t, json.Unmarshal([]byte(call.Body), &body))
	unit := body.PurchaseUnits[0]
	assert.Equal(t, "89.90", unit.Amount.Value)
	require.NotNil(t, unit.Amount.Breakdown)
	assert.Equal(t, "89.90", unit.Amount.Breakdown.ItemTotal.Value)
	require.Len(t, unit.Items, 1)
	assert.Equal(t, models.OrderItem{
		Name:       "Trail Runner",
		UnitAmount: models.PayPalMoney{CurrencyCode: "USD", Value: "89.90"},
		Quantity:   "1",
		Category:   "PHYSICAL_GOODS",
	}, unit.Items[0])
	assert.Nil(t, body.PaymentSource)
	require.NotNil(t, body.ApplicationContext)
	assert.Equal(t, "https://shop.example.com/success", body.ApplicationContext.ReturnURL)
	assert.Equal(t, "https://shop.example.com/cancel", body.ApplicationContext.CancelURL)
}

func TestRefundTransaction(t *testing.T) {
	fake, srv := newFakePayPal(t)
	fake.on(http.MethodPost, "/v2/payments/captures/CAP123/refund", http.StatusCreated, `{"id":"REF9","status":"COMPLETED"}`)
	c := newTestClient(t, srv)

	refund, err := c.RefundTransaction(context.Background(), "CAP123")
	require.NoError(t, err)
	assert.Equal(t, "REF9", refund.ID)
	assert.Equal(t, []string{"POST /v1/oauth2/token", "POST /v2/payments/captures/CAP123/refund"}, fake.paths())
	assert.Equal(t, "{}", fake.call(1).Body, "full refunds send no amount")
}

func TestRefundTransactionRequiresCaptureID(t *testing.T) {
	fake, srv := newFakePayPal(t)
	c := newTestClient(t, srv)

	_, err := c.RefundTransaction(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrMissingCaptureID)
	assert.Empty(t, fake.paths())
}

func TestFetchUserTransactions(t *testing.T) {
	fake, srv := newFakePayPal(t)
	fake.on(http.MethodGet, "/v1/reporting/transactions", http.StatusOK, `{
		"transaction_details": [
			{"transaction_info": {"transaction_id": "TX1", "transaction_status": "S",
				"transaction_amount": {"currency_code": "USD", "value": "89.90"},
				"transaction_initiation_date": "2026-10-01T10:15:00+0000"}},
			{"transaction_info": {"transaction_id": "TX2", "transaction_status": "S",
				"transaction_amount": {"currency_code": "USD", "value": "12.00"},
				"transaction_initiation_date": "2026-10-02T10:15:00+0000"}},
			{"transaction_info": {"transaction_id": "TX3", "transaction_status": "P"}}
		]
	}`)

	now := time.Date(2026, time.March, 31, 12, 30, 45, 999, time.FixedZone("AEDT", 11*3600))
	c := newTestClient(t, srv, WithClock(func() time.Time { return now }))

	records, err := c.FetchUserTransactions(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, models.TransactionRecord{
		TransactionID: "TX1", Status: "S", Gross: "89.90", Currency: "USD",
		Timestamp: "2026-10-01T10:15:00+0000", ProductName: "Trail Runner",
	}, records[0])
	assert.Equal(t, models.UnknownItem, records[1].ProductName)
	assert.Equal(t, models.UnknownItem, records[2].ProductName)
	assert.Empty(t, records[2].Gross)

	call := fake.call(1)
	assert.Equal(t, "Bearer A21AAtoken", call.Auth)
	assert.Equal(t, "2026-03-31T01:30:45Z", call.Query.Get("end_date"))
	// One calendar month back from 31 March normalises through 31 February.
	assert.Equal(t, "2026-03-03T01:30:45Z", call.Query.Get("start_date"))
	assert.Equal(t, "all", call.Query.Get("fields"))
	assert.Equal(t, "10", call.Query.Get("page_size"))
}

func TestFetchUserTransactionsEmpty(t *testing.T) {
	fake, srv := newFakePayPal(t)
	fake.on(http.MethodGet, "/v1/reporting/transactions", http.StatusOK, `{"transaction_details": []}`)
	c := newTestClient(t, srv)

	records, err := c.FetchUserTransactions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestHTTPErrorRedactsQuery(t *testing.T) {
	fake, srv := newFakePayPal(t)
	fake.on(http.MethodGet, "/v1/reporting/transactions", http.StatusForbidden, `{"name":"NOT_AUTHORIZED"}`)
	c := newTestClient(t, srv)

	_, err := c.FetchUserTransactions(context.Background())
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.False(t, strings.Contains(httpErr.URL, "start_date"))
	assert.Equal(t, "NOT_AUTHORIZED", httpErr.Name)
}

func TestContextCancellationSurfacesAsError(t *testing.T) {
	_, srv := newFakePayPal(t)
	c := newTestClient(t, srv)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.RefundTransaction(ctx, "CAP1")
	assert.ErrorIs(t, err, context.Canceled)
}
