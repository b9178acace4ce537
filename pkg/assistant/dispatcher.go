package assistant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/worldofchami/paychat/pkg/models"
)

// Gateway is the set of payment operations a tool call can reach.
type Gateway interface {
	CreateInvoiceOrder(ctx context.Context, product models.Product) (*models.Order, error)
	CreateAndCaptureOrder(ctx context.Context, product models.Product) (*models.Order, error)
	RefundTransaction(ctx context.Context, captureID string) (*models.Refund, error)
	FetchUserTransactions(ctx context.Context) ([]models.TransactionRecord, error)
}

// Notifier delivers an out-of-band receipt after money has moved.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

var errEmptyResult = errors.New("assistant: gateway returned no result")

// Dispatcher routes a model decision to at most one gateway operation and
// always produces a reply string. Gateway failures never escape it.
type Dispatcher struct {
	catalog  *models.Catalog
	gateway  Gateway
	notifier Notifier
	location *time.Location
	logger   *zap.Logger
}

type DispatcherOption func(*Dispatcher)

func WithNotifier(n Notifier) DispatcherOption {
	return func(d *Dispatcher) { d.notifier = n }
}

// WithLocation sets the zone transaction dates are displayed in.
func WithLocation(loc *time.Location) DispatcherOption {
	return func(d *Dispatcher) {
		if loc != nil {
			d.location = loc
		}
	}
}

func WithDispatcherLogger(logger *zap.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

func NewDispatcher(catalog *models.Catalog, gateway Gateway, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		catalog:  catalog,
		gateway:  gateway,
		location: time.UTC,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Dispatch produces the reply for one model decision.
func (d *Dispatcher) Dispatch(ctx context.Context, decision Decision) string {
	if decision.ToolCall == nil {
		return PlainReply(decision.Text)
	}

	call, err := ParseToolCall(*decision.ToolCall)
	if errors.Is(err, ErrUnknownTool) {
		d.logger.Warn("unknown tool requested", zap.String("tool", decision.ToolCall.Name))
		return ReplyUnknownTool
	}

	log := d.logger.With(zap.String("tool", string(call.Kind)))
	if err != nil {
		log.Info("tool arguments rejected", zap.Error(err))
	}

	switch call.Kind {
	case KindFetchTransactions:
		return d.fetchTransactions(ctx, log)
	case KindRefund:
		if err != nil {
			return ReplyPaymentIssue
		}
		return d.refund(ctx, log, call.Refund.CaptureID)
	case KindCreateAndCapture, KindCreateInvoice:
		return d.order(ctx, log, call)
	default:
		return ReplyUnknownTool
	}
}

func (d *Dispatcher) fetchTransactions(ctx context.Context, log *zap.Logger) string {
	records, err := d.gateway.FetchUserTransactions(ctx)
	if err != nil {
		log.Error("fetch transactions failed", zap.Error(err))
		return ReplyPaymentIssue
	}
	log.Info("transactions fetched", zap.Int("count", len(records)))
	return TransactionsReply(records, d.location)
}

func (d *Dispatcher) refund(ctx context.Context, log *zap.Logger, captureID string) string {
	log = log.With(zap.String("capture_id", captureID))

	refund, err := d.gateway.RefundTransaction(ctx, captureID)
	if err == nil && refund == nil {
		err = errEmptyResult
	}
	if err != nil {
		log.Error("refund failed", zap.Error(err))
		return ReplyPaymentIssue
	}

	log.Info("refund issued", zap.String("refund_id", refund.ID), zap.String("status", refund.Status))
	d.notify(ctx, log, fmt.Sprintf("Your refund for order %s has been issued. Refund ID: %s", captureID, refund.ID))
	return RefundReply(captureID, refund.ID)
}

func (d *Dispatcher) order(ctx context.Context, log *zap.Logger, call ToolCall) string {
	requested := ""
	if call.Order != nil {
		requested = call.Order.Product
	}

	product, ok := d.catalog.FindByName(requested)
	if !ok {
		log.Info("product not in catalog", zap.String("requested", requested))
		return NotFoundReply(requested)
	}

	log = log.With(zap.String("product", product.Name))
	if call.Order.Price.Valid && !call.Order.Price.Decimal.Equal(product.Price) {
		log.Warn("model price differs from catalog; charging catalog price",
			zap.String("model_price", call.Order.Price.Decimal.String()),
			zap.String("catalog_price", product.DisplayPrice()),
		)
	}

	if call.Kind == KindCreateInvoice {
		return d.invoice(ctx, log, product)
	}
	return d.payNow(ctx, log, product)
}

func (d *Dispatcher) payNow(ctx context.Context, log *zap.Logger, product models.Product) string {
	order, err := d.gateway.CreateAndCaptureOrder(ctx, product)
	if err == nil && order == nil {
		err = errEmptyResult
	}
	if err != nil {
		log.Error("pay-now failed", zap.Error(err))
		return ReplyPaymentIssue
	}

	captureID, _ := order.FirstCaptureID()
	log = log.With(zap.String("order_id", order.ID), zap.String("capture_id", captureID), zap.String("status", order.Status))

	if order.Status != models.OrderStatusCompleted {
		log.Warn("order not completed after capture")
		return PaymentPendingReply(product.Name, order.Status)
	}

	log.Info("pay-now completed")
	receiptID := captureID
	if receiptID == "" {
		receiptID = "N/A"
	}
	d.notify(ctx, log, fmt.Sprintf("Receipt: you bought the %s for $%s USD. Transaction ID: %s", product.Name, product.Amount(), receiptID))
	return PaymentSuccessReply(product.Name, captureID)
}

func (d *Dispatcher) invoice(ctx context.Context, log *zap.Logger, product models.Product) string {
	order, err := d.gateway.CreateInvoiceOrder(ctx, product)
	if err == nil && order == nil {
		err = errEmptyResult
	}
	if err != nil {
		log.Error("invoice order failed", zap.Error(err))
		return ReplyPaymentIssue
	}

	link, ok := order.Link("approve")
	if !ok || link == "" {
		log.Error("invoice order has no approve link", zap.String("order_id", order.ID))
		return ReplyPaymentIssue
	}

	log.Info("invoice order created", zap.String("order_id", order.ID))
	return InvoiceReply(link)
}

// notify sends a receipt after the payment chain has finished. Failures are
// logged and never change the reply.
func (d *Dispatcher) notify(ctx context.Context, log *zap.Logger, message string) {
	if d.notifier == nil {
		return
	}
	if err := d.notifier.Notify(ctx, message); err != nil {
		log.Warn("receipt notification failed", zap.Error(err))
	}
}
