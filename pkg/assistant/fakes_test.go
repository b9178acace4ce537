package assistant

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/worldofchami/paychat/pkg/models"
)

var errGateway = errors.New("gateway: 502 Bad Gateway")

func testCatalog() *models.Catalog {
	return models.NewCatalog([]models.Product{
		{Name: "Trail Runner", Price: decimal.RequireFromString("89.9"), Image: "https://cdn.example.com/trail.png"},
		{Name: "Yoga Mat", Price: decimal.RequireFromString("25"), Image: "https://cdn.example.com/mat.png"},
		{Name: "Water Bottle", Price: decimal.RequireFromString("25.00"), Image: "https://cdn.example.com/bottle.png"},
	})
}

// fakeGateway records calls and returns canned results.
type fakeGateway struct {
	mu    sync.Mutex
	calls []string

	order        *models.Order
	invoice      *models.Order
	refund       *models.Refund
	transactions []models.TransactionRecord
	err          error

	products   []models.Product
	captureIDs []string
}

func (g *fakeGateway) record(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, name)
}

func (g *fakeGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func (g *fakeGateway) CreateInvoiceOrder(_ context.Context, p models.Product) (*models.Order, error) {
	g.record("invoice")
	g.products = append(g.products, p)
	if g.err != nil {
		return nil, g.err
	}
	return g.invoice, nil
}

func (g *fakeGateway) CreateAndCaptureOrder(_ context.Context, p models.Product) (*models.Order, error) {
	g.record("capture")
	g.products = append(g.products, p)
	if g.err != nil {
		return nil, g.err
	}
	return g.order, nil
}

func (g *fakeGateway) RefundTransaction(_ context.Context, captureID string) (*models.Refund, error) {
	g.record("refund")
	g.captureIDs = append(g.captureIDs, captureID)
	if g.err != nil {
		return nil, g.err
	}
	return g.refund, nil
}

func (g *fakeGateway) FetchUserTransactions(context.Context) ([]models.TransactionRecord, error) {
	g.record("transactions")
	if g.err != nil {
		return nil, g.err
	}
	return g.transactions, nil
}

type fakeNotifier struct {
	messages []string
	err      error
}

func (n *fakeNotifier) Notify(_ context.Context, message string) error {
	n.messages = append(n.messages, message)
	return n.err
}

// stubModel returns a fixed decision and remembers the last request.
type stubModel struct {
	decision Decision
	err      error
	last     ModelRequest
	calls    int
}

func (m *stubModel) Complete(_ context.Context, req ModelRequest) (Decision, error) {
	m.calls++
	m.last = req
	return m.decision, m.err
}

func toolDecision(name, args string) Decision {
	return Decision{ToolCall: &RawToolCall{Name: name, Arguments: args}}
}

func completedOrder(captureID string) *models.Order {
	order := &models.Order{ID: "ORDER1", Status: models.OrderStatusCompleted}
	if captureID != "" {
		order.PurchaseUnits = []models.OrderPurchaseUnit{{
			Payments: &models.OrderPayments{Captures: []models.Capture{{ID: captureID, Status: "COMPLETED"}}},
		}}
	}
	return order
}
