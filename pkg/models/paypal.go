package models

// Order statuses reported by the PayPal Orders v2 API.
const (
	OrderStatusCreated             = "CREATED"
	OrderStatusSaved               = "SAVED"
	OrderStatusApproved            = "APPROVED"
	OrderStatusVoided              = "VOIDED"
	OrderStatusCompleted           = "COMPLETED"
	OrderStatusPayerActionRequired = "PAYER_ACTION_REQUIRED"
)

type PayPalMoney struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type PayPalLink struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method,omitempty"`
}

// Order is the subset of a PayPal order (create or capture response) the
// assistant reads.
type Order struct {
	ID            string              `json:"id"`
	Status        string              `json:"status"`
	Links         []PayPalLink        `json:"links,omitempty"`
	PurchaseUnits []OrderPurchaseUnit `json:"purchase_units,omitempty"`
}

type OrderPurchaseUnit struct {
	ReferenceID string         `json:"reference_id,omitempty"`
	Description string         `json:"description,omitempty"`
	Payments    *OrderPayments `json:"payments,omitempty"`
}

type OrderPayments struct {
	Captures []Capture `json:"captures,omitempty"`
}

// Capture is a settled charge against an order.
type Capture struct {
	ID     string       `json:"id"`
	Status string       `json:"status,omitempty"`
	Amount *PayPalMoney `json:"amount,omitempty"`
}

// Link returns the href of the first link with the given rel.
func (o *Order) Link(rel string) (string, bool) {
	if o == nil {
		return "", false
	}
	for _, l := range o.Links {
		if l.Rel == rel && l.Href != "" {
			return l.Href, true
		}
	}
	return "", false
}

// Captures flattens captures across purchase units, preserving order.
func (o *Order) Captures() []Capture {
	if o == nil {
		return nil
	}
	var out []Capture
	for _, pu := range o.PurchaseUnits {
		if pu.Payments == nil {
			continue
		}
		out = append(out, pu.Payments.Captures...)
	}
	return out
}

// FirstCaptureID returns the id of the first capture, if any.
func (o *Order) FirstCaptureID() (string, bool) {
	caps := o.Captures()
	if len(caps) == 0 || caps[0].ID == "" {
		return "", false
	}
	return caps[0].ID, true
}

// Refund is the PayPal refund record returned for a capture.
type Refund struct {
	ID     string       `json:"id"`
	Status string       `json:"status,omitempty"`
	Amount *PayPalMoney `json:"amount,omitempty"`
	Links  []PayPalLink `json:"links,omitempty"`
}

// --- order creation payloads ---

type OrderRequest struct {
	Intent             string                   `json:"intent"`
	PurchaseUnits      []PurchaseUnitRequest    `json:"purchase_units"`
	PaymentSource      *PaymentSource           `json:"payment_source,omitempty"`
	ApplicationContext *OrderApplicationContext `json:"application_context,omitempty"`
}

type PurchaseUnitRequest struct {
	Amount      AmountWithBreakdown `json:"amount"`
	Description string              `json:"description,omitempty"`
	Items       []OrderItem         `json:"items,omitempty"`
}

type AmountWithBreakdown struct {
	CurrencyCode string           `json:"currency_code"`
	Value        string           `json:"value"`
	Breakdown    *AmountBreakdown `json:"breakdown,omitempty"`
}

type AmountBreakdown struct {
	ItemTotal PayPalMoney `json:"item_total"`
}

type OrderItem struct {
	Name       string      `json:"name"`
	UnitAmount PayPalMoney `json:"unit_amount"`
	Quantity   string      `json:"quantity"`
	Category   string      `json:"category,omitempty"`
}

type PaymentSource struct {
	Token *PaymentToken `json:"token,omitempty"`
}

type PaymentToken struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

type OrderApplicationContext struct {
	ReturnURL string `json:"return_url,omitempty"`
	CancelURL string `json:"cancel_url,omitempty"`
}

// --- reporting ---

// TransactionSearchResponse is the body of GET /v1/reporting/transactions.
type TransactionSearchResponse struct {
	TransactionDetails []TransactionDetail `json:"transaction_details"`
	TotalItems         int                 `json:"total_items,omitempty"`
	TotalPages         int                 `json:"total_pages,omitempty"`
	Page               int                 `json:"page,omitempty"`
}

type TransactionDetail struct {
	TransactionInfo TransactionInfo `json:"transaction_info"`
}

type TransactionInfo struct {
	TransactionID             string       `json:"transaction_id"`
	TransactionStatus         string       `json:"transaction_status"`
	TransactionAmount         *PayPalMoney `json:"transaction_amount,omitempty"`
	TransactionInitiationDate string       `json:"transaction_initiation_date"`
}

// TransactionRecord is a reporting entry labelled with a best-effort catalog
// product name.
type TransactionRecord struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	Gross         string `json:"gross"`
	Currency      string `json:"currency"`
	Timestamp     string `json:"timestamp"`
	ProductName   string `json:"product_name"`
}
