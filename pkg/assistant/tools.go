package assistant

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ToolKind names one of the operations the model may request.
type ToolKind string

const (
	KindCreateAndCapture  ToolKind = "create_and_capture_order"
	KindCreateInvoice     ToolKind = "create_invoice_order"
	KindRefund            ToolKind = "refund_transaction"
	KindFetchTransactions ToolKind = "fetch_user_transactions"
)

var (
	ErrUnknownTool      = errors.New("assistant: unknown tool")
	ErrInvalidArguments = errors.New("assistant: invalid tool arguments")
)

// OrderArgs are the arguments of both order tools. Price is what the model
// claimed; the catalog price is what gets charged.
type OrderArgs struct {
	Product       string
	Price         decimal.NullDecimal
	PaymentMethod string
}

type RefundArgs struct {
	CaptureID string
}

// ToolCall is a validated tool request. Exactly one payload is set for the
// order and refund kinds; fetch carries none.
type ToolCall struct {
	Kind   ToolKind
	Order  *OrderArgs
	Refund *RefundArgs
}

// ParseToolCall maps a raw model call onto the closed set of kinds.
//
// Names and string arguments are taken verbatim. Malformed or absent argument
// JSON is treated as no arguments. A known kind
// with a missing required argument still returns its Kind and whatever
// payload could be read, wrapped in ErrInvalidArguments.
func ParseToolCall(raw RawToolCall) (ToolCall, error) {
	kind := ToolKind(raw.Name)
	args := decodeArguments(raw.Arguments)

	switch kind {
	case KindFetchTransactions:
		return ToolCall{Kind: kind}, nil

	case KindRefund:
		captureID, _ := asString(args, "capture_id")
		call := ToolCall{Kind: kind, Refund: &RefundArgs{CaptureID: captureID}}
		if strings.TrimSpace(captureID) == "" {
			return call, fmt.Errorf("%w: missing required argument: capture_id", ErrInvalidArguments)
		}
		return call, nil

	case KindCreateAndCapture, KindCreateInvoice:
		product, _ := asString(args, "product")
		method, _ := asString(args, "payment_method")
		call := ToolCall{Kind: kind, Order: &OrderArgs{
			Product:       product,
			Price:         asDecimal(args, "price"),
			PaymentMethod: method,
		}}
		if call.Order.Product == "" {
			return call, fmt.Errorf("%w: missing required argument: product", ErrInvalidArguments)
		}
		return call, nil

	default:
		return ToolCall{}, fmt.Errorf("%w: %q", ErrUnknownTool, raw.Name)
	}
}

func decodeArguments(raw string) map[string]any {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil
	}
	return args
}

func asString(args map[string]any, key string) (string, bool) {
	v, ok := args[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// asDecimal accepts the price as a JSON number or a numeric string.
func asDecimal(args map[string]any, key string) decimal.NullDecimal {
	switch v := args[key].(type) {
	case float64:
		return decimal.NewNullDecimal(decimal.NewFromFloat(v))
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return decimal.NullDecimal{}
		}
		return decimal.NewNullDecimal(d)
	default:
		return decimal.NullDecimal{}
	}
}
