package assistant

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseToolCall(t *testing.T) {
	tests := []struct {
		name    string
		raw     RawToolCall
		want    ToolCall
		wantErr error
	}{
		{
			name: "fetch transactions ignores arguments",
			raw:  RawToolCall{Name: "fetch_user_transactions", Arguments: `{"limit":5}`},
			want: ToolCall{Kind: KindFetchTransactions},
		},
		{
			name: "refund",
			raw:  RawToolCall{Name: "refund_transaction", Arguments: `{"capture_id":"CAP123"}`},
			want: ToolCall{Kind: KindRefund, Refund: &RefundArgs{CaptureID: "CAP123"}},
		},
		{
			name: "padded capture id kept verbatim",
			raw:  RawToolCall{Name: "refund_transaction", Arguments: `{"capture_id":" CAP123 "}`},
			want: ToolCall{Kind: KindRefund, Refund: &RefundArgs{CaptureID: " CAP123 "}},
		},
		{
			name:    "blank capture id",
			raw:     RawToolCall{Name: "refund_transaction", Arguments: `{"capture_id":"  "}`},
			want:    ToolCall{Kind: KindRefund, Refund: &RefundArgs{CaptureID: "  "}},
			wantErr: ErrInvalidArguments,
		},
		{
			name:    "refund with numeric capture id",
			raw:     RawToolCall{Name: "refund_transaction", Arguments: `{"capture_id":123}`},
			want:    ToolCall{Kind: KindRefund, Refund: &RefundArgs{}},
			wantErr: ErrInvalidArguments,
		},
		{
			name: "pay now",
			raw:  RawToolCall{Name: "create_and_capture_order", Arguments: `{"product":"Yoga Mat","price":25,"payment_method":"vaulted"}`},
			want: ToolCall{Kind: KindCreateAndCapture, Order: &OrderArgs{
				Product:       "Yoga Mat",
				Price:         decimal.NewNullDecimal(decimal.NewFromFloat(25)),
				PaymentMethod: "vaulted",
			}},
		},
		{
			name: "invoice with string price",
			raw:  RawToolCall{Name: "create_invoice_order", Arguments: `{"product":"Yoga Mat","price":"25.00"}`},
			want: ToolCall{Kind: KindCreateInvoice, Order: &OrderArgs{
				Product: "Yoga Mat",
				Price:   decimal.NewNullDecimal(decimal.RequireFromString("25.00")),
			}},
		},
		{
			name: "invoice with unusable price",
			raw:  RawToolCall{Name: "create_invoice_order", Arguments: `{"product":"Yoga Mat","price":"cheap"}`},
			want: ToolCall{Kind: KindCreateInvoice, Order: &OrderArgs{Product: "Yoga Mat"}},
		},
		{
			name:    "malformed arguments become empty",
			raw:     RawToolCall{Name: "create_invoice_order", Arguments: `{"product":"Yoga`},
			want:    ToolCall{Kind: KindCreateInvoice, Order: &OrderArgs{}},
			wantErr: ErrInvalidArguments,
		},
		{
			name:    "unknown tool",
			raw:     RawToolCall{Name: "send_sms", Arguments: `{}`},
			wantErr: ErrUnknownTool,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseToolCall(tt.raw)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want.Kind, got.Kind)
			assert.Equal(t, tt.want.Refund, got.Refund)
			if tt.want.Order == nil {
				assert.Nil(t, got.Order)
				return
			}
			require.NotNil(t, got.Order)
			assert.Equal(t, tt.want.Order.Product, got.Order.Product)
			assert.Equal(t, tt.want.Order.PaymentMethod, got.Order.PaymentMethod)
			assert.Equal(t, tt.want.Order.Price.Valid, got.Order.Price.Valid)
			if tt.want.Order.Price.Valid {
				assert.True(t, tt.want.Order.Price.Decimal.Equal(got.Order.Price.Decimal))
			}
		})
	}
}

func TestParseToolCallErrorsAreDistinct(t *testing.T) {
	_, err := ParseToolCall(RawToolCall{Name: "refund_transaction"})
	assert.ErrorIs(t, err, ErrInvalidArguments)
	assert.NotErrorIs(t, err, ErrUnknownTool)
	assert.Contains(t, err.Error(), "capture_id")
}
