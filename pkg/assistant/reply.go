package assistant

import (
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/worldofchami/paychat/pkg/models"
)

const (
	ReplyNoTransactions = "📋 No recent transactions found."
	ReplyPaymentIssue   = "❌ There was an issue processing the payment. Please try again."
	ReplyUnknownTool    = "❌ Unknown function request."
	ReplyEmptyModel     = "❌ I didn’t receive a proper response."

	transactionsHeader = "📋 <strong>Recent Transactions:</strong><br><br>"

	// displayLayout matches en-AU medium date with short time, e.g. "17 Oct 2026, 3:04 pm".
	displayLayout = "2 Jan 2006, 3:04 pm"
)

// strict strips all markup from text that came from the model or the payment
// provider before it is embedded in an HTML reply.
var strict = bluemonday.StrictPolicy()

// timestampLayouts are tried in order; the reporting API omits the colon in
// its zone offset.
var timestampLayouts = []string{
	"2006-01-02T15:04:05-0700",
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
}

func clean(s string) string {
	return strict.Sanitize(s)
}

// PlainReply passes model text through, substituting a placeholder when empty.
func PlainReply(text string) string {
	if text == "" {
		return ReplyEmptyModel
	}
	return text
}

// TransactionsReply renders one block per record, dates shown in loc.
func TransactionsReply(records []models.TransactionRecord, loc *time.Location) string {
	if len(records) == 0 {
		return ReplyNoTransactions
	}
	var b strings.Builder
	b.WriteString(transactionsHeader)
	for _, r := range records {
		fmt.Fprintf(&b, "🧾 <strong>%s</strong><br>ID: %s<br>Product: %s<br>Status: %s<br>Amount: $%s %s<br><br>",
			FormatTimestamp(r.Timestamp, loc),
			clean(r.TransactionID),
			clean(r.ProductName),
			clean(r.Status),
			clean(r.Gross),
			clean(r.Currency),
		)
	}
	return b.String()
}

// FormatTimestamp renders a provider timestamp for display. Values that do
// not parse are shown as received.
func FormatTimestamp(ts string, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.In(loc).Format(displayLayout)
		}
	}
	return clean(ts)
}

func RefundReply(captureID, refundID string) string {
	return fmt.Sprintf("Really sorry to hear that. I've checked this, and we have refunded the full transaction amount for Order ID %s. Refund ID: %s",
		clean(captureID), clean(refundID))
}

// NotFoundReply quotes the product name the model asked for.
func NotFoundReply(requested string) string {
	return fmt.Sprintf("❌ Sorry, I couldn’t find the product \"%s\".", clean(requested))
}

func PaymentSuccessReply(productName, captureID string) string {
	if captureID == "" {
		captureID = "N/A"
	}
	return fmt.Sprintf("✅ Payment successful! You bought the %s. Transaction ID: %s.", productName, clean(captureID))
}

// PaymentPendingReply is used when the order came back in any state other
// than COMPLETED.
func PaymentPendingReply(productName, status string) string {
	return fmt.Sprintf("⏳ Your payment for the %s is still being processed (status: %s). We'll confirm once it completes.",
		productName, clean(status))
}

func InvoiceReply(link string) string {
	return fmt.Sprintf(`🧾 Please complete your purchase by clicking this PayPal button:<br><br><a href="%s" target="_blank"><img src="/paypal.png" alt="Pay with PayPal" style="height:50px"/></a>`,
		clean(link))
}
