// Package assistant turns a chat turn into a model request, interprets the
// model's decision and executes at most one payment operation for it.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/worldofchami/paychat/pkg/models"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrInvalidRole is returned for history turns that are neither user nor assistant.
var ErrInvalidRole = errors.New("assistant: history role must be user or assistant")

// Message is one conversation turn as the chat widget sends it.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ToolSchema declares a callable operation to the model.
type ToolSchema struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ModelRequest is everything the model sees for a single turn.
type ModelRequest struct {
	Messages []Message
	Tools    []ToolSchema
}

// RawToolCall is the first function call the model emitted, arguments unparsed.
type RawToolCall struct {
	Name      string
	Arguments string
}

// Decision is either free text or a tool call. ToolCall wins when set.
type Decision struct {
	Text     string
	ToolCall *RawToolCall
}

// Model is the language-model boundary.
type Model interface {
	Complete(ctx context.Context, req ModelRequest) (Decision, error)
}

// ValidateHistory checks the roles of caller-supplied turns. Content is
// trusted verbatim.
func ValidateHistory(history []Message) error {
	for i, m := range history {
		if m.Role != RoleUser && m.Role != RoleAssistant {
			return fmt.Errorf("%w: turn %d has role %q", ErrInvalidRole, i, m.Role)
		}
	}
	return nil
}

const productCardHTML = `<div class="product">
  <img src="[IMAGE_URL]" alt="[PRODUCT_NAME]" />
  <div class="info">
    <h4>[PRODUCT_NAME]</h4>
    <p>Price: $[PRICE]</p>
  </div>
</div>`

// SystemPrompt renders the persona and the catalog the model may sell from.
func SystemPrompt(catalog *models.Catalog, account string) string {
	var b strings.Builder
	b.WriteString("You are a helpful shopping assistant. ONLY recommend products from the list below. Do NOT invent new products.\n\n")
	fmt.Fprintf(&b, "You already know the user's PayPal account is %s. Do not ask them for it.\n\n", account)
	b.WriteString("Always explain why you're recommending the product based on the user's need. Then show the product in HTML format using this structure:\n\n")
	b.WriteString(productCardHTML)
	b.WriteString("\n\nAfter showing a product, always ask: “Would you like to buy this?”\n\n")
	b.WriteString("If the user says yes, ask: “Would you like to pay now with your saved PayPal account, or receive a PayPal link to pay now?”\n\n")
	b.WriteString("Here are the ONLY products you may offer:\n")

	lines := make([]string, 0, catalog.Len())
	for _, p := range catalog.Products() {
		lines = append(lines, fmt.Sprintf("%s - $%s - %s", p.Name, p.DisplayPrice(), p.Image))
	}
	b.WriteString(strings.Join(lines, "\n"))
	return b.String()
}

// BuildRequest assembles system prompt, history and the new user message in
// that order, together with the declared tools.
func BuildRequest(catalog *models.Catalog, account string, history []Message, message string) ModelRequest {
	msgs := make([]Message, 0, len(history)+2)
	msgs = append(msgs, Message{Role: RoleSystem, Content: SystemPrompt(catalog, account)})
	msgs = append(msgs, history...)
	msgs = append(msgs, Message{Role: RoleUser, Content: message})
	return ModelRequest{Messages: msgs, Tools: ToolSchemas()}
}

// ToolSchemas lists the four operations the model may request.
func ToolSchemas() []ToolSchema {
	return []ToolSchema{
		{
			Name:        string(KindRefund),
			Description: "Processes a refund for a PayPal transaction using the capture ID.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"capture_id": map[string]any{"type": "string"},
				},
				"required": []string{"capture_id"},
			},
		},
		{
			Name:        string(KindCreateAndCapture),
			Description: "Captures a PayPal order immediately using saved (vaulted) payment information.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"product":        map[string]any{"type": "string"},
					"price":          map[string]any{"type": "number"},
					"payment_method": map[string]any{"type": "string", "enum": []string{"vaulted"}},
				},
				"required": []string{"product", "price", "payment_method"},
			},
		},
		{
			Name:        string(KindCreateInvoice),
			Description: "Creates a PayPal order and returns an approval link, simulating an invoice.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"product": map[string]any{"type": "string"},
					"price":   map[string]any{"type": "number"},
				},
				"required": []string{"product", "price"},
			},
		},
		{
			Name:        string(KindFetchTransactions),
			Description: "Returns the last few PayPal transactions for the sandbox user.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
				"required":   []string{},
			},
		},
	}
}
