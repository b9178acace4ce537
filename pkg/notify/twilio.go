// Package notify sends payment receipts over Twilio.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"

	"github.com/worldofchami/paychat/pkg/observability"
)

// maxBodyLength is Twilio's per-message character limit.
const maxBodyLength = 1600

var ErrNotConfigured = errors.New("notify: twilio is not configured")

type Config struct {
	AccountSID  string
	AuthToken   string
	FromNumber  string
	ReceiptTo   string
	UseWhatsApp bool
}

func (c Config) Enabled() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.FromNumber != "" && c.ReceiptTo != ""
}

// sendFunc delivers a single message. It wraps the Twilio REST client so
// tests can substitute it.
type sendFunc func(to, from, body string) error

// Twilio sends receipts to one fixed recipient.
type Twilio struct {
	send   sendFunc
	from   string
	to     string
	logger *zap.Logger
}

// NewTwilio returns ErrNotConfigured unless every credential and both numbers
// are set.
func NewTwilio(cfg Config, logger *zap.Logger) (*Twilio, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	send := func(to, from, body string) error {
		params := &openapi.CreateMessageParams{
			To:   &to,
			From: &from,
			Body: &body,
		}
		_, err := client.Api.CreateMessage(params)
		return err
	}
	return newTwilio(cfg, send, logger), nil
}

func newTwilio(cfg Config, send sendFunc, logger *zap.Logger) *Twilio {
	return &Twilio{
		send:   send,
		from:   formatPhoneNumber(cfg.FromNumber, cfg.UseWhatsApp),
		to:     formatPhoneNumber(cfg.ReceiptTo, cfg.UseWhatsApp),
		logger: observability.OrNop(logger),
	}
}

// Notify sends message to the receipt number. Bodies over the Twilio limit
// are truncated.
func (t *Twilio) Notify(ctx context.Context, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if runes := []rune(message); len(runes) > maxBodyLength {
		t.logger.Warn("receipt truncated", zap.Int("length", len(runes)))
		message = string(runes[:maxBodyLength-3]) + "..."
	}

	if err := t.send(t.to, t.from, message); err != nil {
		return fmt.Errorf("notify: send receipt: %w", err)
	}
	t.logger.Info("receipt sent", zap.String("to", t.to), zap.Int("length", len(message)))
	return nil
}

// formatPhoneNumber normalises to E.164 and adds the whatsapp: channel prefix
// when requested.
func formatPhoneNumber(phone string, whatsapp bool) string {
	phone = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(phone), "whatsapp:"))

	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' || r == '+' {
			b.WriteRune(r)
		}
	}
	phone = b.String()

	if !strings.HasPrefix(phone, "+") {
		phone = "+" + phone
	}
	if whatsapp {
		phone = "whatsapp:" + phone
	}
	return phone
}
