// Package config reads runtime settings from the environment and an optional
// .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAddr          = ":3000"
	defaultStaticDir     = "./public"
	defaultCatalogPath   = "data/products.json"
	defaultPayPalAPI     = "https://api-m.sandbox.paypal.com"
	defaultAccountEmail  = "sb-yghbo43203573@personal.example.com"
	defaultReturnURL     = "https://example.com/success"
	defaultCancelURL     = "https://example.com/cancel"
	defaultPayPalTimeout = 15 * time.Second
	defaultModel         = "gpt-4o"
	defaultModelTimeout  = 60 * time.Second
	defaultMaxBodyBytes  = 1 << 20
	defaultTimezone      = "UTC"
)

// Config groups all runtime configuration by concern.
type Config struct {
	Server   ServerConfig
	PayPal   PayPalConfig
	OpenAI   OpenAIConfig
	Catalog  CatalogConfig
	Twilio   TwilioConfig
	Display  DisplayConfig
	LogLevel string
}

type ServerConfig struct {
	Addr         string
	StaticDir    string
	MaxBodyBytes int64
}

type PayPalConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	// VaultedToken is the stored billing agreement charged by pay-now orders.
	VaultedToken string
	// AccountEmail is the buyer identity the assistant is told it already knows.
	AccountEmail string
	ReturnURL    string
	CancelURL    string
	Timeout      time.Duration
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

type CatalogConfig struct {
	Path   string
	DBPath string
}

type TwilioConfig struct {
	AccountSID  string
	AuthToken   string
	PhoneNumber string
	ReceiptTo   string
	// WhatsApp sends receipts on the whatsapp: channel instead of SMS.
	WhatsApp bool
}

// Enabled reports whether every setting needed to send receipts is present.
func (t TwilioConfig) Enabled() bool {
	return t.AccountSID != "" && t.AuthToken != "" && t.PhoneNumber != "" && t.ReceiptTo != ""
}

type DisplayConfig struct {
	Location *time.Location
}

// Load reads .env files (missing files are ignored) and then the process
// environment. Only malformed values fail here; use RequirePayPal and
// RequireOpenAI to check credentials for the commands that need them.
func Load(envFiles ...string) (Config, error) {
	_ = godotenv.Load(envFiles...)

	var errs []error

	payPalTimeout, err := durationEnv("PAYPAL_TIMEOUT", defaultPayPalTimeout)
	errs = append(errs, err)
	modelTimeout, err := durationEnv("OPENAI_TIMEOUT", defaultModelTimeout)
	errs = append(errs, err)
	whatsApp, err := boolEnv("TWILIO_WHATSAPP", true)
	errs = append(errs, err)

	tzName := getEnv("DISPLAY_TIMEZONE", defaultTimezone)
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		errs = append(errs, fmt.Errorf("config: DISPLAY_TIMEZONE %q: %w", tzName, err))
		loc = time.UTC
	}

	cfg := Config{
		Server: ServerConfig{
			Addr:         getEnv("CHAT_SERVER_ADDR", defaultAddr),
			StaticDir:    getEnv("STATIC_DIR", defaultStaticDir),
			MaxBodyBytes: defaultMaxBodyBytes,
		},
		PayPal: PayPalConfig{
			BaseURL:      strings.TrimRight(getEnv("PAYPAL_API", defaultPayPalAPI), "/"),
			ClientID:     firstEnv("PAYPAL_CLIENT_ID", "CLIENT_ID"),
			ClientSecret: firstEnv("PAYPAL_CLIENT_SECRET", "CLIENT_SECRET"),
			VaultedToken: getEnv("PAYPAL_VAULTED_PAYMENT_TOKEN", ""),
			AccountEmail: getEnv("PAYPAL_ACCOUNT_EMAIL", defaultAccountEmail),
			ReturnURL:    getEnv("PAYPAL_RETURN_URL", defaultReturnURL),
			CancelURL:    getEnv("PAYPAL_CANCEL_URL", defaultCancelURL),
			Timeout:      payPalTimeout,
		},
		OpenAI: OpenAIConfig{
			APIKey:  getEnv("OPENAI_API_KEY", ""),
			BaseURL: getEnv("OPENAI_BASE_URL", ""),
			Model:   getEnv("OPENAI_MODEL", defaultModel),
			Timeout: modelTimeout,
		},
		Catalog: CatalogConfig{
			Path:   getEnv("CATALOG_PATH", defaultCatalogPath),
			DBPath: getEnv("CATALOG_DB_PATH", ""),
		},
		Twilio: TwilioConfig{
			AccountSID:  getEnv("TWILIO_ACCOUNT_SID", ""),
			AuthToken:   getEnv("TWILIO_AUTH_TOKEN", ""),
			PhoneNumber: getEnv("TWILIO_PHONE_NUMBER", ""),
			ReceiptTo:   getEnv("RECEIPT_PHONE_NUMBER", ""),
			WhatsApp:    whatsApp,
		},
		Display:  DisplayConfig{Location: loc},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// RequirePayPal checks the credentials every gateway call needs.
func (c Config) RequirePayPal() error {
	var missing []string
	if c.PayPal.ClientID == "" {
		missing = append(missing, "PAYPAL_CLIENT_ID")
	}
	if c.PayPal.ClientSecret == "" {
		missing = append(missing, "PAYPAL_CLIENT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: %s must be set", strings.Join(missing, " and "))
	}
	return nil
}

// RequireOpenAI checks the model credentials.
func (c Config) RequireOpenAI() error {
	if c.OpenAI.APIKey == "" {
		return errors.New("config: OPENAI_API_KEY must be set")
	}
	return nil
}

// getEnv returns the value of the environment variable or a default.
func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := getEnv(k, ""); v != "" {
			return v
		}
	}
	return ""
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def, fmt.Errorf("config: %s: %w", key, err)
	}
	if d <= 0 {
		return def, fmt.Errorf("config: %s must be positive", key)
	}
	return d, nil
}

func boolEnv(key string, def bool) (bool, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return def, fmt.Errorf("config: %s: %w", key, err)
	}
	return b, nil
}
