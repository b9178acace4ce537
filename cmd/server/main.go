package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/worldofchami/paychat/pkg/assistant"
	"github.com/worldofchami/paychat/pkg/catalog"
	"github.com/worldofchami/paychat/pkg/config"
	"github.com/worldofchami/paychat/pkg/llm"
	"github.com/worldofchami/paychat/pkg/notify"
	"github.com/worldofchami/paychat/pkg/observability"
	"github.com/worldofchami/paychat/pkg/platforms/paypal"
	"github.com/worldofchami/paychat/pkg/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "chat server error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := errors.Join(cfg.RequirePayPal(), cfg.RequireOpenAI()); err != nil {
		return err
	}
	if cfg.PayPal.VaultedToken == "" {
		logger.Warn("PAYPAL_VAULTED_PAYMENT_TOKEN is not set; pay-now orders will be rejected by PayPal")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	products, err := catalog.Load(ctx, cfg.Catalog.Path, cfg.Catalog.DBPath)
	if err != nil {
		return err
	}
	logger.Info("catalog loaded", zap.Int("products", products.Len()))

	gateway, err := paypal.NewClient(paypal.Config{
		BaseURL:      cfg.PayPal.BaseURL,
		ClientID:     cfg.PayPal.ClientID,
		ClientSecret: cfg.PayPal.ClientSecret,
		VaultedToken: cfg.PayPal.VaultedToken,
		ReturnURL:    cfg.PayPal.ReturnURL,
		CancelURL:    cfg.PayPal.CancelURL,
		Timeout:      cfg.PayPal.Timeout,
	}, products, paypal.WithLogger(logger.Named("paypal")))
	if err != nil {
		return err
	}

	model, err := llm.NewOpenAI(llm.Config{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.Model,
		Timeout: cfg.OpenAI.Timeout,
	}, logger.Named("llm"))
	if err != nil {
		return err
	}

	opts := []assistant.DispatcherOption{
		assistant.WithLocation(cfg.Display.Location),
		assistant.WithDispatcherLogger(logger.Named("dispatcher")),
	}
	if cfg.Twilio.Enabled() {
		notifier, err := notify.NewTwilio(notify.Config{
			AccountSID:  cfg.Twilio.AccountSID,
			AuthToken:   cfg.Twilio.AuthToken,
			FromNumber:  cfg.Twilio.PhoneNumber,
			ReceiptTo:   cfg.Twilio.ReceiptTo,
			UseWhatsApp: cfg.Twilio.WhatsApp,
		}, logger.Named("notify"))
		if err != nil {
			return err
		}
		opts = append(opts, assistant.WithNotifier(notifier))
		logger.Info("twilio receipts enabled")
	} else {
		logger.Info("twilio receipts disabled (set TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN, TWILIO_PHONE_NUMBER, RECEIPT_PHONE_NUMBER)")
	}

	dispatcher := assistant.NewDispatcher(products, gateway, opts...)
	bot := assistant.New(model, dispatcher, products, cfg.PayPal.AccountEmail, logger.Named("assistant"))

	httpServer := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: server.NewRouter(server.Config{
			StaticDir:    cfg.Server.StaticDir,
			MaxBodyBytes: cfg.Server.MaxBodyBytes,
		}, bot, logger.Named("http")),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("chat server listening", zap.String("addr", cfg.Server.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
