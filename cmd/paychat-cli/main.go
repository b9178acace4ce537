package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/worldofchami/paychat/pkg/catalog"
	"github.com/worldofchami/paychat/pkg/config"
	"github.com/worldofchami/paychat/pkg/models"
	"github.com/worldofchami/paychat/pkg/observability"
	"github.com/worldofchami/paychat/pkg/platforms/paypal"
)

var Version = "dev"

// Operator CLI sharing the chat server's configuration.
//
// Examples:
//
//	go run ./cmd/paychat-cli catalog list
//	go run ./cmd/paychat-cli catalog import data/products.json --db catalog.db
//	go run ./cmd/paychat-cli transactions
//	go run ./cmd/paychat-cli refund 8MC585209K746392H
func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "paychat",
		Short:         "Operate the paychat shopping assistant",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file to load before the environment")

	rootCmd.AddCommand(catalogCmd())
	rootCmd.AddCommand(promptCmd())
	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(transactionsCmd())
	rootCmd.AddCommand(refundCmd())
	return rootCmd
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	return config.Load(envFile)
}

func loadCatalog(cmd *cobra.Command, cfg config.Config) (*models.Catalog, error) {
	return catalog.Load(cmd.Context(), cfg.Catalog.Path, cfg.Catalog.DBPath)
}

func newLogger(cfg config.Config) *zap.Logger {
	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// setup loads configuration and the catalog shared by every subcommand.
func setup(cmd *cobra.Command) (config.Config, *models.Catalog, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return config.Config{}, nil, err
	}
	products, err := loadCatalog(cmd, cfg)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, products, nil
}

func newGateway(cfg config.Config, products *models.Catalog) (*paypal.Client, error) {
	if err := cfg.RequirePayPal(); err != nil {
		return nil, err
	}
	return paypal.NewClient(paypal.Config{
		BaseURL:      cfg.PayPal.BaseURL,
		ClientID:     cfg.PayPal.ClientID,
		ClientSecret: cfg.PayPal.ClientSecret,
		VaultedToken: cfg.PayPal.VaultedToken,
		ReturnURL:    cfg.PayPal.ReturnURL,
		CancelURL:    cfg.PayPal.CancelURL,
		Timeout:      cfg.PayPal.Timeout,
	}, products, paypal.WithLogger(newLogger(cfg).Named("paypal")))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
