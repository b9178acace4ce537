package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/worldofchami/paychat/pkg/assistant"
	"github.com/worldofchami/paychat/pkg/llm"
)

func promptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prompt",
		Short: "Print the system prompt built from the current catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, products, err := setup(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), assistant.SystemPrompt(products, cfg.PayPal.AccountEmail))
			return nil
		},
	}
}

func askCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask [message]",
		Short: "Run one chat turn end to end, including any payment it triggers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, products, err := setup(cmd)
			if err != nil {
				return err
			}
			if err := cfg.RequireOpenAI(); err != nil {
				return err
			}
			gateway, err := newGateway(cfg, products)
			if err != nil {
				return err
			}

			logger := newLogger(cfg)
			model, err := llm.NewOpenAI(llm.Config{
				APIKey:  cfg.OpenAI.APIKey,
				BaseURL: cfg.OpenAI.BaseURL,
				Model:   cfg.OpenAI.Model,
				Timeout: cfg.OpenAI.Timeout,
			}, logger.Named("llm"))
			if err != nil {
				return err
			}

			dispatcher := assistant.NewDispatcher(products, gateway,
				assistant.WithLocation(cfg.Display.Location),
				assistant.WithDispatcherLogger(logger.Named("dispatcher")),
			)
			reply, err := assistant.New(model, dispatcher, products, cfg.PayPal.AccountEmail, logger).
				Reply(cmd.Context(), args[0], nil)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), reply)
			return nil
		},
	}
}
