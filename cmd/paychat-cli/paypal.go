package main

import (
	"github.com/spf13/cobra"
)

func transactionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transactions",
		Short: "List the last month of PayPal transactions with matched product names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, products, err := setup(cmd)
			if err != nil {
				return err
			}
			gateway, err := newGateway(cfg, products)
			if err != nil {
				return err
			}
			records, err := gateway.FetchUserTransactions(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), records)
		},
	}
}

func refundCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refund [capture-id]",
		Short: "Refund the full amount of a capture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, products, err := setup(cmd)
			if err != nil {
				return err
			}
			gateway, err := newGateway(cfg, products)
			if err != nil {
				return err
			}
			refund, err := gateway.RefundTransaction(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), refund)
		},
	}
}
