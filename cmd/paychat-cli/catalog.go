package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/worldofchami/paychat/pkg/catalog"
)

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect or import the product catalog",
	}
	cmd.AddCommand(catalogListCmd())
	cmd.AddCommand(catalogImportCmd())
	return cmd
}

func catalogListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the products the assistant may offer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, products, err := setup(cmd)
			if err != nil {
				return err
			}

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(cmd.OutOrStdout(), products.Products())
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tPRICE\tIMAGE")
			for _, p := range products.Products() {
				fmt.Fprintf(tw, "%s\t$%s\t%s\n", p.Name, p.Amount(), p.Image)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolP("json", "j", false, "Output as JSON")
	return cmd
}

func catalogImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [products.json]",
		Short: "Copy a JSON product list into a SQLite catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, _ := cmd.Flags().GetString("db")
			if dbPath == "" {
				return fmt.Errorf("--db is required")
			}

			products, err := catalog.LoadFile(args[0])
			if err != nil {
				return err
			}
			if err := catalog.Seed(cmd.Context(), dbPath, products.Products()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %d products into %s\n", products.Len(), dbPath)
			return nil
		},
	}
	cmd.Flags().String("db", "", "SQLite database path (set CATALOG_DB_PATH to serve from it)")
	return cmd
}
