package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lunajoyas/catalogo/app"
)

func newImportCmd(open func() (*app.App, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "import <seed.yaml>",
		Short: "Upsert categories, tags, products and settings from a YAML seed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read seed: %w", err)
			}

			application, err := open()
			if err != nil {
				return err
			}
			defer application.Close()

			result, err := application.Catalog.Import(cmd.Context(), content)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"imported %d products, %d categories, %d tags, %d collections, %d shipping options, %d payment methods\n",
				result.Products, result.Categories, result.Tags, result.Collections, result.ShippingOptions, result.PaymentMethods)
			return nil
		},
	}
}
