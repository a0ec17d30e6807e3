package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joelkehle/circuit-architect/internal/catalog"
)

func newCatalogCmd(opts *rootOptions) *cobra.Command {
	var category, format string
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Print the module catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := opts.loadCatalog()
			if err != nil {
				return err
			}
			modules := cat.Modules()
			if category != "" {
				modules = cat.ByCategory(catalog.ParseCategory(category))
			}
			switch format {
			case "json":
				return writeIndentedJSON(cmd.OutOrStdout(), map[string]any{"modules": modules})
			case "yaml":
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(map[string]any{"modules": modules}); err != nil {
					return err
				}
				return enc.Close()
			default:
				return fmt.Errorf("unknown format %q", format)
			}
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only modules of this category")
	cmd.Flags().StringVar(&format, "format", "yaml", "output format: yaml or json")
	return cmd
}
