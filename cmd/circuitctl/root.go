package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/joelkehle/circuit-architect/internal/catalog"
)

type rootOptions struct {
	catalogFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "circuitctl",
		Short:         "Validate circuit topologies and normalize model-generated design solutions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.catalogFile, "catalog", "", "YAML file with catalog module overrides")

	cmd.AddCommand(
		newValidateCmd(opts),
		newNormalizeCmd(),
		newCatalogCmd(opts),
		newReportCmd(),
	)
	return cmd
}

func (o *rootOptions) loadCatalog() (*catalog.Catalog, error) {
	return catalog.LoadFile(o.catalogFile)
}

func writeIndentedJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
