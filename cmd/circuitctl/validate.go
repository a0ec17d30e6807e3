package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joelkehle/circuit-architect/internal/topology"
)

func newValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <topology.json>",
		Short: "Check every connection of a topology against the module catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := opts.loadCatalog()
			if err != nil {
				return err
			}
			blob, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var t topology.Topology
			if err := json.Unmarshal(blob, &t); err != nil {
				return fmt.Errorf("decode %s: %w", args[0], err)
			}
			issues := topology.Validate(t, cat)
			sum := topology.Summarize(issues)
			if err := writeIndentedJSON(cmd.OutOrStdout(), map[string]any{"issues": issues, "summary": sum}); err != nil {
				return err
			}
			if sum.Errors > 0 {
				return fmt.Errorf("topology has %d error(s)", sum.Errors)
			}
			return nil
		},
	}
}
