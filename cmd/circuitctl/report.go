package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/joelkehle/circuit-architect/internal/report"
	"github.com/joelkehle/circuit-architect/internal/solution"
)

func newReportCmd() *cobra.Command {
	var format, output, pageName string
	cmd := &cobra.Command{
		Use:   "report <solution.json>",
		Short: "Render a normalized solution as Markdown, HTML or PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			blob, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var sol solution.DesignSolution
			if err := json.Unmarshal(blob, &sol); err != nil {
				return fmt.Errorf("decode %s: %w", args[0], err)
			}

			var body []byte
			switch format {
			case "md", "markdown":
				body = []byte(report.Markdown(sol))
			case "html":
				doc, err := report.Document(sol)
				if err != nil {
					return err
				}
				body = []byte(doc)
			case "pdf":
				if output == "" {
					return fmt.Errorf("pdf output requires --output")
				}
				size, err := report.ParsePageSize(pageName)
				if err != nil {
					return err
				}
				body, err = report.NewPDFRenderer(report.WithPageSize(size)).Render(cmd.Context(), sol)
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown format %q", format)
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				return os.WriteFile(output, body, 0o644)
			}
			_, err = w.Write(body)
			return err
		},
	}
	cmd.Flags().StringVar(&format, "format", "md", "md, html or pdf")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().StringVar(&pageName, "page", "a4", "pdf paper size: a4 or letter")
	return cmd
}
