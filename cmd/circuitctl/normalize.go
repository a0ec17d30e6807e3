package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/joelkehle/circuit-architect/internal/llmjson"
	"github.com/joelkehle/circuit-architect/internal/solution"
)

type normalizedFile struct {
	File      string                    `json:"file"`
	Solutions []solution.DesignSolution `json:"solutions"`
}

func newNormalizeCmd() *cobra.Command {
	var assumptions []string
	var parallel int
	cmd := &cobra.Command{
		Use:   "normalize <response.txt>...",
		Short: "Extract, repair and normalize raw model responses",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := normalizeFiles(cmd.Context(), args, assumptions, parallel, time.Now().UTC())
			if err != nil {
				return err
			}
			return writeIndentedJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringArrayVarP(&assumptions, "assumption", "a", nil, "fallback assumption for solutions without their own (repeatable)")
	cmd.Flags().IntVar(&parallel, "parallel", 4, "files processed concurrently")
	return cmd
}

// normalizeFiles keeps results in argument order; the first failure cancels
// the remaining files.
func normalizeFiles(ctx context.Context, paths, assumptions []string, parallel int, ts time.Time) ([]normalizedFile, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if parallel < 1 {
		parallel = 1
	}
	out := make([]normalizedFile, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			blob, err := os.ReadFile(p)
			if err != nil {
				return err
			}
			raw, err := llmjson.Decode(string(blob))
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			out[i] = normalizedFile{File: p, Solutions: solution.NormalizeBatch(raw, assumptions, ts)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
