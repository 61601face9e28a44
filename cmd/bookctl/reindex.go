package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newReindexCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the duplicate-candidate search index",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			start := time.Now()
			count, err := a.catalog.ReindexAll(cmd.Context())
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), describeError(err))
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOut {
				return printJSON(out, map[string]any{
					"documents":   count,
					"duration_ms": time.Since(start).Milliseconds(),
				})
			}
			fmt.Fprintf(out, "%s indexed %d books in %v\n", green("✓"), count, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
}
