package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/listenupapp/bookid-server/internal/domain"
	"github.com/listenupapp/bookid-server/internal/service"
)

func newMergeCmd(opts *globalOptions) *cobra.Command {
	var (
		actor        string
		reason       string
		syncMetadata bool
		dryRun       bool
	)

	cmd := &cobra.Command{
		Use:   "merge FROM_BOOK TO_BOOK",
		Short: "Merge a duplicate book into a canonical one",
		Long: `Retire FROM_BOOK into TO_BOOK. ISBNs, edition preferences and references
move to the target and FROM_BOOK becomes a redirect. Use --dry-run to preview.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			rec, err := a.merges.Merge(cmd.Context(), actor, service.MergeRequest{
				FromBookID:   args[0],
				ToBookID:     args[1],
				SyncMetadata: syncMetadata,
				Reason:       reason,
				DryRun:       dryRun,
			})
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), describeError(err))
				return err
			}

			if opts.jsonOut {
				return printJSON(cmd.OutOrStdout(), rec)
			}
			printMerge(cmd.OutOrStdout(), rec)
			return nil
		},
	}

	cmd.Flags().StringVar(&actor, "actor", "bookctl", "Actor recorded in the merge audit trail")
	cmd.Flags().StringVar(&reason, "reason", "", "Audit note")
	cmd.Flags().BoolVar(&syncMetadata, "sync-metadata", false, "Fill empty target fields from the source")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would happen without changing anything")

	return cmd
}

func printMerge(w io.Writer, rec *domain.MergeRecord) {
	title := "=== Merge ==="
	if rec.DryRun {
		title = "=== Merge (dry run) ==="
	}
	fmt.Fprintf(w, "%s\n", cyan(title))
	fmt.Fprintf(w, "  %s → %s\n", yellow(rec.FromBookID), green(rec.ToBookID))
	if rec.ID != "" {
		fmt.Fprintf(w, "  Merge ID:            %s\n", rec.ID)
	}
	fmt.Fprintf(w, "  Moved ISBNs:         %s\n", orDash(strings.Join(rec.MovedISBNs, ", ")))
	fmt.Fprintf(w, "  Dropped ISBNs:       %s\n", orDash(strings.Join(rec.DroppedISBNs, ", ")))
	fmt.Fprintf(w, "  Preferences moved:   %d\n", rec.PreferencesMoved)
	fmt.Fprintf(w, "  Preferences cleared: %d\n", rec.PreferencesCleared)
	fmt.Fprintf(w, "  Redirects flattened: %d\n", rec.RedirectsFlattened)
	if rec.MetadataSynced {
		fmt.Fprintf(w, "  Synced fields:       %s\n", orDash(strings.Join(rec.SyncedFields, ", ")))
	}
	for _, table := range slices.Sorted(maps.Keys(rec.Repointed)) {
		fmt.Fprintf(w, "  Repointed %-10s %d\n", table+":", rec.Repointed[table])
	}
	fmt.Fprintf(w, "  Group:               %s\n", orDash(rec.GID))
}
