package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	domainerrors "github.com/listenupapp/bookid-server/internal/errors"
	"github.com/listenupapp/bookid-server/internal/service"
)

// importSummary counts the outcome of an import run.
type importSummary struct {
	Created    int      `json:"created"`
	Skipped    int      `json:"skipped"`
	ISBNsAdded int      `json:"isbns_added"`
	GroupsSet  int      `json:"groups_set"`
	Failures   []string `json:"failures,omitempty"`
}

func newImportCmd(opts *globalOptions) *cobra.Command {
	var skipExisting bool

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import books and ISBNs from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			//#nosec G304 -- Operator supplied import file
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			file, err := parseCatalog(f)
			if err != nil {
				return err
			}

			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			summary := runImport(cmd.Context(), a, file, skipExisting)

			out := cmd.OutOrStdout()
			if opts.jsonOut {
				return printJSON(out, summary)
			}

			fmt.Fprintf(out, "%s\n", cyan("=== Import ==="))
			fmt.Fprintf(out, "  Created:     %s\n", green(summary.Created))
			fmt.Fprintf(out, "  Skipped:     %s\n", yellow(summary.Skipped))
			fmt.Fprintf(out, "  ISBNs added: %d\n", summary.ISBNsAdded)
			fmt.Fprintf(out, "  Groups set:  %d\n", summary.GroupsSet)
			for _, f := range summary.Failures {
				fmt.Fprintf(out, "  %s %s\n", red("✗"), f)
			}
			if len(summary.Failures) > 0 {
				return fmt.Errorf("%d entries failed", len(summary.Failures))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipExisting, "skip-existing", false, "Skip books whose id already exists instead of failing")

	return cmd
}

// runImport creates each book, then attaches its ISBNs and group. A failed
// book does not stop the run.
func runImport(ctx context.Context, a *app, file *catalogFile, skipExisting bool) importSummary {
	var summary importSummary

	for i, b := range file.Books {
		label := b.ID
		if label == "" {
			label = fmt.Sprintf("books[%d]", i)
		}

		book, err := a.catalog.CreateBook(ctx, service.CreateBookRequest{
			ID:          b.ID,
			Title:       b.Title,
			Author:      b.Author,
			Description: b.Description,
			PageCount:   b.PageCount,
			PublishYear: b.PublishYear,
			CoverURL:    b.CoverURL,
		})
		if err != nil {
			if skipExisting && domainerrors.CodeOf(err) == domainerrors.CodeConflict {
				summary.Skipped++
				continue
			}
			summary.Failures = append(summary.Failures, fmt.Sprintf("%s: %s", label, describeError(err)))
			continue
		}
		summary.Created++

		for _, e := range b.ISBNs {
			_, err := a.editions.AddISBN(ctx, book.ID, service.AddISBNRequest{
				ISBN:      e.ISBN,
				Label:     e.Edition,
				Year:      e.Year,
				IsPrimary: e.Primary,
			})
			if err != nil {
				summary.Failures = append(summary.Failures, fmt.Sprintf("%s isbn %s: %s", label, e.ISBN, describeError(err)))
				continue
			}
			summary.ISBNsAdded++
		}

		if b.GID != "" {
			if _, err := a.groups.SetGroup(ctx, book.ID, b.GID); err != nil {
				summary.Failures = append(summary.Failures, fmt.Sprintf("%s gid: %s", label, describeError(err)))
				continue
			}
			summary.GroupsSet++
		}
	}

	return summary
}
