package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/listenupapp/bookid-server/internal/domain"
	"github.com/listenupapp/bookid-server/internal/service"
	"github.com/listenupapp/bookid-server/internal/store"
)

func newReportsCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Moderate duplicate reports",
	}

	cmd.AddCommand(newReportsListCmd(opts))
	cmd.AddCommand(newReportsResolveCmd(opts))

	return cmd
}

func newReportsListCmd(opts *globalOptions) *cobra.Command {
	var (
		status string
		limit  int
		cursor string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List duplicate reports, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			page, err := a.reports.ListReports(cmd.Context(), domain.ReportStatus(status), store.PaginationParams{
				Limit:  limit,
				Cursor: cursor,
			})
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), describeError(err))
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOut {
				return printJSON(out, page)
			}

			fmt.Fprintf(out, "%s\n", cyan("=== Duplicate Reports ==="))
			if len(page.Items) == 0 {
				fmt.Fprintf(out, "  %s\n", gray("No reports"))
				return nil
			}
			for _, r := range page.Items {
				printReport(out, r)
			}
			fmt.Fprintf(out, "\n%d of %d", len(page.Items), page.Total)
			if page.HasMore {
				fmt.Fprintf(out, ", next cursor %s", page.NextCursor)
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", string(domain.ReportPending), "Filter by status (pending, resolved, rejected; empty for all)")
	cmd.Flags().IntVar(&limit, "limit", 50, "Reports per page")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor")

	return cmd
}

func newReportsResolveCmd(opts *globalOptions) *cobra.Command {
	var (
		actor        string
		action       string
		into         string
		note         string
		syncMetadata bool
	)

	cmd := &cobra.Command{
		Use:   "resolve REPORT_ID",
		Short: "Reject, resolve or merge a pending report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.reports.ResolveReport(cmd.Context(), args[0], actor, service.ResolveReportRequest{
				Action:       domain.ReportAction(action),
				IntoBookID:   into,
				Note:         note,
				SyncMetadata: syncMetadata,
			})
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), describeError(err))
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOut {
				return printJSON(out, result)
			}
			printReport(out, result.Report)
			if result.Merge != nil {
				printMerge(out, result.Merge)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&actor, "actor", "bookctl", "Moderator recorded on the report")
	cmd.Flags().StringVar(&action, "action", "", "reject, resolve or merge")
	cmd.Flags().StringVar(&into, "into", "", "Canonical book for the merge action")
	cmd.Flags().StringVar(&note, "note", "", "Resolution note")
	cmd.Flags().BoolVar(&syncMetadata, "sync-metadata", false, "Fill empty target fields when merging")
	_ = cmd.MarkFlagRequired("action")

	return cmd
}

func printReport(w io.Writer, r *domain.DuplicateReport) {
	statusColor := gray
	icon := "○"
	switch r.Status {
	case domain.ReportPending:
		statusColor = yellow
		icon = "●"
	case domain.ReportResolved:
		statusColor = green
		icon = "✓"
	case domain.ReportRejected:
		statusColor = red
		icon = "✗"
	}

	fmt.Fprintf(w, "  %s %s %s\n", statusColor(icon), r.ID, statusColor(string(r.Status)))
	fmt.Fprintf(w, "    Book:     %s\n", r.BookID)
	fmt.Fprintf(w, "    Reporter: %s\n", r.ReporterID)
	fmt.Fprintf(w, "    Created:  %s\n", r.CreatedAt.Format("2006-01-02 15:04:05"))
	if r.Reason != "" {
		fmt.Fprintf(w, "    Reason:   %s\n", r.Reason)
	}
	if r.ResolvedAt != nil {
		fmt.Fprintf(w, "    Closed:   %s by %s\n", r.ResolvedAt.Format("2006-01-02 15:04:05"), orDash(r.ResolvedBy))
	}
	if r.Resolution != "" {
		fmt.Fprintf(w, "    Note:     %s\n", r.Resolution)
	}
	if r.MergeID != "" {
		fmt.Fprintf(w, "    Merge:    %s\n", r.MergeID)
	}
}
