package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/listenupapp/bookid-server/internal/domain"
	domainerrors "github.com/listenupapp/bookid-server/internal/errors"
	"github.com/listenupapp/bookid-server/internal/store"
)

func countReports(t *testing.T, s *Store) int {
	t.Helper()
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM duplicate_reports`).Scan(&n); err != nil {
		t.Fatalf("count reports: %v", err)
	}
	return n
}

func TestCreateReport(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestBook(t, s, "book-80", "Eighty")

	r := &domain.DuplicateReport{ReporterID: "user-3", BookID: "book-80", Reason: "same as #81"}
	if err := s.CreateReport(ctx, r); err != nil {
		t.Fatalf("CreateReport: %v", err)
	}
	if r.ID == "" {
		t.Fatal("report ID not generated")
	}

	got, err := s.GetReport(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if got.Status != domain.ReportPending || got.Reason != "same as #81" || got.ReporterID != "user-3" {
		t.Errorf("report = %+v", got)
	}
	if got.ResolvedAt != nil {
		t.Error("pending report has ResolvedAt")
	}
}

func TestCreateReport_MissingBook(t *testing.T) {
	s := newTestStore(t)

	err := s.CreateReport(context.Background(), &domain.DuplicateReport{
		ReporterID: "user-3", BookID: "book-77", Reason: "same as #80",
	})
	if !errors.Is(err, domainerrors.ErrBookNotFound) {
		t.Fatalf("expected ErrBookNotFound, got %v", err)
	}
	if n := countReports(t, s); n != 0 {
		t.Errorf("expected no report rows, got %d", n)
	}
}

func TestGetReport_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetReport(context.Background(), "report-missing")
	if !errors.Is(err, domainerrors.ErrReportNotFound) {
		t.Fatalf("expected ErrReportNotFound, got %v", err)
	}
}

func TestCloseReport(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestBook(t, s, "book-1", "One")

	r := &domain.DuplicateReport{ReporterID: "user-1", BookID: "book-1"}
	if err := s.CreateReport(ctx, r); err != nil {
		t.Fatalf("CreateReport: %v", err)
	}

	closed, err := s.CloseReport(ctx, r.ID, domain.ReportRejected, "mod-1", "not a duplicate")
	if err != nil {
		t.Fatalf("CloseReport: %v", err)
	}
	if closed.Status != domain.ReportRejected || closed.ResolvedBy != "mod-1" || closed.ResolvedAt == nil {
		t.Errorf("closed = %+v", closed)
	}

	_, err = s.CloseReport(ctx, r.ID, domain.ReportResolved, "mod-2", "")
	if !errors.Is(err, domainerrors.ErrReportClosed) {
		t.Fatalf("expected ErrReportClosed, got %v", err)
	}

	got, err := s.GetReport(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if got.Status != domain.ReportRejected || got.ResolvedBy != "mod-1" {
		t.Errorf("second close changed the report: %+v", got)
	}
}

func TestCloseReport_InvalidStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestBook(t, s, "book-1", "One")
	r := &domain.DuplicateReport{ReporterID: "user-1", BookID: "book-1"}
	if err := s.CreateReport(ctx, r); err != nil {
		t.Fatalf("CreateReport: %v", err)
	}

	for _, status := range []domain.ReportStatus{domain.ReportPending, "bogus"} {
		_, err := s.CloseReport(ctx, r.ID, status, "mod-1", "")
		if !errors.Is(err, domainerrors.ErrValidation) {
			t.Errorf("status %q: expected ErrValidation, got %v", status, err)
		}
	}
}

func TestListReports(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestBook(t, s, "book-1", "One")

	var ids []string
	for range 3 {
		r := &domain.DuplicateReport{ReporterID: "user-1", BookID: "book-1"}
		if err := s.CreateReport(ctx, r); err != nil {
			t.Fatalf("CreateReport: %v", err)
		}
		ids = append(ids, r.ID)
	}
	if _, err := s.CloseReport(ctx, ids[0], domain.ReportResolved, "mod-1", ""); err != nil {
		t.Fatalf("CloseReport: %v", err)
	}

	pending, err := s.ListReports(ctx, domain.ReportPending, store.DefaultPaginationParams())
	if err != nil {
		t.Fatalf("ListReports(pending): %v", err)
	}
	if pending.Total != 2 || len(pending.Items) != 2 {
		t.Errorf("pending: total %d, items %d", pending.Total, len(pending.Items))
	}

	all, err := s.ListReports(ctx, "", store.PaginationParams{Limit: 2})
	if err != nil {
		t.Fatalf("ListReports(all): %v", err)
	}
	if all.Total != 3 || len(all.Items) != 2 || !all.HasMore {
		t.Fatalf("all page 1: %+v", all)
	}
	if all.Items[0].ID != ids[0] {
		t.Errorf("oldest first: got %s, want %s", all.Items[0].ID, ids[0])
	}

	next, err := s.ListReports(ctx, "", store.PaginationParams{Limit: 2, Cursor: all.NextCursor})
	if err != nil {
		t.Fatalf("ListReports(page 2): %v", err)
	}
	if len(next.Items) != 1 || next.HasMore || next.Items[0].ID != ids[2] {
		t.Errorf("page 2: %+v", next.Items)
	}
}

func TestMerge_ResolvesPendingReports(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestBook(t, s, "book-a", "A")
	insertTestBook(t, s, "book-b", "B")

	onFrom := &domain.DuplicateReport{ReporterID: "user-1", BookID: "book-a"}
	onTo := &domain.DuplicateReport{ReporterID: "user-2", BookID: "book-b"}
	for _, r := range []*domain.DuplicateReport{onFrom, onTo} {
		if err := s.CreateReport(ctx, r); err != nil {
			t.Fatalf("CreateReport: %v", err)
		}
	}

	rec, err := s.Merge(ctx, domain.MergeRequest{
		FromBookID: "book-a", ToBookID: "book-b", ActorID: "mod-1", ReportID: onTo.ID,
	})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}

	for _, r := range []*domain.DuplicateReport{onFrom, onTo} {
		got, err := s.GetReport(ctx, r.ID)
		if err != nil {
			t.Fatalf("GetReport: %v", err)
		}
		if got.Status != domain.ReportResolved {
			t.Errorf("report %s status = %s, want resolved", r.ID, got.Status)
		}
		if got.MergeID != rec.ID {
			t.Errorf("report %s merge id = %q, want %q", r.ID, got.MergeID, rec.ID)
		}
	}
}

func TestMerge_ClosedReportAbortsMerge(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestBook(t, s, "book-a", "A")
	insertTestBook(t, s, "book-b", "B")

	r := &domain.DuplicateReport{ReporterID: "user-1", BookID: "book-a"}
	if err := s.CreateReport(ctx, r); err != nil {
		t.Fatalf("CreateReport: %v", err)
	}
	if _, err := s.CloseReport(ctx, r.ID, domain.ReportRejected, "mod-1", ""); err != nil {
		t.Fatalf("CloseReport: %v", err)
	}

	_, err := s.Merge(ctx, domain.MergeRequest{
		FromBookID: "book-a", ToBookID: "book-b", ActorID: "mod-1", ReportID: r.ID,
	})
	if !errors.Is(err, domainerrors.ErrReportClosed) {
		t.Fatalf("expected ErrReportClosed, got %v", err)
	}

	b, err := s.GetBook(ctx, "book-a")
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if b.IsRetired() {
		t.Error("book-a retired despite failed merge")
	}
}
