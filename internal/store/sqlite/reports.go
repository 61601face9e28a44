package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/listenupapp/bookid-server/internal/domain"
	domainerrors "github.com/listenupapp/bookid-server/internal/errors"
	"github.com/listenupapp/bookid-server/internal/id"
	"github.com/listenupapp/bookid-server/internal/store"
)

const reportColumns = `id, reporter_id, book_id, reason, status, created_at,
	resolved_at, resolved_by, resolution, merge_id`

func scanReport(scanner interface{ Scan(dest ...any) error }) (*domain.DuplicateReport, error) {
	var r domain.DuplicateReport

	var (
		status     string
		createdAt  string
		resolvedAt sql.NullString
		resolvedBy sql.NullString
		mergeID    sql.NullString
	)

	err := scanner.Scan(
		&r.ID,
		&r.ReporterID,
		&r.BookID,
		&r.Reason,
		&status,
		&createdAt,
		&resolvedAt,
		&resolvedBy,
		&r.Resolution,
		&mergeID,
	)
	if err != nil {
		return nil, err
	}

	r.Status = domain.ReportStatus(status)
	r.ResolvedBy = resolvedBy.String
	r.MergeID = mergeID.String

	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if r.ResolvedAt, err = parseNullableTime(resolvedAt); err != nil {
		return nil, fmt.Errorf("parse resolved_at: %w", err)
	}
	return &r, nil
}

// CreateReport inserts a pending duplicate report against an existing book.
// Nothing is written when the book does not exist.
func (s *Store) CreateReport(ctx context.Context, report *domain.DuplicateReport) error {
	if report.ID == "" {
		generated, err := id.Generate(id.PrefixReport)
		if err != nil {
			return err
		}
		report.ID = generated
	}
	report.Status = domain.ReportPending
	report.CreatedAt = now()

	// INSERT ... SELECT writes nothing when the book does not exist.
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO duplicate_reports (id, reporter_id, book_id, reason, status, created_at)
		SELECT ?, ?, id, ?, ?, ? FROM books WHERE id = ?`,
		report.ID,
		report.ReporterID,
		report.Reason,
		string(report.Status),
		formatTime(report.CreatedAt),
		report.BookID,
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return domainerrors.BookNotFoundf("book %s not found", report.BookID)
	}
	return nil
}

// GetReport retrieves a duplicate report by ID.
func (s *Store) GetReport(ctx context.Context, reportID string) (*domain.DuplicateReport, error) {
	return getReport(ctx, s.db, reportID)
}

func getReport(ctx context.Context, q store.Execer, reportID string) (*domain.DuplicateReport, error) {
	row := q.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM duplicate_reports WHERE id = ?`, reportID)
	r, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainerrors.ErrReportNotFound.WithDetails(map[string]string{"report_id": reportID})
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ListReports pages through reports oldest first. An empty status lists all.
func (s *Store) ListReports(ctx context.Context, status domain.ReportStatus, params store.PaginationParams) (*store.PaginatedResult[*domain.DuplicateReport], error) {
	params.Validate()

	cursorTime, cursorID, err := store.DecodeCursor(params.Cursor)
	if err != nil {
		return nil, domainerrors.Validation(err.Error())
	}

	where := `WHERE (? = '' OR status = ?)`
	args := []any{string(status), string(status)}

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM duplicate_reports `+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	if cursorID != "" {
		where += ` AND (created_at > ? OR (created_at = ? AND id > ?))`
		args = append(args, cursorTime, cursorTime, cursorID)
	}
	args = append(args, params.Limit+1)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+reportColumns+` FROM duplicate_reports `+where+`
		ORDER BY created_at ASC, id ASC LIMIT ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []*domain.DuplicateReport
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return store.Paginate(reports, params.Limit, total, func(r *domain.DuplicateReport) (string, string) {
		return formatTime(r.CreatedAt), r.ID
	}), nil
}

// CloseReport moves a pending report to status.
func (s *Store) CloseReport(ctx context.Context, reportID string, status domain.ReportStatus, actorID, resolution string) (*domain.DuplicateReport, error) {
	var closed *domain.DuplicateReport
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		r, err := closeReport(ctx, tx, reportID, status, actorID, resolution, "")
		closed = r
		return err
	})
	if err != nil {
		return nil, err
	}
	return closed, nil
}

// closeReport transitions a pending report inside q. Closed reports fail with
// ReportClosed.
func closeReport(ctx context.Context, q store.Execer, reportID string, status domain.ReportStatus, actorID, resolution, mergeID string) (*domain.DuplicateReport, error) {
	if status == domain.ReportPending || !status.Valid() {
		return nil, domainerrors.Validationf("cannot close a report as %q", status)
	}

	r, err := getReport(ctx, q, reportID)
	if err != nil {
		return nil, err
	}
	if !r.IsOpen() {
		return nil, domainerrors.ErrReportClosed.WithDetails(map[string]string{
			"report_id": reportID,
			"status":    string(r.Status),
		})
	}

	resolvedAt := now()
	res, err := q.ExecContext(ctx, `
		UPDATE duplicate_reports
		SET status = ?, resolved_at = ?, resolved_by = ?, resolution = ?, merge_id = ?
		WHERE id = ? AND status = 'pending'`,
		string(status), formatTime(resolvedAt), actorID, resolution, nullString(mergeID), reportID)
	if err != nil {
		return nil, fmt.Errorf("close report: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, domainerrors.ErrReportClosed.WithDetails(map[string]string{"report_id": reportID})
	}

	r.Status = status
	r.ResolvedAt = &resolvedAt
	r.ResolvedBy = actorID
	r.Resolution = resolution
	r.MergeID = mergeID
	return r, nil
}

// resolveReportsForMerge closes every pending report against a retired book.
func resolveReportsForMerge(ctx context.Context, q store.Execer, fromID, toID, actorID, mergeID string) (int, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE duplicate_reports
		SET status = 'resolved', resolved_at = ?, resolved_by = ?, resolution = ?, merge_id = ?
		WHERE book_id = ? AND status = 'pending'`,
		formatTime(now()), actorID, "merged into "+toID, mergeID, fromID)
	if err != nil {
		return 0, fmt.Errorf("resolve reports: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}
