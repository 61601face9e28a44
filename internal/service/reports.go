package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/listenupapp/bookid-server/internal/domain"
	domainerrors "github.com/listenupapp/bookid-server/internal/errors"
	"github.com/listenupapp/bookid-server/internal/ratelimit"
	"github.com/listenupapp/bookid-server/internal/search"
	"github.com/listenupapp/bookid-server/internal/sse"
	"github.com/listenupapp/bookid-server/internal/store"
	"github.com/listenupapp/bookid-server/internal/validation"
)

// MaxReportReason bounds the free-text reason of a duplicate report.
const MaxReportReason = 1000

// ResolveReportRequest is a moderator's decision on a report.
type ResolveReportRequest struct {
	Action       domain.ReportAction `json:"action" validate:"required,oneof=reject resolve merge"`
	IntoBookID   string              `json:"into_book_id,omitempty" validate:"required_if=Action merge"`
	Note         string              `json:"note,omitempty" validate:"max=1000"`
	SyncMetadata bool                `json:"sync_metadata,omitempty"`
}

// ResolveReportResult is the outcome of ResolveReport.
type ResolveReportResult struct {
	Report *domain.DuplicateReport `json:"report"`
	Merge  *domain.MergeRecord     `json:"merge,omitempty"`
}

// DuplicateCandidates is the advisory duplicate list for a book.
type DuplicateCandidates struct {
	BookID         string             `json:"book_id"`
	Candidates     []search.Candidate `json:"candidates"`
	ISBNCollisions []*domain.Edition  `json:"isbn_collisions"`
}

// ReportService handles duplicate reports and their moderation.
type ReportService struct {
	Deps
	validator *validation.Validator
	limiter   *ratelimit.KeyedRateLimiter
	merges    *MergeService
	searcher  CandidateSearcher
}

// NewReportService creates a new report service. A nil limiter disables
// throttling; a nil searcher returns only ISBN collisions as candidates.
func NewReportService(deps Deps, validator *validation.Validator, limiter *ratelimit.KeyedRateLimiter, merges *MergeService, searcher CandidateSearcher) *ReportService {
	return &ReportService{
		Deps:      deps.withDefaults(),
		validator: validator,
		limiter:   limiter,
		merges:    merges,
		searcher:  searcher,
	}
}

// ReportDuplicate files a pending report that a book duplicates another.
// Reports against a retired id are filed against its canonical book.
func (s *ReportService) ReportDuplicate(ctx context.Context, reporterID, bookID, reason string) (*domain.DuplicateReport, error) {
	reason = strings.TrimSpace(reason)
	if utf8.RuneCountInString(reason) > MaxReportReason {
		return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{
			"reason": "must not exceed 1000 characters",
		})
	}

	book, _, err := s.Store.ResolveBook(ctx, bookID)
	if err != nil {
		return nil, storageErr(err, "resolve book")
	}

	// Only reports that would be filed count against the reporter.
	if s.limiter != nil && !s.limiter.Allow(reporterID) {
		return nil, domainerrors.ErrRateLimited.WithDetails(map[string]string{"reporter_id": reporterID})
	}

	report := &domain.DuplicateReport{
		ReporterID: reporterID,
		BookID:     book.ID,
		Reason:     reason,
	}
	if err := s.Store.CreateReport(ctx, report); err != nil {
		return nil, storageErr(err, "create report")
	}

	s.Events.Emit(sse.NewReportCreatedEvent(report))
	s.Logger.Info("duplicate reported",
		"report_id", report.ID,
		"book_id", report.BookID,
		"reporter_id", reporterID)

	return report, nil
}

// ListReports pages through reports, optionally filtered by status.
func (s *ReportService) ListReports(ctx context.Context, status domain.ReportStatus, params store.PaginationParams) (*store.PaginatedResult[*domain.DuplicateReport], error) {
	if status != "" && !status.Valid() {
		return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{
			"status": "must be one of: pending resolved rejected",
		})
	}
	result, err := s.Store.ListReports(ctx, status, params)
	if err != nil {
		return nil, storageErr(err, "list reports")
	}
	return result, nil
}

// ResolveReport closes a pending report. The merge action merges the
// reported book into req.IntoBookID and resolves the report in the same
// transaction.
func (s *ReportService) ResolveReport(ctx context.Context, reportID, actorID string, req ResolveReportRequest) (*ResolveReportResult, error) {
	req.IntoBookID = strings.TrimSpace(req.IntoBookID)
	req.Note = strings.TrimSpace(req.Note)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var result ResolveReportResult
	switch req.Action {
	case domain.ActionReject, domain.ActionResolve:
		status := domain.ReportRejected
		if req.Action == domain.ActionResolve {
			status = domain.ReportResolved
		}
		report, err := s.Store.CloseReport(ctx, reportID, status, actorID, req.Note)
		if err != nil {
			return nil, storageErr(err, "close report")
		}
		result.Report = report

	case domain.ActionMerge:
		report, err := s.Store.GetReport(ctx, reportID)
		if err != nil {
			return nil, storageErr(err, "get report")
		}
		if !report.IsOpen() {
			return nil, domainerrors.ErrReportClosed.WithDetails(map[string]string{
				"report_id": reportID,
				"status":    string(report.Status),
			})
		}

		reason := req.Note
		if reason == "" {
			reason = report.Reason
		}
		rec, err := s.merges.merge(ctx, domain.MergeRequest{
			FromBookID:   report.BookID,
			ToBookID:     req.IntoBookID,
			SyncMetadata: req.SyncMetadata,
			Reason:       reason,
			ActorID:      actorID,
			ReportID:     reportID,
		})
		if err != nil {
			return nil, err
		}
		result.Merge = rec

		if result.Report, err = s.Store.GetReport(ctx, reportID); err != nil {
			return nil, storageErr(err, "get report")
		}
	}

	s.Events.Emit(sse.NewReportClosedEvent(result.Report))
	s.Logger.Info("duplicate report closed",
		"report_id", reportID,
		"status", result.Report.Status,
		"actor_id", actorID)

	return &result, nil
}

// FindDuplicateCandidates suggests books that may duplicate bookID: fuzzy
// title and author matches from the search index plus books sharing an
// equivalent ISBN. The result is advisory.
func (s *ReportService) FindDuplicateCandidates(ctx context.Context, bookID string, limit int) (*DuplicateCandidates, error) {
	book, _, err := s.Store.ResolveBook(ctx, bookID)
	if err != nil {
		return nil, storageErr(err, "resolve book")
	}
	editions, err := s.Store.GetEditions(ctx, book.ID)
	if err != nil {
		return nil, storageErr(err, "get editions")
	}
	collisions, err := s.Store.FindISBNKeyCollisions(ctx, book.ID)
	if err != nil {
		return nil, storageErr(err, "find isbn collisions")
	}

	out := &DuplicateCandidates{
		BookID:         book.ID,
		Candidates:     []search.Candidate{},
		ISBNCollisions: collisions,
	}
	if out.ISBNCollisions == nil {
		out.ISBNCollisions = []*domain.Edition{}
	}

	if s.searcher != nil {
		candidates, err := s.searcher.Candidates(ctx, search.CandidateParams{
			Book:     book,
			ISBNKeys: isbnKeys(editions),
			Limit:    limit,
		})
		if err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "search duplicate candidates")
		}
		out.Candidates = candidates
	}

	return out, nil
}
