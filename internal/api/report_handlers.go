package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/bookid-server/internal/domain"
	"github.com/listenupapp/bookid-server/internal/search"
	"github.com/listenupapp/bookid-server/internal/service"
	"github.com/listenupapp/bookid-server/internal/store"
)

func (s *Server) registerReportRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "reportDuplicate",
		Method:        http.MethodPost,
		Path:          "/api/v1/books/{id}/report-duplicate",
		Summary:       "Report duplicate",
		Description:   "Flags a book as a suspected duplicate for a manager to review",
		Tags:          []string{"Reports"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleReportDuplicate)

	huma.Register(s.api, huma.Operation{
		OperationID: "findDuplicates",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}/duplicates",
		Summary:     "Find duplicate candidates",
		Description: "Suggests books that may duplicate this one, by folded title and author and by equivalent ISBN",
		Tags:        []string{"Reports"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleFindDuplicates)

	huma.Register(s.api, huma.Operation{
		OperationID: "listReports",
		Method:      http.MethodGet,
		Path:        "/api/v1/reports",
		Summary:     "List reports",
		Description: "Returns duplicate reports, oldest first",
		Tags:        []string{"Reports"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListReports)

	huma.Register(s.api, huma.Operation{
		OperationID: "resolveReport",
		Method:      http.MethodPost,
		Path:        "/api/v1/reports/{id}/resolve",
		Summary:     "Resolve report",
		Description: "Closes a pending report by rejecting it, marking it resolved, or merging the reported book",
		Tags:        []string{"Reports"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleResolveReport)
}

// ReportDuplicateRequest is the request body for reporting a duplicate.
type ReportDuplicateRequest struct {
	Reason string `json:"reason,omitempty" doc:"Why the reporter thinks this is a duplicate"`
}

// ReportDuplicateInput wraps the report request for Huma.
type ReportDuplicateInput struct {
	ID   string `path:"id" doc:"Book ID"`
	Body ReportDuplicateRequest
}

// ReportOutput wraps a duplicate report for Huma.
type ReportOutput struct {
	Body *domain.DuplicateReport
}

// FindDuplicatesInput contains parameters for the candidate search.
type FindDuplicatesInput struct {
	ID    string `path:"id" doc:"Book ID"`
	Limit int    `query:"limit" default:"10" minimum:"1" maximum:"100" doc:"Maximum fuzzy candidates"`
}

// DuplicatesResponse contains duplicate candidates for a book.
type DuplicatesResponse struct {
	BookID         string             `json:"book_id" doc:"Canonical book ID"`
	Candidates     []search.Candidate `json:"candidates" doc:"Fuzzy title and author matches, best first"`
	ISBNCollisions []*domain.Edition  `json:"isbn_collisions" doc:"Editions of other books with an equivalent ISBN"`
}

// DuplicatesOutput wraps the duplicates response for Huma.
type DuplicatesOutput struct {
	Body DuplicatesResponse
}

// ListReportsInput contains parameters for listing reports.
type ListReportsInput struct {
	Status string `query:"status" doc:"Filter by status"`
	Cursor string `query:"cursor" doc:"Pagination cursor"`
	Limit  int    `query:"limit" default:"100" minimum:"1" maximum:"1000" doc:"Items per page"`
}

// ListReportsResponse contains a page of reports.
type ListReportsResponse struct {
	Reports    []*domain.DuplicateReport `json:"reports" doc:"Reports on this page"`
	NextCursor string                    `json:"next_cursor,omitempty" doc:"Cursor for the next page"`
	HasMore    bool                      `json:"has_more" doc:"Whether more pages exist"`
	Total      int                       `json:"total" doc:"Number of matching reports"`
}

// ListReportsOutput wraps the list reports response for Huma.
type ListReportsOutput struct {
	Body ListReportsResponse
}

// ResolveReportRequest is the request body for closing a report.
type ResolveReportRequest struct {
	Action       string `json:"action" enum:"reject,resolve,merge" doc:"How to close the report"`
	IntoBookID   string `json:"into_book_id,omitempty" doc:"Merge target; required for the merge action"`
	Note         string `json:"note,omitempty" doc:"Resolution note"`
	SyncMetadata bool   `json:"sync_metadata,omitempty" doc:"Fill empty target fields from the reported book when merging"`
}

// ResolveReportInput wraps the resolve request for Huma.
type ResolveReportInput struct {
	ID   string `path:"id" doc:"Report ID"`
	Body ResolveReportRequest
}

// ResolveReportResponse contains the closed report and, for merges, the merge record.
type ResolveReportResponse struct {
	Report *domain.DuplicateReport `json:"report" doc:"The closed report"`
	Merge  *domain.MergeRecord     `json:"merge,omitempty" doc:"Merge performed by the merge action"`
}

// ResolveReportOutput wraps the resolve response for Huma.
type ResolveReportOutput struct {
	Body ResolveReportResponse
}

func (s *Server) handleReportDuplicate(ctx context.Context, input *ReportDuplicateInput) (*ReportOutput, error) {
	principal, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	report, err := s.services.Reports.ReportDuplicate(ctx, principal.UserID, input.ID, input.Body.Reason)
	if err != nil {
		return nil, err
	}
	return &ReportOutput{Body: report}, nil
}

func (s *Server) handleFindDuplicates(ctx context.Context, input *FindDuplicatesInput) (*DuplicatesOutput, error) {
	if _, err := RequireManager(ctx); err != nil {
		return nil, err
	}

	found, err := s.services.Reports.FindDuplicateCandidates(ctx, input.ID, input.Limit)
	if err != nil {
		return nil, err
	}

	return &DuplicatesOutput{
		Body: DuplicatesResponse{
			BookID:         found.BookID,
			Candidates:     found.Candidates,
			ISBNCollisions: found.ISBNCollisions,
		},
	}, nil
}

func (s *Server) handleListReports(ctx context.Context, input *ListReportsInput) (*ListReportsOutput, error) {
	if _, err := RequireManager(ctx); err != nil {
		return nil, err
	}

	result, err := s.services.Reports.ListReports(ctx, domain.ReportStatus(input.Status), store.PaginationParams{
		Limit:  input.Limit,
		Cursor: input.Cursor,
	})
	if err != nil {
		return nil, err
	}

	reports := result.Items
	if reports == nil {
		reports = []*domain.DuplicateReport{}
	}

	return &ListReportsOutput{
		Body: ListReportsResponse{
			Reports:    reports,
			NextCursor: result.NextCursor,
			HasMore:    result.HasMore,
			Total:      result.Total,
		},
	}, nil
}

func (s *Server) handleResolveReport(ctx context.Context, input *ResolveReportInput) (*ResolveReportOutput, error) {
	principal, err := RequireManager(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Reports.ResolveReport(ctx, input.ID, principal.UserID, service.ResolveReportRequest{
		Action:       domain.ReportAction(input.Body.Action),
		IntoBookID:   input.Body.IntoBookID,
		Note:         input.Body.Note,
		SyncMetadata: input.Body.SyncMetadata,
	})
	if err != nil {
		return nil, err
	}

	return &ResolveReportOutput{Body: ResolveReportResponse{Report: result.Report, Merge: result.Merge}}, nil
}
