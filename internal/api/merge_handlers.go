package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/bookid-server/internal/domain"
	"github.com/listenupapp/bookid-server/internal/service"
)

func (s *Server) registerMergeRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "mergeBooks",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/merge",
		Summary:     "Merge books",
		Description: "Merges a duplicate book into a canonical one. ISBNs, preferences and references move to the target; the source becomes a redirect. Set dry_run to preview the outcome.",
		Tags:        []string{"Merges"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleMergeBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "listBookMerges",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}/merges",
		Summary:     "List merges",
		Description: "Returns the merge audit trail of a book, oldest first",
		Tags:        []string{"Merges"},
	}, s.handleListMerges)
}

// MergeBooksRequest is the request body for merging books.
type MergeBooksRequest struct {
	FromBookID   string `json:"from_book_id" doc:"Book to retire"`
	ToBookID     string `json:"to_book_id" doc:"Canonical book that survives"`
	SyncMetadata bool   `json:"sync_metadata,omitempty" doc:"Fill empty target fields from the source"`
	Reason       string `json:"reason,omitempty" maxLength:"1000" doc:"Audit note"`
	DryRun       bool   `json:"dry_run,omitempty" doc:"Report what would happen without changing anything"`
}

// MergeBooksInput wraps the merge request for Huma.
type MergeBooksInput struct {
	Body MergeBooksRequest
}

// MergeOutput wraps a merge record for Huma.
type MergeOutput struct {
	Body *domain.MergeRecord
}

// ListMergesResponse contains a book's merge history.
type ListMergesResponse struct {
	Merges []*domain.MergeRecord `json:"merges" doc:"Merges into or out of the book"`
}

// ListMergesOutput wraps the list merges response for Huma.
type ListMergesOutput struct {
	Body ListMergesResponse
}

func (s *Server) handleMergeBooks(ctx context.Context, input *MergeBooksInput) (*MergeOutput, error) {
	principal, err := RequireManager(ctx)
	if err != nil {
		return nil, err
	}

	rec, err := s.services.Merges.Merge(ctx, principal.UserID, service.MergeRequest{
		FromBookID:   input.Body.FromBookID,
		ToBookID:     input.Body.ToBookID,
		SyncMetadata: input.Body.SyncMetadata,
		Reason:       input.Body.Reason,
		DryRun:       input.Body.DryRun,
	})
	if err != nil {
		return nil, err
	}

	return &MergeOutput{Body: rec}, nil
}

func (s *Server) handleListMerges(ctx context.Context, input *BookIDInput) (*ListMergesOutput, error) {
	merges, err := s.services.Catalog.ListMerges(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if merges == nil {
		merges = []*domain.MergeRecord{}
	}
	return &ListMergesOutput{Body: ListMergesResponse{Merges: merges}}, nil
}
