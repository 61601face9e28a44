package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/bookid-server/internal/domain"
	"github.com/listenupapp/bookid-server/internal/service"
)

func (s *Server) registerEditionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "addISBN",
		Method:        http.MethodPost,
		Path:          "/api/v1/books/{id}/isbn",
		Summary:       "Add ISBN",
		Description:   "Attaches an ISBN to a book. An ISBN belongs to at most one book.",
		Tags:          []string{"Editions"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleAddISBN)

	huma.Register(s.api, huma.Operation{
		OperationID: "listISBNs",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}/isbns",
		Summary:     "List ISBNs",
		Description: "Returns the editions of a book, primary first",
		Tags:        []string{"Editions"},
	}, s.handleListISBNs)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeISBN",
		Method:      http.MethodDelete,
		Path:        "/api/v1/books/isbn/{isbn}",
		Summary:     "Remove ISBN",
		Description: "Detaches an ISBN from its book and clears user preferences that pointed at it",
		Tags:        []string{"Editions"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRemoveISBN)
}

// AddISBNRequest is the request body for attaching an ISBN.
type AddISBNRequest struct {
	ISBN      string `json:"isbn" doc:"ISBN-10 or ISBN-13, hyphens allowed"`
	Edition   string `json:"edition,omitempty" doc:"Edition label, e.g. Paperback"`
	Year      *int   `json:"year,omitempty" doc:"Edition publication year"`
	IsPrimary bool   `json:"is_primary,omitempty" doc:"Make this the book's primary ISBN"`
}

// AddISBNInput wraps the add ISBN request for Huma.
type AddISBNInput struct {
	ID   string `path:"id" doc:"Book ID"`
	Body AddISBNRequest
}

// EditionOutput wraps an edition for Huma.
type EditionOutput struct {
	Body *domain.Edition
}

// ListISBNsResponse contains a book's editions.
type ListISBNsResponse struct {
	BookID   string            `json:"book_id" doc:"Canonical book ID"`
	Editions []*domain.Edition `json:"editions" doc:"Editions, primary first"`
}

// ListISBNsOutput wraps the list ISBNs response for Huma.
type ListISBNsOutput struct {
	Body ListISBNsResponse
}

// RemoveISBNInput contains the ISBN path parameter.
type RemoveISBNInput struct {
	ISBN string `path:"isbn" doc:"ISBN as stored"`
}

func (s *Server) handleAddISBN(ctx context.Context, input *AddISBNInput) (*EditionOutput, error) {
	if _, err := RequireUser(ctx); err != nil {
		return nil, err
	}

	edition, err := s.services.Editions.AddISBN(ctx, input.ID, service.AddISBNRequest{
		ISBN:      input.Body.ISBN,
		Label:     input.Body.Edition,
		Year:      input.Body.Year,
		IsPrimary: input.Body.IsPrimary,
	})
	if err != nil {
		return nil, err
	}

	return &EditionOutput{Body: edition}, nil
}

func (s *Server) handleListISBNs(ctx context.Context, input *BookIDInput) (*ListISBNsOutput, error) {
	bookID, editions, err := s.services.Editions.GetISBNs(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if editions == nil {
		editions = []*domain.Edition{}
	}

	return &ListISBNsOutput{Body: ListISBNsResponse{BookID: bookID, Editions: editions}}, nil
}

func (s *Server) handleRemoveISBN(ctx context.Context, input *RemoveISBNInput) (*EditionOutput, error) {
	if _, err := RequireManager(ctx); err != nil {
		return nil, err
	}

	edition, err := s.services.Editions.RemoveISBN(ctx, input.ISBN)
	if err != nil {
		return nil, err
	}

	return &EditionOutput{Body: edition}, nil
}
