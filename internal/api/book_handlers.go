package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/bookid-server/internal/domain"
	"github.com/listenupapp/bookid-server/internal/service"
	"github.com/listenupapp/bookid-server/internal/store"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books",
		Summary:     "List books",
		Description: "Returns a paginated list of canonical books. Retired books are omitted.",
		Tags:        []string{"Books"},
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createBook",
		Method:        http.MethodPost,
		Path:          "/api/v1/books",
		Summary:       "Create book",
		Description:   "Creates a canonical book record. HTML descriptions are converted to Markdown.",
		Tags:          []string{"Books"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleCreateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}",
		Summary:     "Get book",
		Description: "Returns a book with its editions and group. Retired identifiers redirect to the canonical book.",
		Tags:        []string{"Books"},
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateBook",
		Method:      http.MethodPatch,
		Path:        "/api/v1/books/{id}",
		Summary:     "Update book",
		Description: "Updates book metadata. Only provided fields change.",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateBook)
}

// === DTOs ===

// ListBooksInput contains parameters for listing books.
type ListBooksInput struct {
	Cursor string `query:"cursor" doc:"Pagination cursor"`
	Limit  int    `query:"limit" default:"100" minimum:"1" maximum:"1000" doc:"Items per page"`
}

// ListBooksResponse contains a page of books.
type ListBooksResponse struct {
	Books      []*domain.Book `json:"books" doc:"Books on this page"`
	NextCursor string         `json:"next_cursor,omitempty" doc:"Cursor for the next page"`
	HasMore    bool           `json:"has_more" doc:"Whether more pages exist"`
	Total      int            `json:"total" doc:"Number of canonical books"`
}

// ListBooksOutput wraps the list books response for Huma.
type ListBooksOutput struct {
	Body ListBooksResponse
}

// CreateBookRequest is the request body for creating a book.
type CreateBookRequest struct {
	ID          string `json:"id,omitempty" doc:"Client-chosen book ID; generated when omitted"`
	Title       string `json:"title" doc:"Title"`
	Author      string `json:"author,omitempty" doc:"Author display name"`
	Description string `json:"description,omitempty" doc:"Description, HTML or Markdown"`
	PageCount   int    `json:"page_count,omitempty" doc:"Page count"`
	PublishYear int    `json:"publish_year,omitempty" doc:"First publication year"`
	CoverURL    string `json:"cover_url,omitempty" doc:"Cover image URL"`
}

// CreateBookInput wraps the create book request for Huma.
type CreateBookInput struct {
	Body CreateBookRequest
}

// BookOutput wraps a single book for Huma.
type BookOutput struct {
	Body *domain.Book
}

// BookIDInput contains the book path parameter.
type BookIDInput struct {
	ID string `path:"id" doc:"Book ID"`
}

// BookViewOutput wraps a book with editions and group for Huma.
type BookViewOutput struct {
	Body *domain.BookForUser
}

// UpdateBookRequest is the request body for updating a book.
type UpdateBookRequest struct {
	Title       *string `json:"title,omitempty" doc:"Title"`
	Author      *string `json:"author,omitempty" doc:"Author display name"`
	Description *string `json:"description,omitempty" doc:"Description, HTML or Markdown"`
	PageCount   *int    `json:"page_count,omitempty" doc:"Page count"`
	PublishYear *int    `json:"publish_year,omitempty" doc:"First publication year"`
	CoverURL    *string `json:"cover_url,omitempty" doc:"Cover image URL"`
}

// UpdateBookInput wraps the update book request for Huma.
type UpdateBookInput struct {
	ID   string `path:"id" doc:"Book ID"`
	Body UpdateBookRequest
}

// === Handlers ===

func (s *Server) handleListBooks(ctx context.Context, input *ListBooksInput) (*ListBooksOutput, error) {
	result, err := s.services.Catalog.ListBooks(ctx, store.PaginationParams{
		Limit:  input.Limit,
		Cursor: input.Cursor,
	})
	if err != nil {
		return nil, err
	}

	books := result.Items
	if books == nil {
		books = []*domain.Book{}
	}

	return &ListBooksOutput{
		Body: ListBooksResponse{
			Books:      books,
			NextCursor: result.NextCursor,
			HasMore:    result.HasMore,
			Total:      result.Total,
		},
	}, nil
}

func (s *Server) handleCreateBook(ctx context.Context, input *CreateBookInput) (*BookOutput, error) {
	if _, err := RequireManager(ctx); err != nil {
		return nil, err
	}

	book, err := s.services.Catalog.CreateBook(ctx, service.CreateBookRequest{
		ID:          input.Body.ID,
		Title:       input.Body.Title,
		Author:      input.Body.Author,
		Description: input.Body.Description,
		PageCount:   input.Body.PageCount,
		PublishYear: input.Body.PublishYear,
		CoverURL:    input.Body.CoverURL,
	})
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: book}, nil
}

func (s *Server) handleGetBook(ctx context.Context, input *BookIDInput) (*BookViewOutput, error) {
	view, err := s.services.Catalog.GetBook(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &BookViewOutput{Body: view}, nil
}

func (s *Server) handleUpdateBook(ctx context.Context, input *UpdateBookInput) (*BookOutput, error) {
	if _, err := RequireManager(ctx); err != nil {
		return nil, err
	}

	book, err := s.services.Catalog.UpdateBook(ctx, input.ID, service.UpdateBookRequest{
		Title:       input.Body.Title,
		Author:      input.Body.Author,
		Description: input.Body.Description,
		PageCount:   input.Body.PageCount,
		PublishYear: input.Body.PublishYear,
		CoverURL:    input.Body.CoverURL,
	})
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: book}, nil
}
