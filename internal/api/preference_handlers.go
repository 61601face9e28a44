package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/bookid-server/internal/domain"
)

func (s *Server) registerPreferenceRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "setMyISBN",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/{id}/my-isbn",
		Summary:     "Set my edition",
		Description: "Records which ISBN of a book the current user owns or reads",
		Tags:        []string{"Preferences"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSetMyISBN)

	huma.Register(s.api, huma.Operation{
		OperationID:   "clearMyISBN",
		Method:        http.MethodDelete,
		Path:          "/api/v1/books/{id}/my-isbn",
		Summary:       "Clear my edition",
		Description:   "Forgets the current user's edition of a book",
		Tags:          []string{"Preferences"},
		DefaultStatus: http.StatusNoContent,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleClearMyISBN)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBookForMe",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}/for-me",
		Summary:     "Get book for me",
		Description: "Returns a book with its editions, group and the current user's preferred ISBN",
		Tags:        []string{"Preferences"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetBookForMe)
}

// SetMyISBNRequest is the request body for choosing an edition.
type SetMyISBNRequest struct {
	ISBN string `json:"isbn" doc:"One of the book's ISBNs"`
}

// SetMyISBNInput wraps the set preference request for Huma.
type SetMyISBNInput struct {
	ID   string `path:"id" doc:"Book ID"`
	Body SetMyISBNRequest
}

// PreferenceOutput wraps an edition preference for Huma.
type PreferenceOutput struct {
	Body *domain.EditionPreference
}

func (s *Server) handleSetMyISBN(ctx context.Context, input *SetMyISBNInput) (*PreferenceOutput, error) {
	principal, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	pref, err := s.services.Preferences.SetPreferredISBN(ctx, principal.UserID, input.ID, input.Body.ISBN)
	if err != nil {
		return nil, err
	}
	return &PreferenceOutput{Body: pref}, nil
}

func (s *Server) handleClearMyISBN(ctx context.Context, input *BookIDInput) (*struct{}, error) {
	principal, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Preferences.ClearPreferredISBN(ctx, principal.UserID, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleGetBookForMe(ctx context.Context, input *BookIDInput) (*BookViewOutput, error) {
	principal, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	view, err := s.services.Preferences.GetBookForUser(ctx, input.ID, principal.UserID)
	if err != nil {
		return nil, err
	}
	return &BookViewOutput{Body: view}, nil
}
