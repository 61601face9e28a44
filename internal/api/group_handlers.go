package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/bookid-server/internal/domain"
)

func (s *Server) registerGroupRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getBooksByGID",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/gid/{gid}",
		Summary:     "Get group books",
		Description: "Returns the canonical books that share a group ID",
		Tags:        []string{"Groups"},
	}, s.handleGetBooksByGID)

	huma.Register(s.api, huma.Operation{
		OperationID: "setBookGroup",
		Method:      http.MethodPut,
		Path:        "/api/v1/books/{id}/gid",
		Summary:     "Set group",
		Description: "Moves a book into a group. An empty gid starts a new group.",
		Tags:        []string{"Groups"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSetGroup)

	huma.Register(s.api, huma.Operation{
		OperationID:   "clearBookGroup",
		Method:        http.MethodDelete,
		Path:          "/api/v1/books/{id}/gid",
		Summary:       "Clear group",
		Description:   "Removes a book from its group",
		Tags:          []string{"Groups"},
		DefaultStatus: http.StatusNoContent,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleClearGroup)
}

// GIDInput contains the group path parameter.
type GIDInput struct {
	GID string `path:"gid" doc:"Group ID"`
}

// GroupBooksResponse contains the members of a group.
type GroupBooksResponse struct {
	GID   string         `json:"gid" doc:"Group ID"`
	Books []*domain.Book `json:"books" doc:"Canonical books in the group"`
}

// GroupBooksOutput wraps the group books response for Huma.
type GroupBooksOutput struct {
	Body GroupBooksResponse
}

// SetGroupRequest is the request body for setting a book's group.
type SetGroupRequest struct {
	GID string `json:"gid,omitempty" doc:"Existing group ID; omit to start a new group"`
}

// SetGroupInput wraps the set group request for Huma.
type SetGroupInput struct {
	ID   string `path:"id" doc:"Book ID"`
	Body SetGroupRequest
}

// GroupOutput wraps a group for Huma.
type GroupOutput struct {
	Body *domain.Group
}

func (s *Server) handleGetBooksByGID(ctx context.Context, input *GIDInput) (*GroupBooksOutput, error) {
	books, err := s.services.Groups.GetBooksByGID(ctx, input.GID)
	if err != nil {
		return nil, err
	}
	if books == nil {
		books = []*domain.Book{}
	}
	return &GroupBooksOutput{Body: GroupBooksResponse{GID: input.GID, Books: books}}, nil
}

func (s *Server) handleSetGroup(ctx context.Context, input *SetGroupInput) (*GroupOutput, error) {
	if _, err := RequireManager(ctx); err != nil {
		return nil, err
	}

	group, err := s.services.Groups.SetGroup(ctx, input.ID, input.Body.GID)
	if err != nil {
		return nil, err
	}
	return &GroupOutput{Body: group}, nil
}

func (s *Server) handleClearGroup(ctx context.Context, input *BookIDInput) (*struct{}, error) {
	if _, err := RequireManager(ctx); err != nil {
		return nil, err
	}

	if err := s.services.Groups.ClearGroup(ctx, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}
