package service

import (
	"context"
	"strings"

	"github.com/listenupapp/bookid-server/internal/domain"
	domainerrors "github.com/listenupapp/bookid-server/internal/errors"
	"github.com/listenupapp/bookid-server/internal/id"
	"github.com/listenupapp/bookid-server/internal/sse"
)

// GroupService reads and edits group membership outside of merges.
type GroupService struct {
	Deps
}

// NewGroupService creates a new group service.
func NewGroupService(deps Deps) *GroupService {
	return &GroupService{Deps: deps.withDefaults()}
}

// GetGroup returns the group of a book, or a singleton when it has none.
func (s *GroupService) GetGroup(ctx context.Context, bookID string) (*domain.Group, error) {
	book, _, err := s.Store.ResolveBook(ctx, bookID)
	if err != nil {
		return nil, storageErr(err, "resolve book")
	}
	group, err := s.Store.GetGroup(ctx, book.ID)
	if err != nil {
		return nil, storageErr(err, "get group")
	}
	return group, nil
}

// GetBooksByGID returns the active books of a group.
func (s *GroupService) GetBooksByGID(ctx context.Context, gid string) ([]*domain.Book, error) {
	books, err := s.Store.GetBooksByGID(ctx, strings.TrimSpace(gid))
	if err != nil {
		return nil, storageErr(err, "get group books")
	}
	return books, nil
}

// SetGroup assigns a book to gid, creating the group if needed. An empty gid
// starts a new group.
func (s *GroupService) SetGroup(ctx context.Context, bookID, gid string) (*domain.Group, error) {
	gid = strings.TrimSpace(gid)
	if gid != "" && !id.Valid(gid) {
		return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{
			"gid": "must be a valid group identifier",
		})
	}

	assigned, err := s.Store.SetGroup(ctx, bookID, gid)
	if err != nil {
		return nil, storageErr(err, "set group")
	}
	s.Events.Emit(sse.NewGroupChangedEvent(bookID, assigned))
	s.Logger.Info("book group set", "book_id", bookID, "gid", assigned)

	group, err := s.Store.GetGroup(ctx, bookID)
	if err != nil {
		return nil, storageErr(err, "get group")
	}
	return group, nil
}

// ClearGroup removes a book from its group.
func (s *GroupService) ClearGroup(ctx context.Context, bookID string) error {
	if err := s.Store.ClearGroup(ctx, bookID); err != nil {
		return storageErr(err, "clear group")
	}
	s.Events.Emit(sse.NewGroupChangedEvent(bookID, ""))
	s.Logger.Info("book group cleared", "book_id", bookID)
	return nil
}
