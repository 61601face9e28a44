package service

import (
	"context"
	"strings"

	"github.com/listenupapp/bookid-server/internal/domain"
	"github.com/listenupapp/bookid-server/internal/sse"
	"github.com/listenupapp/bookid-server/internal/validation"
)

// AddISBNRequest is the input of AddISBN.
type AddISBNRequest struct {
	ISBN      string `json:"isbn" validate:"required,isbn"`
	Label     string `json:"edition,omitempty" validate:"max=200"`
	Year      *int   `json:"year,omitempty" validate:"omitempty,gte=0,lte=9999"`
	IsPrimary bool   `json:"is_primary,omitempty"`
}

// EditionService manages the ISBN editions of books.
type EditionService struct {
	Deps
	validator *validation.Validator
}

// NewEditionService creates a new edition service.
func NewEditionService(deps Deps, validator *validation.Validator) *EditionService {
	return &EditionService{Deps: deps.withDefaults(), validator: validator}
}

// AddISBN attaches an ISBN to an active book. The ISBN is stored normalized,
// so a hyphenation of an ISBN already on another book is a duplicate.
func (s *EditionService) AddISBN(ctx context.Context, bookID string, req AddISBNRequest) (*domain.Edition, error) {
	req.ISBN = strings.TrimSpace(req.ISBN)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	edition := domain.NewEdition(bookID, req.ISBN, strings.TrimSpace(req.Label), req.Year, req.IsPrimary)
	if err := s.Store.AddEdition(ctx, edition); err != nil {
		return nil, storageErr(err, "add edition")
	}

	s.reindex(ctx, bookID)
	s.Events.Emit(sse.NewEditionAddedEvent(edition))
	s.Logger.Info("edition added",
		"book_id", bookID,
		"isbn", edition.ISBN,
		"primary", edition.IsPrimary)

	return edition, nil
}

// GetISBNs lists the editions of a book, primary first, along with the id of
// the book they belong to. A retired id lists the editions of its canonical
// book and reports the canonical id.
func (s *EditionService) GetISBNs(ctx context.Context, bookID string) (string, []*domain.Edition, error) {
	book, _, err := s.Store.ResolveBook(ctx, bookID)
	if err != nil {
		return "", nil, storageErr(err, "resolve book")
	}
	editions, err := s.Store.GetEditions(ctx, book.ID)
	if err != nil {
		return "", nil, storageErr(err, "get editions")
	}
	return book.ID, editions, nil
}

// RemoveISBN detaches an edition by its exact or normalized ISBN. Preferences
// that chose it are cleared; the book itself stays.
func (s *EditionService) RemoveISBN(ctx context.Context, raw string) (*domain.Edition, error) {
	removed, err := s.Store.RemoveEdition(ctx, strings.TrimSpace(raw))
	if err != nil {
		return nil, storageErr(err, "remove edition")
	}

	s.reindex(ctx, removed.Edition.BookID)
	s.Events.Emit(sse.NewEditionRemovedEvent(removed.Edition, removed.PreferencesCleared))
	s.Logger.Info("edition removed",
		"book_id", removed.Edition.BookID,
		"isbn", removed.Edition.ISBN,
		"preferences_cleared", removed.PreferencesCleared)

	return removed.Edition, nil
}
