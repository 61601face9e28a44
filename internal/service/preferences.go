package service

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/listenupapp/bookid-server/internal/domain"
	domainerrors "github.com/listenupapp/bookid-server/internal/errors"
	"github.com/listenupapp/bookid-server/internal/store"
)

// PreferenceService manages each user's chosen edition of a book.
type PreferenceService struct {
	Deps
}

// NewPreferenceService creates a new preference service.
func NewPreferenceService(deps Deps) *PreferenceService {
	return &PreferenceService{Deps: deps.withDefaults()}
}

// SetPreferredISBN records the user's edition of a book. A retired id is
// resolved first; the ISBN must be an edition of the canonical book.
func (s *PreferenceService) SetPreferredISBN(ctx context.Context, userID, bookID, raw string) (*domain.EditionPreference, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{"isbn": "is required"})
	}

	book, _, err := s.Store.ResolveBook(ctx, bookID)
	if err != nil {
		return nil, storageErr(err, "resolve book")
	}

	pref, err := s.Store.SetPreference(ctx, userID, book.ID, raw)
	if err != nil {
		return nil, storageErr(err, "set preference")
	}
	s.Logger.Debug("edition preference set", "user_id", userID, "book_id", book.ID, "isbn", pref.ISBN)
	return pref, nil
}

// ClearPreferredISBN forgets the user's edition of a book. Clearing twice is fine.
func (s *PreferenceService) ClearPreferredISBN(ctx context.Context, userID, bookID string) error {
	book, _, err := s.Store.ResolveBook(ctx, bookID)
	if err != nil {
		return storageErr(err, "resolve book")
	}
	if err := s.Store.DeletePreference(ctx, userID, book.ID); err != nil {
		return storageErr(err, "clear preference")
	}
	return nil
}

// GetBookForUser returns a book as seen by userID: editions, preferred ISBN,
// and group.
func (s *PreferenceService) GetBookForUser(ctx context.Context, bookID, userID string) (*domain.BookForUser, error) {
	return loadBookView(ctx, s.Store, bookID, userID)
}

// loadBookView resolves bookID and loads its editions, group, and, when
// userID is set, the user's preference concurrently.
func loadBookView(ctx context.Context, st store.Store, bookID, userID string) (*domain.BookForUser, error) {
	book, redirectedFrom, err := st.ResolveBook(ctx, bookID)
	if err != nil {
		return nil, storageErr(err, "resolve book")
	}

	view := &domain.BookForUser{
		Book:           book,
		Canonical:      redirectedFrom == "",
		RedirectedFrom: redirectedFrom,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		editions, err := st.GetEditions(gctx, book.ID)
		if err != nil {
			return storageErr(err, "get editions")
		}
		view.Editions = editions
		return nil
	})
	g.Go(func() error {
		group, err := st.GetGroup(gctx, book.ID)
		if err != nil {
			return storageErr(err, "get group")
		}
		view.Group = group
		return nil
	})
	if userID != "" {
		g.Go(func() error {
			pref, err := st.GetPreference(gctx, userID, book.ID)
			if err != nil {
				return storageErr(err, "get preference")
			}
			if pref != nil {
				view.PreferredISBN = pref.ISBN
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if view.Editions == nil {
		view.Editions = []*domain.Edition{}
	}
	return view, nil
}
