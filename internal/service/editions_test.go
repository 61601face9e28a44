package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/listenupapp/bookid-server/internal/errors"
	"github.com/listenupapp/bookid-server/internal/sse"
)

func TestAddISBN(t *testing.T) {
	s := setupServices(t, nil)
	ctx := context.Background()
	s.createBook(t, "book-1", "Dune", "")

	e, err := s.editions.AddISBN(ctx, "book-1", AddISBNRequest{
		ISBN:      " 978-0-441-17271-9 ",
		Label:     "Ace paperback",
		Year:      intPtr(1990),
		IsPrimary: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "9780441172719", e.ISBN, "stored normalized")
	assert.Equal(t, "9780441172719", e.ISBNKey)
	assert.True(t, e.IsPrimary)
	assert.Contains(t, s.events.types(), sse.EventEditionAdded)
}

func TestAddISBN_Errors(t *testing.T) {
	s := setupServices(t, nil)
	ctx := context.Background()
	s.createBook(t, "book-1", "Dune", "")
	s.createBook(t, "book-2", "Emma", "")
	s.addISBN(t, "book-1", "0306406152", false)

	tests := []struct {
		name   string
		bookID string
		isbn   string
		want   error
	}{
		{"malformed", "book-1", "abc", domainerrors.ErrInvalidISBN},
		{"too long", "book-1", "97804411727190", domainerrors.ErrInvalidISBN},
		{"empty", "book-1", "", domainerrors.ErrValidation},
		{"missing book", "book-missing", "9780441172719", domainerrors.ErrBookNotFound},
		{"attached elsewhere", "book-2", "0306406152", domainerrors.ErrDuplicateISBN},
		{"hyphenation attached elsewhere", "book-2", "0-306-40615-2", domainerrors.ErrDuplicateISBN},
		{"equivalent on same book", "book-1", "978-0-306-40615-7", domainerrors.ErrDuplicateISBN},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.editions.AddISBN(ctx, tt.bookID, AddISBNRequest{ISBN: tt.isbn})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAddISBN_EquivalentOnOtherBookAllowed(t *testing.T) {
	s := setupServices(t, nil)
	s.createBook(t, "book-1", "Dune", "")
	s.createBook(t, "book-2", "Dune", "")
	s.addISBN(t, "book-1", "0306406152", false)

	e := s.addISBN(t, "book-2", "978-0-306-40615-7", false)
	assert.Equal(t, "book-2", e.BookID)
}

func TestGetISBNs(t *testing.T) {
	s := setupServices(t, nil)
	ctx := context.Background()
	s.createBook(t, "book-1", "Dune", "")

	bookID, editions, err := s.editions.GetISBNs(ctx, "book-1")
	require.NoError(t, err)
	assert.Equal(t, "book-1", bookID)
	assert.Empty(t, editions)

	s.addISBN(t, "book-1", "1111", false)
	s.addISBN(t, "book-1", "2222", true)

	_, editions, err = s.editions.GetISBNs(ctx, "book-1")
	require.NoError(t, err)
	require.Len(t, editions, 2)
	assert.Equal(t, "2222", editions[0].ISBN, "primary first")

	_, _, err = s.editions.GetISBNs(ctx, "book-missing")
	assert.ErrorIs(t, err, domainerrors.ErrBookNotFound)
}

func TestGetISBNs_RetiredBookWithoutEditions(t *testing.T) {
	s := setupServices(t, nil)
	ctx := context.Background()
	s.createBook(t, "book-7", "Emma", "")
	s.createBook(t, "book-8", "Emma", "Jane Austen")

	_, err := s.merges.Merge(ctx, "mod-1", MergeRequest{FromBookID: "book-7", ToBookID: "book-8"})
	require.NoError(t, err)

	bookID, editions, err := s.editions.GetISBNs(ctx, "book-7")
	require.NoError(t, err)
	assert.Equal(t, "book-8", bookID, "reports the canonical id")
	assert.Empty(t, editions)
}

func TestRemoveISBN(t *testing.T) {
	s := setupServices(t, nil)
	ctx := context.Background()
	s.createBook(t, "book-1", "Dune", "")
	s.addISBN(t, "book-1", "978-0-441-17271-9", true)

	_, err := s.prefs.SetPreferredISBN(ctx, "user-1", "book-1", "978-0-441-17271-9")
	require.NoError(t, err)

	removed, err := s.editions.RemoveISBN(ctx, "9780441172719")
	require.NoError(t, err)
	assert.Equal(t, "9780441172719", removed.ISBN)

	view, err := s.prefs.GetBookForUser(ctx, "book-1", "user-1")
	require.NoError(t, err)
	assert.Empty(t, view.Editions)
	assert.Empty(t, view.PreferredISBN)

	last := s.events.events[len(s.events.events)-1]
	assert.Equal(t, sse.EventEditionRemoved, last.Type)
	assert.Equal(t, 1, last.Data.(sse.EditionEventData).PreferencesCleared)

	_, err = s.editions.RemoveISBN(ctx, "9780441172719")
	assert.ErrorIs(t, err, domainerrors.ErrEditionNotFound)
}
