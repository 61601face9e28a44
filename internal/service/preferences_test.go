package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/listenupapp/bookid-server/internal/errors"
)

func TestPreferredISBN(t *testing.T) {
	s := setupServices(t, nil)
	ctx := context.Background()
	s.createBook(t, "book-1", "Dune", "")
	s.createBook(t, "book-2", "Emma", "")
	s.addISBN(t, "book-1", "978-0-441-17271-9", true)
	s.addISBN(t, "book-1", "0441013597", false)
	s.addISBN(t, "book-2", "9780141439587", true)

	view, err := s.prefs.GetBookForUser(ctx, "book-1", "user-1")
	require.NoError(t, err)
	assert.Empty(t, view.PreferredISBN)
	assert.Equal(t, "9780441172719", view.PreferredEdition().ISBN, "falls back to primary")

	pref, err := s.prefs.SetPreferredISBN(ctx, "user-1", "book-1", "0441013597")
	require.NoError(t, err)
	assert.Equal(t, "0441013597", pref.ISBN)

	view, err = s.prefs.GetBookForUser(ctx, "book-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "0441013597", view.PreferredISBN)
	assert.Equal(t, "0441013597", view.PreferredEdition().ISBN)
	assert.True(t, view.Canonical)

	other, err := s.prefs.GetBookForUser(ctx, "book-1", "user-2")
	require.NoError(t, err)
	assert.Empty(t, other.PreferredISBN)

	_, err = s.prefs.SetPreferredISBN(ctx, "user-1", "book-1", "9780141439587")
	assert.ErrorIs(t, err, domainerrors.ErrInvalidEdition)

	_, err = s.prefs.SetPreferredISBN(ctx, "user-1", "book-1", "")
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = s.prefs.SetPreferredISBN(ctx, "user-1", "book-missing", "0441013597")
	assert.ErrorIs(t, err, domainerrors.ErrBookNotFound)

	require.NoError(t, s.prefs.ClearPreferredISBN(ctx, "user-1", "book-1"))
	require.NoError(t, s.prefs.ClearPreferredISBN(ctx, "user-1", "book-1"))

	view, err = s.prefs.GetBookForUser(ctx, "book-1", "user-1")
	require.NoError(t, err)
	assert.Empty(t, view.PreferredISBN)
}

func TestPreferredISBN_RetiredBookResolves(t *testing.T) {
	s := setupServices(t, nil)
	ctx := context.Background()
	s.createBook(t, "book-1", "Dune", "")
	s.createBook(t, "book-2", "Dune", "")
	s.addISBN(t, "book-1", "9780441172719", true)

	_, err := s.merges.Merge(ctx, "mod-1", MergeRequest{FromBookID: "book-2", ToBookID: "book-1"})
	require.NoError(t, err)

	pref, err := s.prefs.SetPreferredISBN(ctx, "user-1", "book-2", "9780441172719")
	require.NoError(t, err)
	assert.Equal(t, "book-1", pref.BookID)

	view, err := s.prefs.GetBookForUser(ctx, "book-2", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "book-1", view.Book.ID)
	assert.Equal(t, "book-2", view.RedirectedFrom)
	assert.Equal(t, "9780441172719", view.PreferredISBN)
}
