package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/listenupapp/bookid-server/internal/errors"
	"github.com/listenupapp/bookid-server/internal/sse"
)

func TestSetGroupAndLookup(t *testing.T) {
	s := setupServices(t, nil)
	ctx := context.Background()
	s.createBook(t, "book-1", "Dune", "")
	s.createBook(t, "book-2", "Dune Messiah", "")

	group, err := s.groups.SetGroup(ctx, "book-1", "")
	require.NoError(t, err)
	require.NotEmpty(t, group.GID)

	_, err = s.groups.SetGroup(ctx, "book-2", group.GID)
	require.NoError(t, err)

	got, err := s.groups.GetGroup(ctx, "book-2")
	require.NoError(t, err)
	assert.Equal(t, group.GID, got.GID)
	assert.ElementsMatch(t, []string{"book-1", "book-2"}, got.BookIDs)

	books, err := s.groups.GetBooksByGID(ctx, group.GID)
	require.NoError(t, err)
	assert.Len(t, books, 2)

	assert.Contains(t, s.events.types(), sse.EventGroupChanged)
}

func TestSetGroup_InvalidGID(t *testing.T) {
	s := setupServices(t, nil)
	s.createBook(t, "book-1", "Dune", "")

	_, err := s.groups.SetGroup(context.Background(), "book-1", "no spaces allowed")
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestClearGroup_DeletesEmptyGroup(t *testing.T) {
	s := setupServices(t, nil)
	ctx := context.Background()
	s.createBook(t, "book-1", "Dune", "")

	group, err := s.groups.SetGroup(ctx, "book-1", "gid-dune")
	require.NoError(t, err)
	assert.Equal(t, "gid-dune", group.GID)

	require.NoError(t, s.groups.ClearGroup(ctx, "book-1"))
	require.NoError(t, s.groups.ClearGroup(ctx, "book-1"))

	got, err := s.groups.GetGroup(ctx, "book-1")
	require.NoError(t, err)
	assert.True(t, got.IsSingleton())
	assert.Equal(t, []string{"book-1"}, got.BookIDs)

	_, err = s.groups.GetBooksByGID(ctx, "gid-dune")
	assert.ErrorIs(t, err, domainerrors.ErrGroupNotFound)
}

func TestGroupFollowsMerge(t *testing.T) {
	s := setupServices(t, nil)
	ctx := context.Background()
	s.createBook(t, "book-1", "Dune", "")
	s.createBook(t, "book-2", "Dune", "")

	_, err := s.groups.SetGroup(ctx, "book-1", "gid-dune")
	require.NoError(t, err)

	rec, err := s.merges.Merge(ctx, "mod-1", MergeRequest{FromBookID: "book-1", ToBookID: "book-2"})
	require.NoError(t, err)
	assert.Equal(t, "gid-dune", rec.GID)

	got, err := s.groups.GetGroup(ctx, "book-1")
	require.NoError(t, err)
	assert.Equal(t, "gid-dune", got.GID)
	assert.Equal(t, []string{"book-2"}, got.BookIDs)
}
