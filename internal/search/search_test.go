package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/bookid-server/internal/domain"
)

// setupTestIndex creates an in-memory search index for testing.
func setupTestIndex(t *testing.T) *SearchIndex {
	t.Helper()

	index, err := NewSearchIndex(Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	return index
}

func book(id, title, author string) *domain.Book {
	return &domain.Book{Record: domain.Record{ID: id}, Title: title, Author: author}
}

func candidateIDs(cs []Candidate) []string {
	ids := make([]string, len(cs))
	for i, c := range cs {
		ids[i] = c.BookID
	}
	return ids
}

func TestNewSearchIndex_InMemory(t *testing.T) {
	index := setupTestIndex(t)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestNewSearchIndex_OnDiskReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	index, err := NewSearchIndex(Options{Path: dir})
	require.NoError(t, err)
	require.NoError(t, index.IndexBook(ctx, book("book-1", "Dune", "Frank Herbert"), nil))
	require.NoError(t, index.Close())

	reopened, err := NewSearchIndex(Options{Path: dir})
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestIndexAndDeleteBook(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.IndexBook(ctx, book("book-1", "Dune", ""), nil))
	require.NoError(t, index.IndexBook(ctx, book("book-1", "Dune Messiah", ""), nil))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count, "re-indexing replaces the document")

	require.NoError(t, index.DeleteBook(ctx, "book-1"))
	count, err = index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestIndexBooks_Batch(t *testing.T) {
	index := setupTestIndex(t)

	docs := []*BookDocument{
		BookToDocument(book("book-1", "Book One", ""), nil),
		BookToDocument(book("book-2", "Book Two", ""), nil),
		BookToDocument(book("book-3", "Book Three", ""), nil),
	}
	require.NoError(t, index.IndexBooks(docs))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
}

func TestCandidates_FoldedTitle(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.IndexBook(ctx, book("book-1", "The Hobbit", "J.R.R. Tolkien"), nil))
	require.NoError(t, index.IndexBook(ctx, book("book-2", "Hobbit: or There and Back Again", "Tolkien, J. R. R."), nil))
	require.NoError(t, index.IndexBook(ctx, book("book-3", "Dune", "Frank Herbert"), nil))

	got, err := index.Candidates(ctx, CandidateParams{Book: book("book-1", "The Hobbit", "J.R.R. Tolkien")})
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "book-2", got[0].BookID)
	assert.Contains(t, got[0].Reasons, ReasonTitle)
	assert.Contains(t, got[0].Reasons, ReasonAuthor)
}

func TestCandidates_TypoTolerance(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.IndexBook(ctx, book("book-1", "Neuromancer", "William Gibson"), nil))

	got, err := index.Candidates(ctx, CandidateParams{Book: book("book-2", "Neuromancr", "")})
	require.NoError(t, err)
	assert.Equal(t, []string{"book-1"}, candidateIDs(got))
}

func TestCandidates_ISBNKey(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.IndexBook(ctx, book("book-1", "Clean Architecture", ""), []string{"9780134494166"}))
	require.NoError(t, index.IndexBook(ctx, book("book-2", "Something Else", ""), []string{"9781593275846"}))

	got, err := index.Candidates(ctx, CandidateParams{
		Book:     book("book-3", "Unrelated Title", ""),
		ISBNKeys: []string{"9780134494166"},
	})
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "book-1", got[0].BookID)
	assert.Equal(t, []string{ReasonISBN}, got[0].Reasons)
}

func TestCandidates_ExcludesSelfAndDeleted(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.IndexBook(ctx, book("book-1", "Dune", ""), nil))
	require.NoError(t, index.IndexBook(ctx, book("book-2", "Dune", ""), nil))
	require.NoError(t, index.DeleteBook(ctx, "book-2"))

	got, err := index.Candidates(ctx, CandidateParams{Book: book("book-1", "Dune", "")})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCandidates_Limit(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	for _, id := range []string{"book-1", "book-2", "book-3", "book-4"} {
		require.NoError(t, index.IndexBook(ctx, book(id, "Foundation", ""), nil))
	}

	got, err := index.Candidates(ctx, CandidateParams{Book: book("book-1", "Foundation", ""), Limit: 2})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.NotContains(t, candidateIDs(got), "book-1")
}

func TestCandidates_NothingToMatch(t *testing.T) {
	index := setupTestIndex(t)

	got, err := index.Candidates(context.Background(), CandidateParams{Book: book("book-1", "", "Someone")})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRebuild(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.IndexBook(ctx, book("book-1", "Dune", ""), nil))
	require.NoError(t, index.Rebuild())

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}
