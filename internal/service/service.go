// Package service implements the book identity operations on top of the
// store: catalog, editions, groups, duplicate reports, merges, and per-user
// edition preferences. Services validate input, wrap storage failures, keep
// the search index in sync, and emit identity events.
package service

import (
	"context"
	"log/slog"

	"github.com/listenupapp/bookid-server/internal/domain"
	domainerrors "github.com/listenupapp/bookid-server/internal/errors"
	"github.com/listenupapp/bookid-server/internal/search"
	"github.com/listenupapp/bookid-server/internal/store"
)

// CandidateSearcher finds books resembling a given one.
type CandidateSearcher interface {
	Candidates(ctx context.Context, params search.CandidateParams) ([]search.Candidate, error)
}

// Deps holds the collaborators shared by every service.
type Deps struct {
	Store  store.Store
	Index  store.SearchIndexer
	Events store.EventEmitter
	Logger *slog.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Index == nil {
		d.Index = store.NewNoopSearchIndexer()
	}
	if d.Events == nil {
		d.Events = store.NewNoopEmitter()
	}
	if d.Logger == nil {
		d.Logger = slog.New(slog.DiscardHandler)
	}
	return d
}

// storageErr keeps domain errors and wraps anything else as a storage failure.
func storageErr(err error, msg string) error {
	return domainerrors.Storage(err, msg)
}

// isbnKeys returns the equivalence keys of editions.
func isbnKeys(editions []*domain.Edition) []string {
	keys := make([]string, 0, len(editions))
	for _, e := range editions {
		keys = append(keys, e.ISBNKey)
	}
	return keys
}

// reindex refreshes a book's search document. The index is advisory, so
// failures are logged and swallowed.
func (d Deps) reindex(ctx context.Context, bookID string) {
	book, err := d.Store.GetBook(ctx, bookID)
	if err != nil {
		d.Logger.Warn("reindex: load book failed", "book_id", bookID, "error", err)
		return
	}
	if book.IsRetired() {
		d.unindex(ctx, bookID)
		return
	}
	editions, err := d.Store.GetEditions(ctx, bookID)
	if err != nil {
		d.Logger.Warn("reindex: load editions failed", "book_id", bookID, "error", err)
		return
	}
	if err := d.Index.IndexBook(ctx, book, isbnKeys(editions)); err != nil {
		d.Logger.Warn("reindex failed", "book_id", bookID, "error", err)
	}
}

func (d Deps) unindex(ctx context.Context, bookID string) {
	if err := d.Index.DeleteBook(ctx, bookID); err != nil {
		d.Logger.Warn("remove from search index failed", "book_id", bookID, "error", err)
	}
}
