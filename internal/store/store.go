package store

import (
	"context"
	"database/sql"

	"github.com/listenupapp/bookid-server/internal/domain"
)

// EventEmitter is the interface for emitting identity events.
// Services use it to broadcast changes without depending on the SSE implementation.
type EventEmitter interface {
	Emit(event any)
}

// NoopEmitter is a no-op implementation of EventEmitter for testing.
type NoopEmitter struct{}

// Emit implements EventEmitter.Emit as a no-op.
func (NoopEmitter) Emit(_ any) {}

// NewNoopEmitter creates a new no-op emitter for testing.
func NewNoopEmitter() EventEmitter {
	return NoopEmitter{}
}

// SearchIndexer keeps the duplicate-candidate index in sync with the catalog.
type SearchIndexer interface {
	IndexBook(ctx context.Context, book *domain.Book, isbnKeys []string) error
	DeleteBook(ctx context.Context, bookID string) error
}

// NoopSearchIndexer is a no-op implementation for testing.
type NoopSearchIndexer struct{}

// IndexBook is a no-op.
func (NoopSearchIndexer) IndexBook(context.Context, *domain.Book, []string) error { return nil }

// DeleteBook is a no-op.
func (NoopSearchIndexer) DeleteBook(context.Context, string) error { return nil }

// NewNoopSearchIndexer creates a new no-op search indexer for testing.
func NewNoopSearchIndexer() SearchIndexer {
	return NoopSearchIndexer{}
}

// Execer is the subset of *sql.Tx handed to repointers.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repointer moves a collaborator's references from one book to another.
// It runs inside the merge transaction; returning an error aborts the merge.
type Repointer interface {
	// Name identifies the collaborator in merge records.
	Name() string
	// Repoint rewrites references to fromID so they name toID and reports how
	// many rows it touched.
	Repoint(ctx context.Context, tx Execer, fromID, toID string) (int, error)
}

// RepointerFunc adapts a function to the Repointer interface.
type RepointerFunc struct {
	Label string
	Fn    func(ctx context.Context, tx Execer, fromID, toID string) (int, error)
}

// Name implements Repointer.
func (f RepointerFunc) Name() string { return f.Label }

// Repoint implements Repointer.
func (f RepointerFunc) Repoint(ctx context.Context, tx Execer, fromID, toID string) (int, error) {
	return f.Fn(ctx, tx, fromID, toID)
}
