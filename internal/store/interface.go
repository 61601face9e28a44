// Package store defines the persistence interface for the book identity service.
package store

import (
	"context"

	"github.com/listenupapp/bookid-server/internal/domain"
)

// RemovedEdition describes the outcome of deleting an edition.
type RemovedEdition struct {
	Edition            *domain.Edition
	PreferencesCleared int
}

// Store defines the interface for all persistence operations.
//
// Book lookups by identifier come in two flavours: GetBook returns the stored
// row whether or not it is retired, ResolveBook follows the merge redirect to
// the canonical book.
type Store interface {
	// Lifecycle
	Close() error
	Ping(ctx context.Context) error
	RegisterRepointer(r Repointer)

	// Books
	CreateBook(ctx context.Context, book *domain.Book) error
	GetBook(ctx context.Context, id string) (*domain.Book, error)
	ResolveBook(ctx context.Context, id string) (book *domain.Book, redirectedFrom string, err error)
	UpdateBook(ctx context.Context, id string, update domain.BookUpdate) (*domain.Book, error)
	ListBooks(ctx context.Context, params PaginationParams) (*PaginatedResult[*domain.Book], error)
	ListActiveBooks(ctx context.Context) ([]*domain.Book, error)

	// Editions
	AddEdition(ctx context.Context, edition *domain.Edition) error
	GetEditions(ctx context.Context, bookID string) ([]*domain.Edition, error)
	GetEditionByISBN(ctx context.Context, isbn string) (*domain.Edition, error)
	RemoveEdition(ctx context.Context, isbn string) (*RemovedEdition, error)
	FindISBNKeyCollisions(ctx context.Context, bookID string) ([]*domain.Edition, error)

	// Groups
	GetGroup(ctx context.Context, bookID string) (*domain.Group, error)
	GetBooksByGID(ctx context.Context, gid string) ([]*domain.Book, error)
	SetGroup(ctx context.Context, bookID, gid string) (string, error)
	ClearGroup(ctx context.Context, bookID string) error

	// Duplicate reports
	CreateReport(ctx context.Context, report *domain.DuplicateReport) error
	GetReport(ctx context.Context, id string) (*domain.DuplicateReport, error)
	ListReports(ctx context.Context, status domain.ReportStatus, params PaginationParams) (*PaginatedResult[*domain.DuplicateReport], error)
	CloseReport(ctx context.Context, id string, status domain.ReportStatus, actorID, resolution string) (*domain.DuplicateReport, error)

	// Edition preferences
	SetPreference(ctx context.Context, userID, bookID, isbn string) (*domain.EditionPreference, error)
	GetPreference(ctx context.Context, userID, bookID string) (*domain.EditionPreference, error)
	DeletePreference(ctx context.Context, userID, bookID string) error

	// Merges
	Merge(ctx context.Context, req domain.MergeRequest) (*domain.MergeRecord, error)
	ListMerges(ctx context.Context, bookID string) ([]*domain.MergeRecord, error)

	// Collaborator records
	UpsertLibraryEntry(ctx context.Context, entry *domain.LibraryEntry) error
	ListLibraryEntries(ctx context.Context, bookID string) ([]*domain.LibraryEntry, error)
	UpsertReview(ctx context.Context, review *domain.Review) error
	ListReviews(ctx context.Context, bookID string) ([]*domain.Review, error)
	AddNote(ctx context.Context, note *domain.Note) error
	ListNotes(ctx context.Context, bookID string) ([]*domain.Note, error)
	AddSubmission(ctx context.Context, sub *domain.Submission) error
	ListSubmissions(ctx context.Context, bookID string) ([]*domain.Submission, error)
	CountReferences(ctx context.Context, bookID string) (map[string]int, error)
}
