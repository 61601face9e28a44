package domain

import "time"

// The records below belong to collaborating features. The identity service
// only owns their book_id column, which it re-points on merge.

// LibraryEntry is a book on a user's shelf with reading progress.
type LibraryEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	BookID    string    `json:"book_id"`
	Status    string    `json:"status"`
	Progress  int       `json:"progress"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Review is a user's rating of a book.
type Review struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	BookID    string    `json:"book_id"`
	Rating    int       `json:"rating"`
	Body      string    `json:"body,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Note is a user's free-text note on a book.
type Note struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	BookID    string    `json:"book_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Submission is a user-contributed chapter, character, tag, or summary.
type Submission struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	BookID    string    `json:"book_id"`
	Kind      string    `json:"kind"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
