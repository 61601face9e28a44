package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/listenupapp/bookid-server/internal/domain"
	domainerrors "github.com/listenupapp/bookid-server/internal/errors"
	"github.com/listenupapp/bookid-server/internal/id"
	"github.com/listenupapp/bookid-server/internal/store"
)

// Collaborator names used in merge records and reference counts.
const (
	CollabLibraryEntries = "library_entries"
	CollabReviews        = "reviews"
	CollabNotes          = "notes"
	CollabSubmissions    = "submissions"
)

// builtinRepointers returns the repointers for the collaborator tables this
// store hosts.
func builtinRepointers() []store.Repointer {
	return []store.Repointer{
		store.RepointerFunc{Label: CollabLibraryEntries, Fn: repointLibraryEntries},
		store.RepointerFunc{Label: CollabReviews, Fn: repointReviews},
		store.RepointerFunc{Label: CollabNotes, Fn: repointPlain("notes")},
		store.RepointerFunc{Label: CollabSubmissions, Fn: repointPlain("submissions")},
	}
}

// repointLibraryEntries moves shelf entries. A user shelving both books keeps
// one entry on the target carrying the furthest progress.
func repointLibraryEntries(ctx context.Context, tx store.Execer, fromID, toID string) (int, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE library_entries AS t
		SET status = f.status, progress = f.progress, updated_at = ?
		FROM library_entries AS f
		WHERE t.book_id = ? AND f.book_id = ?
		AND f.user_id = t.user_id AND f.progress > t.progress`,
		formatTime(now()), toID, fromID)
	if err != nil {
		return 0, fmt.Errorf("carry progress: %w", err)
	}
	carried, _ := res.RowsAffected()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM library_entries
		WHERE book_id = ?
		AND user_id IN (SELECT user_id FROM library_entries WHERE book_id = ?)`,
		fromID, toID); err != nil {
		return 0, fmt.Errorf("drop shadowed entries: %w", err)
	}

	res, err = tx.ExecContext(ctx,
		`UPDATE library_entries SET book_id = ? WHERE book_id = ?`, toID, fromID)
	if err != nil {
		return 0, fmt.Errorf("move entries: %w", err)
	}
	moved, _ := res.RowsAffected()
	return int(carried + moved), nil
}

// repointReviews moves reviews. Where a user reviewed both books the target's
// review wins.
func repointReviews(ctx context.Context, tx store.Execer, fromID, toID string) (int, error) {
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM reviews
		WHERE book_id = ?
		AND user_id IN (SELECT user_id FROM reviews WHERE book_id = ?)`,
		fromID, toID); err != nil {
		return 0, fmt.Errorf("drop shadowed reviews: %w", err)
	}

	res, err := tx.ExecContext(ctx, `UPDATE reviews SET book_id = ? WHERE book_id = ?`, toID, fromID)
	if err != nil {
		return 0, fmt.Errorf("move reviews: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func repointPlain(table string) func(context.Context, store.Execer, string, string) (int, error) {
	return func(ctx context.Context, tx store.Execer, fromID, toID string) (int, error) {
		res, err := tx.ExecContext(ctx,
			`UPDATE `+table+` SET book_id = ? WHERE book_id = ?`, toID, fromID)
		if err != nil {
			return 0, fmt.Errorf("move %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		return int(n), nil
	}
}

// UpsertLibraryEntry shelves an active book for a user, replacing the
// previous status and progress.
func (s *Store) UpsertLibraryEntry(ctx context.Context, entry *domain.LibraryEntry) error {
	if entry.ID == "" {
		entry.ID = id.MustGenerate("lib")
	}
	entry.UpdatedAt = now()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getActiveBook(ctx, tx, entry.BookID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO library_entries (id, user_id, book_id, status, progress, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(user_id, book_id) DO UPDATE SET
				status = excluded.status,
				progress = excluded.progress,
				updated_at = excluded.updated_at`,
			entry.ID, entry.UserID, entry.BookID, entry.Status, entry.Progress, formatTime(entry.UpdatedAt))
		if err != nil {
			return fmt.Errorf("upsert library entry: %w", err)
		}
		return tx.QueryRowContext(ctx,
			`SELECT id FROM library_entries WHERE user_id = ? AND book_id = ?`,
			entry.UserID, entry.BookID).Scan(&entry.ID)
	})
}

// ListLibraryEntries returns the shelf entries of a book.
func (s *Store) ListLibraryEntries(ctx context.Context, bookID string) ([]*domain.LibraryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, book_id, status, progress, updated_at
		FROM library_entries WHERE book_id = ? ORDER BY user_id`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []*domain.LibraryEntry{}
	for rows.Next() {
		var e domain.LibraryEntry
		var updatedAt string
		if err := rows.Scan(&e.ID, &e.UserID, &e.BookID, &e.Status, &e.Progress, &updatedAt); err != nil {
			return nil, err
		}
		if e.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, fmt.Errorf("parse updated_at: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// UpsertReview records a user's review of an active book.
func (s *Store) UpsertReview(ctx context.Context, review *domain.Review) error {
	if review.Rating < 1 || review.Rating > 5 {
		return domainerrors.Validationf("rating must be between 1 and 5, got %d", review.Rating)
	}
	if review.ID == "" {
		review.ID = id.MustGenerate("review")
	}
	review.CreatedAt = now()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getActiveBook(ctx, tx, review.BookID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO reviews (id, user_id, book_id, rating, body, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(user_id, book_id) DO UPDATE SET
				rating = excluded.rating,
				body = excluded.body`,
			review.ID, review.UserID, review.BookID, review.Rating, review.Body, formatTime(review.CreatedAt))
		if err != nil {
			return fmt.Errorf("upsert review: %w", err)
		}
		return tx.QueryRowContext(ctx,
			`SELECT id FROM reviews WHERE user_id = ? AND book_id = ?`,
			review.UserID, review.BookID).Scan(&review.ID)
	})
}

// ListReviews returns the reviews of a book.
func (s *Store) ListReviews(ctx context.Context, bookID string) ([]*domain.Review, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, book_id, rating, body, created_at
		FROM reviews WHERE book_id = ? ORDER BY created_at, id`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := []*domain.Review{}
	for rows.Next() {
		var r domain.Review
		var createdAt string
		if err := rows.Scan(&r.ID, &r.UserID, &r.BookID, &r.Rating, &r.Body, &createdAt); err != nil {
			return nil, err
		}
		if r.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		reviews = append(reviews, &r)
	}
	return reviews, rows.Err()
}

// AddNote attaches a note to an active book.
func (s *Store) AddNote(ctx context.Context, note *domain.Note) error {
	if strings.TrimSpace(note.Body) == "" {
		return domainerrors.Validation("note body is required")
	}
	if note.ID == "" {
		note.ID = id.MustGenerate("note")
	}
	note.CreatedAt = now()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getActiveBook(ctx, tx, note.BookID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO notes (id, user_id, book_id, body, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			note.ID, note.UserID, note.BookID, note.Body, formatTime(note.CreatedAt))
		if err != nil {
			return fmt.Errorf("insert note: %w", err)
		}
		return nil
	})
}

// ListNotes returns the notes on a book.
func (s *Store) ListNotes(ctx context.Context, bookID string) ([]*domain.Note, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, book_id, body, created_at
		FROM notes WHERE book_id = ? ORDER BY created_at, id`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := []*domain.Note{}
	for rows.Next() {
		var n domain.Note
		var createdAt string
		if err := rows.Scan(&n.ID, &n.UserID, &n.BookID, &n.Body, &createdAt); err != nil {
			return nil, err
		}
		if n.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		notes = append(notes, &n)
	}
	return notes, rows.Err()
}

// submissionKinds are the accepted Submission.Kind values.
var submissionKinds = map[string]bool{
	"chapter":   true,
	"character": true,
	"tag":       true,
	"summary":   true,
}

// AddSubmission records a user contribution against an active book.
func (s *Store) AddSubmission(ctx context.Context, sub *domain.Submission) error {
	if !submissionKinds[sub.Kind] {
		return domainerrors.Validationf("unknown submission kind %q", sub.Kind)
	}
	if sub.ID == "" {
		sub.ID = id.MustGenerate("sub")
	}
	sub.CreatedAt = now()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getActiveBook(ctx, tx, sub.BookID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO submissions (id, user_id, book_id, kind, content, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			sub.ID, sub.UserID, sub.BookID, sub.Kind, sub.Content, formatTime(sub.CreatedAt))
		if err != nil {
			return fmt.Errorf("insert submission: %w", err)
		}
		return nil
	})
}

// ListSubmissions returns the contributions made against a book.
func (s *Store) ListSubmissions(ctx context.Context, bookID string) ([]*domain.Submission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, book_id, kind, content, created_at
		FROM submissions WHERE book_id = ? ORDER BY created_at, id`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := []*domain.Submission{}
	for rows.Next() {
		var sub domain.Submission
		var createdAt string
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.BookID, &sub.Kind, &sub.Content, &createdAt); err != nil {
			return nil, err
		}
		if sub.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		subs = append(subs, &sub)
	}
	return subs, rows.Err()
}

// referenceQueries count rows naming a book, keyed by what they count.
var referenceQueries = map[string]string{
	"editions":           `SELECT COUNT(*) FROM editions WHERE book_id = ?`,
	"preferences":        `SELECT COUNT(*) FROM edition_preferences WHERE book_id = ?`,
	"pending_reports":    `SELECT COUNT(*) FROM duplicate_reports WHERE book_id = ? AND status = 'pending'`,
	CollabLibraryEntries: `SELECT COUNT(*) FROM library_entries WHERE book_id = ?`,
	CollabReviews:        `SELECT COUNT(*) FROM reviews WHERE book_id = ?`,
	CollabNotes:          `SELECT COUNT(*) FROM notes WHERE book_id = ?`,
	CollabSubmissions:    `SELECT COUNT(*) FROM submissions WHERE book_id = ?`,
}

// CountReferences reports how many live records name bookID. After a merge
// every count for the retired book is zero.
func (s *Store) CountReferences(ctx context.Context, bookID string) (map[string]int, error) {
	counts := make(map[string]int, len(referenceQueries))
	for name, query := range referenceQueries {
		var n int
		if err := s.db.QueryRowContext(ctx, query, bookID).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", name, err)
		}
		counts[name] = n
	}
	return counts, nil
}
