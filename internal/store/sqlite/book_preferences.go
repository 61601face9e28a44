package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/listenupapp/bookid-server/internal/domain"
	domainerrors "github.com/listenupapp/bookid-server/internal/errors"
	"github.com/listenupapp/bookid-server/internal/isbn"
)

// scanPreference scans a sql.Row (or sql.Rows via its Scan method) into a domain.EditionPreference.
func scanPreference(scanner interface{ Scan(dest ...any) error }) (*domain.EditionPreference, error) {
	var p domain.EditionPreference
	var updatedAt string

	if err := scanner.Scan(&p.UserID, &p.BookID, &p.ISBN, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &p, nil
}

// SetPreference records the user's chosen edition of an active book.
// raw may be any equivalent form of one of the book's ISBNs; the stored
// preference always names the edition's exact ISBN.
func (s *Store) SetPreference(ctx context.Context, userID, bookID, raw string) (*domain.EditionPreference, error) {
	pref := domain.NewEditionPreference(userID, bookID, "")

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getActiveBook(ctx, tx, bookID); err != nil {
			return err
		}

		normalized := isbn.Normalize(raw)
		var exact string
		err := tx.QueryRowContext(ctx, `
			SELECT isbn FROM editions
			WHERE book_id = ? AND (isbn = ? OR isbn_key = ?)
			ORDER BY isbn = ? DESC
			LIMIT 1`,
			bookID, normalized, isbn.Key(raw), normalized).Scan(&exact)
		if errors.Is(err, sql.ErrNoRows) {
			return domainerrors.ErrInvalidEdition.WithDetails(map[string]string{
				"isbn":    raw,
				"book_id": bookID,
			})
		}
		if err != nil {
			return err
		}
		pref.ISBN = exact

		_, err = tx.ExecContext(ctx, `
			INSERT INTO edition_preferences (user_id, book_id, isbn, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(user_id, book_id) DO UPDATE SET
				isbn = excluded.isbn,
				updated_at = excluded.updated_at`,
			pref.UserID, pref.BookID, pref.ISBN, formatTime(pref.UpdatedAt))
		if err != nil {
			return fmt.Errorf("upsert preference: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pref, nil
}

// GetPreference returns the user's chosen edition of a book, or nil when none is set.
func (s *Store) GetPreference(ctx context.Context, userID, bookID string) (*domain.EditionPreference, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, book_id, isbn, updated_at
		FROM edition_preferences
		WHERE user_id = ? AND book_id = ?`,
		userID, bookID)

	pref, err := scanPreference(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return pref, nil
}

// DeletePreference clears the user's chosen edition. Idempotent.
func (s *Store) DeletePreference(ctx context.Context, userID, bookID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM edition_preferences WHERE user_id = ? AND book_id = ?`, userID, bookID)
	if err != nil {
		return fmt.Errorf("delete preference: %w", err)
	}
	return nil
}
