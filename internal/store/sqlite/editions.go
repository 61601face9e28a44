package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/listenupapp/bookid-server/internal/domain"
	domainerrors "github.com/listenupapp/bookid-server/internal/errors"
	"github.com/listenupapp/bookid-server/internal/id"
	"github.com/listenupapp/bookid-server/internal/isbn"
	"github.com/listenupapp/bookid-server/internal/store"
)

const editionColumns = `id, isbn, isbn_key, book_id, label, publish_year, is_primary, created_at`

// editionOrder puts the primary first, then known years ascending, then insertion order.
const editionOrder = `ORDER BY is_primary DESC, publish_year IS NULL, publish_year ASC, created_at ASC, id ASC`

func scanEdition(scanner interface{ Scan(dest ...any) error }) (*domain.Edition, error) {
	var e domain.Edition

	var (
		year      sql.NullInt64
		isPrimary int
		createdAt string
	)

	err := scanner.Scan(
		&e.ID,
		&e.ISBN,
		&e.ISBNKey,
		&e.BookID,
		&e.Label,
		&year,
		&isPrimary,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	if year.Valid {
		y := int(year.Int64)
		e.PublishYear = &y
	}
	e.IsPrimary = isPrimary != 0

	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &e, nil
}

func collectEditions(rows *sql.Rows) ([]*domain.Edition, error) {
	defer rows.Close()

	editions := []*domain.Edition{}
	for rows.Next() {
		e, err := scanEdition(rows)
		if err != nil {
			return nil, err
		}
		editions = append(editions, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return editions, nil
}

// editionsForBook lists a book's editions in display order.
func editionsForBook(ctx context.Context, q store.Execer, bookID string) ([]*domain.Edition, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+editionColumns+` FROM editions WHERE book_id = ? `+editionOrder, bookID)
	if err != nil {
		return nil, err
	}
	return collectEditions(rows)
}

// AddEdition attaches an ISBN to an active book.
//
// The ISBN is stored normalized and must be unused everywhere, so two
// hyphenations of one ISBN can never sit on different books. An ISBN-10 and its
// ISBN-13 may live on different books (that is a merge candidate) but not on
// the same one. When the edition is primary the previous primary is demoted in
// the same transaction. The unique indexes on editions close the race between
// concurrent inserts of the same ISBN.
func (s *Store) AddEdition(ctx context.Context, edition *domain.Edition) error {
	if edition.ID == "" {
		generated, err := id.Generate(id.PrefixEdition)
		if err != nil {
			return err
		}
		edition.ID = generated
	}
	edition.ISBN = isbn.Normalize(edition.ISBN)
	edition.ISBNKey = isbn.Key(edition.ISBN)
	edition.CreatedAt = now()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getActiveBook(ctx, tx, edition.BookID); err != nil {
			return err
		}

		var owner string
		err := tx.QueryRowContext(ctx,
			`SELECT book_id FROM editions WHERE isbn = ?`, edition.ISBN).Scan(&owner)
		switch {
		case err == nil:
			return duplicateISBN(edition.ISBN, owner)
		case !errors.Is(err, sql.ErrNoRows):
			return err
		}

		var equivalent string
		err = tx.QueryRowContext(ctx,
			`SELECT isbn FROM editions WHERE book_id = ? AND isbn_key = ?`,
			edition.BookID, edition.ISBNKey).Scan(&equivalent)
		switch {
		case err == nil:
			return domainerrors.ErrDuplicateISBN.WithDetails(map[string]string{
				"isbn":       edition.ISBN,
				"book_id":    edition.BookID,
				"equivalent": equivalent,
			})
		case !errors.Is(err, sql.ErrNoRows):
			return err
		}

		if edition.IsPrimary {
			if _, err := tx.ExecContext(ctx,
				`UPDATE editions SET is_primary = 0 WHERE book_id = ? AND is_primary = 1`,
				edition.BookID); err != nil {
				return fmt.Errorf("demote primary: %w", err)
			}
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO editions (`+editionColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			edition.ID,
			edition.ISBN,
			edition.ISBNKey,
			edition.BookID,
			edition.Label,
			nullIntPtr(edition.PublishYear),
			boolToInt(edition.IsPrimary),
			formatTime(edition.CreatedAt),
		)
		if store.IsUniqueViolationOn(err, "editions", "isbn") || store.IsUniqueViolationOn(err, "editions", "isbn_key") {
			return duplicateISBN(edition.ISBN, edition.BookID)
		}
		if err != nil {
			return fmt.Errorf("insert edition: %w", err)
		}

		return touchBook(ctx, tx, edition.BookID)
	})
}

func duplicateISBN(raw, owner string) error {
	return domainerrors.ErrDuplicateISBN.WithDetails(map[string]string{
		"isbn":    raw,
		"book_id": owner,
	})
}

// GetEditions returns the editions of a book. The book is not checked.
func (s *Store) GetEditions(ctx context.Context, bookID string) ([]*domain.Edition, error) {
	return editionsForBook(ctx, s.db, bookID)
}

// GetEditionByISBN finds an edition by its ISBN, ignoring hyphens and spaces,
// falling back to the equivalence key. A key is shared by at most an ISBN-10
// and its ISBN-13, and the exact match always wins, so the fallback only
// answers for the form that is not stored.
func (s *Store) GetEditionByISBN(ctx context.Context, raw string) (*domain.Edition, error) {
	e, err := exactEdition(ctx, s.db, raw)
	if err == nil || !errors.Is(err, domainerrors.ErrEditionNotFound) {
		return e, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+editionColumns+` FROM editions WHERE isbn_key = ? ORDER BY created_at LIMIT 1`,
		isbn.Key(raw))
	e, err = scanEdition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainerrors.ErrEditionNotFound.WithDetails(map[string]string{"isbn": raw})
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// exactEdition matches the normalized ISBN only. Writes go through it so an
// equivalent ISBN-10/13 on another book is never touched.
func exactEdition(ctx context.Context, q store.Execer, raw string) (*domain.Edition, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+editionColumns+` FROM editions WHERE isbn = ?`, isbn.Normalize(raw))
	e, err := scanEdition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainerrors.ErrEditionNotFound.WithDetails(map[string]string{"isbn": raw})
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// RemoveEdition deletes the edition with exactly this ISBN, hyphenation aside.
// Unlike GetEditionByISBN it never falls back to the equivalence key. Preferences
// that chose it are cleared by the cascading foreign key in the same statement.
// The book is never deleted.
func (s *Store) RemoveEdition(ctx context.Context, raw string) (*store.RemovedEdition, error) {
	var removed store.RemovedEdition
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		e, err := exactEdition(ctx, tx, raw)
		if err != nil {
			return err
		}

		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM edition_preferences WHERE isbn = ?`, e.ISBN).
			Scan(&removed.PreferencesCleared); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM editions WHERE id = ?`, e.ID); err != nil {
			return fmt.Errorf("delete edition: %w", err)
		}
		removed.Edition = e

		return touchBook(ctx, tx, e.BookID)
	})
	if err != nil {
		return nil, err
	}
	return &removed, nil
}

// FindISBNKeyCollisions returns editions of other active books whose ISBN is
// equivalent to one of bookID's ISBNs.
func (s *Store) FindISBNKeyCollisions(ctx context.Context, bookID string) ([]*domain.Edition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+prefixed("o", editionColumns)+`
		FROM editions o
		JOIN editions mine ON mine.isbn_key = o.isbn_key AND mine.book_id = ?
		JOIN books b ON b.id = o.book_id AND b.merged_into IS NULL
		WHERE o.book_id <> ?
		ORDER BY o.book_id, o.isbn`, bookID, bookID)
	if err != nil {
		return nil, err
	}
	return collectEditions(rows)
}
