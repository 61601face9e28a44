package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/listenupapp/bookid-server/internal/domain"
	domainerrors "github.com/listenupapp/bookid-server/internal/errors"
	"github.com/listenupapp/bookid-server/internal/store"
)

const bookColumns = `id, title, author, description, page_count, publish_year, cover_url,
	gid, merged_into, retired_at, created_at, updated_at`

// scanBook scans a sql.Row (or sql.Rows via its Scan method) into a domain.Book.
func scanBook(scanner interface{ Scan(dest ...any) error }) (*domain.Book, error) {
	var b domain.Book

	var (
		gid        sql.NullString
		mergedInto sql.NullString
		retiredAt  sql.NullString
		createdAt  string
		updatedAt  string
	)

	err := scanner.Scan(
		&b.ID,
		&b.Title,
		&b.Author,
		&b.Description,
		&b.PageCount,
		&b.PublishYear,
		&b.CoverURL,
		&gid,
		&mergedInto,
		&retiredAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.GID = gid.String
	b.MergedInto = mergedInto.String

	if b.RetiredAt, err = parseNullableTime(retiredAt); err != nil {
		return nil, fmt.Errorf("parse retired_at: %w", err)
	}
	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if b.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &b, nil
}

// getBook loads a book row, retired or not.
func getBook(ctx context.Context, q store.Execer, id string) (*domain.Book, error) {
	row := q.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE id = ?`, id)
	b, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainerrors.BookNotFoundf("book %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// getActiveBook loads a book and fails with BookNotFound when it is retired.
func getActiveBook(ctx context.Context, q store.Execer, id string) (*domain.Book, error) {
	b, err := getBook(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if b.IsRetired() {
		return nil, domainerrors.BookNotFoundf("book %s was merged into %s", id, b.MergedInto).
			WithDetails(map[string]string{"merged_into": b.MergedInto})
	}
	return b, nil
}

// CreateBook inserts a new book.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) error {
	if book.CreatedAt.IsZero() {
		book.InitTimestamps()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO books (
			id, title, author, description, page_count, publish_year, cover_url,
			gid, merged_into, retired_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, NULL, NULL, NULL, ?, ?)`,
		book.ID,
		book.Title,
		book.Author,
		book.Description,
		book.PageCount,
		book.PublishYear,
		book.CoverURL,
		formatTime(book.CreatedAt),
		formatTime(book.UpdatedAt),
	)
	if store.IsUniqueViolation(err) {
		return domainerrors.Conflictf("book %s already exists", book.ID)
	}
	if err != nil {
		return fmt.Errorf("insert book: %w", err)
	}
	return nil
}

// GetBook retrieves a book by ID, including retired books.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	return getBook(ctx, s.db, id)
}

// ResolveBook follows merge redirects and returns the canonical book.
// redirectedFrom is the requested id when it named a retired book.
func (s *Store) ResolveBook(ctx context.Context, id string) (*domain.Book, string, error) {
	current := id
	for range maxRedirectHops {
		b, err := getBook(ctx, s.db, current)
		if err != nil {
			return nil, "", err
		}
		if !b.IsRetired() {
			if current == id {
				return b, "", nil
			}
			return b, id, nil
		}
		current = b.MergedInto
	}
	return nil, "", fmt.Errorf("redirect chain from %s exceeds %d hops", id, maxRedirectHops)
}

// UpdateBook applies a partial metadata update to an active book.
func (s *Store) UpdateBook(ctx context.Context, id string, update domain.BookUpdate) (*domain.Book, error) {
	var updated *domain.Book
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		b, err := getActiveBook(ctx, tx, id)
		if err != nil {
			return err
		}
		update.Apply(b)
		b.Touch()
		if err := writeBookMetadata(ctx, tx, b); err != nil {
			return err
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// writeBookMetadata persists the metadata columns of b.
func writeBookMetadata(ctx context.Context, q store.Execer, b *domain.Book) error {
	_, err := q.ExecContext(ctx, `
		UPDATE books SET
			title = ?, author = ?, description = ?, page_count = ?,
			publish_year = ?, cover_url = ?, updated_at = ?
		WHERE id = ?`,
		b.Title, b.Author, b.Description, b.PageCount,
		b.PublishYear, b.CoverURL, formatTime(b.UpdatedAt),
		b.ID,
	)
	if err != nil {
		return fmt.Errorf("update book %s: %w", b.ID, err)
	}
	return nil
}

// touchBook bumps updated_at.
func touchBook(ctx context.Context, q store.Execer, id string) error {
	_, err := q.ExecContext(ctx, `UPDATE books SET updated_at = ? WHERE id = ?`, formatTime(now()), id)
	return err
}

// ListBooks returns a paginated list of active books ordered by updated_at, id.
func (s *Store) ListBooks(ctx context.Context, params store.PaginationParams) (*store.PaginatedResult[*domain.Book], error) {
	params.Validate()

	cursorTime, cursorID, err := store.DecodeCursor(params.Cursor)
	if err != nil {
		return nil, domainerrors.Validation(err.Error())
	}

	var total int
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM books WHERE merged_into IS NULL`).Scan(&total)
	if err != nil {
		return nil, err
	}

	var rows *sql.Rows
	if cursorID == "" {
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+bookColumns+` FROM books
			WHERE merged_into IS NULL
			ORDER BY updated_at ASC, id ASC
			LIMIT ?`, params.Limit+1)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+bookColumns+` FROM books
			WHERE merged_into IS NULL
			AND (updated_at > ? OR (updated_at = ? AND id > ?))
			ORDER BY updated_at ASC, id ASC
			LIMIT ?`, cursorTime, cursorTime, cursorID, params.Limit+1)
	}
	if err != nil {
		return nil, err
	}
	books, err := collectBooks(rows)
	if err != nil {
		return nil, err
	}

	return store.Paginate(books, params.Limit, total, func(b *domain.Book) (string, string) {
		return formatTime(b.UpdatedAt), b.ID
	}), nil
}

// ListActiveBooks returns every active book. Used to rebuild the search index.
func (s *Store) ListActiveBooks(ctx context.Context) ([]*domain.Book, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE merged_into IS NULL ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collectBooks(rows)
}

func collectBooks(rows *sql.Rows) ([]*domain.Book, error) {
	defer rows.Close()

	var books []*domain.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return books, nil
}
