package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/listenupapp/bookid-server/internal/domain"
	domainerrors "github.com/listenupapp/bookid-server/internal/errors"
	"github.com/listenupapp/bookid-server/internal/id"
	"github.com/listenupapp/bookid-server/internal/store"
)

// GetGroup returns the group of an active book with all active members.
// A book without a group is returned as a singleton with an empty GID.
func (s *Store) GetGroup(ctx context.Context, bookID string) (*domain.Group, error) {
	b, err := getActiveBook(ctx, s.db, bookID)
	if err != nil {
		return nil, err
	}
	if b.GID == "" {
		return &domain.Group{BookIDs: []string{b.ID}}, nil
	}

	ids, err := groupMemberIDs(ctx, s.db, b.GID)
	if err != nil {
		return nil, err
	}
	return &domain.Group{GID: b.GID, BookIDs: ids}, nil
}

func groupMemberIDs(ctx context.Context, q store.Execer, gid string) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id FROM books WHERE gid = ? AND merged_into IS NULL ORDER BY created_at, id`, gid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var bookID string
		if err := rows.Scan(&bookID); err != nil {
			return nil, err
		}
		ids = append(ids, bookID)
	}
	return ids, rows.Err()
}

// GetBooksByGID returns the active books of a group.
func (s *Store) GetBooksByGID(ctx context.Context, gid string) ([]*domain.Book, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM book_groups WHERE gid = ?`, gid).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, domainerrors.ErrGroupNotFound.WithDetails(map[string]string{"gid": gid})
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE gid = ? AND merged_into IS NULL ORDER BY created_at, id`, gid)
	if err != nil {
		return nil, err
	}
	books, err := collectBooks(rows)
	if err != nil {
		return nil, err
	}
	if books == nil {
		books = []*domain.Book{}
	}
	return books, nil
}

// SetGroup assigns an active book to gid, creating the group when needed.
// An empty gid creates a fresh group. The previous group is deleted if it
// becomes empty. Returns the assigned gid.
func (s *Store) SetGroup(ctx context.Context, bookID, gid string) (string, error) {
	if gid == "" {
		generated, err := id.Generate(id.PrefixGroup)
		if err != nil {
			return "", err
		}
		gid = generated
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		b, err := getActiveBook(ctx, tx, bookID)
		if err != nil {
			return err
		}
		if b.GID == gid {
			return nil
		}

		if err := ensureGroup(ctx, tx, gid); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE books SET gid = ?, updated_at = ? WHERE id = ?`,
			gid, formatTime(now()), bookID); err != nil {
			return fmt.Errorf("assign group: %w", err)
		}
		return deleteEmptyGroups(ctx, tx, b.GID)
	})
	if err != nil {
		return "", err
	}
	return gid, nil
}

// ClearGroup removes an active book from its group.
func (s *Store) ClearGroup(ctx context.Context, bookID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		b, err := getActiveBook(ctx, tx, bookID)
		if err != nil {
			return err
		}
		if b.GID == "" {
			return nil
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE books SET gid = NULL, updated_at = ? WHERE id = ?`,
			formatTime(now()), bookID); err != nil {
			return fmt.Errorf("clear group: %w", err)
		}
		return deleteEmptyGroups(ctx, tx, b.GID)
	})
}

func ensureGroup(ctx context.Context, q store.Execer, gid string) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO book_groups (gid, created_at) VALUES (?, ?) ON CONFLICT(gid) DO NOTHING`,
		gid, formatTime(now()))
	if err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	return nil
}

// deleteEmptyGroups drops each named group that no book references.
func deleteEmptyGroups(ctx context.Context, q store.Execer, gids ...string) error {
	var named []string
	for _, gid := range gids {
		if gid != "" {
			named = append(named, gid)
		}
	}
	if len(named) == 0 {
		return nil
	}

	_, err := q.ExecContext(ctx, `
		DELETE FROM book_groups
		WHERE gid IN (`+placeholders(len(named))+`)
		AND NOT EXISTS (SELECT 1 FROM books WHERE books.gid = book_groups.gid)`,
		stringArgs(named)...)
	if err != nil {
		return fmt.Errorf("delete empty groups: %w", err)
	}
	return nil
}

// reassignGroup keeps group membership consistent when from merges into to.
//
// from leaves its group. If to has no group it joins from's group; if both
// have different groups, every member of from's group moves to to's group.
// Groups left without members are deleted. Returns to's resulting gid.
func reassignGroup(ctx context.Context, q store.Execer, from, to *domain.Book) (string, error) {
	if from.GID == "" {
		return to.GID, nil
	}

	stamp := formatTime(now())
	if _, err := q.ExecContext(ctx,
		`UPDATE books SET gid = NULL WHERE id = ?`, from.ID); err != nil {
		return "", fmt.Errorf("detach from group: %w", err)
	}

	result := to.GID
	switch {
	case to.GID == "":
		if _, err := q.ExecContext(ctx,
			`UPDATE books SET gid = ?, updated_at = ? WHERE id = ?`, from.GID, stamp, to.ID); err != nil {
			return "", fmt.Errorf("join group: %w", err)
		}
		result = from.GID
	case to.GID != from.GID:
		if _, err := q.ExecContext(ctx,
			`UPDATE books SET gid = ?, updated_at = ? WHERE gid = ?`, to.GID, stamp, from.GID); err != nil {
			return "", fmt.Errorf("fold group: %w", err)
		}
	}

	if err := deleteEmptyGroups(ctx, q, from.GID); err != nil {
		return "", err
	}
	return result, nil
}
