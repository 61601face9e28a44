package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/listenupapp/bookid-server/internal/domain"
	domainerrors "github.com/listenupapp/bookid-server/internal/errors"
	"github.com/listenupapp/bookid-server/internal/id"
	"github.com/listenupapp/bookid-server/internal/store"
)

const mergeColumns = `id, from_book_id, to_book_id, actor_id, reason, metadata_synced,
	synced_fields, moved_isbns, dropped_isbns, preferences_moved, preferences_cleared,
	repointed, redirects_flattened, gid, created_at`

func scanMerge(scanner interface{ Scan(dest ...any) error }) (*domain.MergeRecord, error) {
	var m domain.MergeRecord

	var (
		synced       int
		syncedFields string
		moved        string
		dropped      string
		repointed    string
		createdAt    string
	)

	err := scanner.Scan(
		&m.ID,
		&m.FromBookID,
		&m.ToBookID,
		&m.ActorID,
		&m.Reason,
		&synced,
		&syncedFields,
		&moved,
		&dropped,
		&m.PreferencesMoved,
		&m.PreferencesCleared,
		&repointed,
		&m.RedirectsFlattened,
		&m.GID,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	m.MetadataSynced = synced != 0
	for _, col := range []struct {
		name string
		raw  string
		dst  any
	}{
		{"synced_fields", syncedFields, &m.SyncedFields},
		{"moved_isbns", moved, &m.MovedISBNs},
		{"dropped_isbns", dropped, &m.DroppedISBNs},
		{"repointed", repointed, &m.Repointed},
	} {
		if err := json.Unmarshal([]byte(col.raw), col.dst); err != nil {
			return nil, fmt.Errorf("decode %s: %w", col.name, err)
		}
	}

	if m.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &m, nil
}

// Merge consolidates req.FromBookID into req.ToBookID in a single transaction.
//
// Editions, preferences and collaborator references move to the target,
// metadata is optionally enriched, group membership is reassigned, the source
// is retired as a redirect and an audit record is written. Any failure rolls
// the whole merge back. With req.DryRun the plan is computed and rolled back.
func (s *Store) Merge(ctx context.Context, req domain.MergeRequest) (*domain.MergeRecord, error) {
	if req.FromBookID == req.ToBookID {
		return nil, domainerrors.ErrSameBook.WithDetails(map[string]string{"book_id": req.FromBookID})
	}

	mergeID, err := id.Generate(id.PrefixMerge)
	if err != nil {
		return nil, err
	}

	rec := &domain.MergeRecord{
		ID:           mergeID,
		FromBookID:   req.FromBookID,
		ToBookID:     req.ToBookID,
		ActorID:      req.ActorID,
		Reason:       req.Reason,
		SyncedFields: []string{},
		MovedISBNs:   []string{},
		DroppedISBNs: []string{},
		Repointed:    map[string]int{},
		DryRun:       req.DryRun,
		CreatedAt:    now(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after Commit is a no-op.

	if err := s.applyMerge(ctx, tx, req, rec); err != nil {
		return nil, err
	}

	if req.DryRun {
		return rec, nil
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit merge: %w", err)
	}
	return rec, nil
}

func (s *Store) applyMerge(ctx context.Context, tx *sql.Tx, req domain.MergeRequest, rec *domain.MergeRecord) error {
	from, err := getBook(ctx, tx, req.FromBookID)
	if err != nil {
		return err
	}
	if from.IsRetired() {
		return domainerrors.ErrAlreadyMerged.WithDetails(map[string]string{
			"book_id":     from.ID,
			"merged_into": from.MergedInto,
		})
	}
	to, err := getActiveBook(ctx, tx, req.ToBookID)
	if err != nil {
		return err
	}

	// 1. Editions.
	if err := moveEditions(ctx, tx, from.ID, to.ID, rec); err != nil {
		return err
	}

	// 2. Preferences.
	if err := movePreferences(ctx, tx, from.ID, to.ID, rec); err != nil {
		return err
	}

	// 3. Collaborators.
	for _, r := range s.registeredRepointers() {
		n, err := r.Repoint(ctx, tx, from.ID, to.ID)
		if err != nil {
			return fmt.Errorf("repoint %s: %w", r.Name(), err)
		}
		rec.Repointed[r.Name()] = n
	}

	// 4. Metadata.
	if req.SyncMetadata {
		rec.MetadataSynced = true
		if fields := to.Enrich(from); len(fields) > 0 {
			rec.SyncedFields = fields
			to.UpdatedAt = rec.CreatedAt
			if err := writeBookMetadata(ctx, tx, to); err != nil {
				return err
			}
		}
	}

	// 5. Group.
	if rec.GID, err = reassignGroup(ctx, tx, from, to); err != nil {
		return err
	}

	// 6. Retire and flatten redirects.
	stamp := formatTime(rec.CreatedAt)
	res, err := tx.ExecContext(ctx, `
		UPDATE books SET merged_into = ?, retired_at = ?, gid = NULL, updated_at = ?
		WHERE id = ? AND merged_into IS NULL`,
		to.ID, stamp, stamp, from.ID)
	if err != nil {
		return fmt.Errorf("retire book: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domainerrors.ErrAlreadyMerged.WithDetails(map[string]string{"book_id": from.ID})
	}

	res, err = tx.ExecContext(ctx,
		`UPDATE books SET merged_into = ?, updated_at = ? WHERE merged_into = ?`, to.ID, stamp, from.ID)
	if err != nil {
		return fmt.Errorf("flatten redirects: %w", err)
	}
	flattened, _ := res.RowsAffected()
	rec.RedirectsFlattened = int(flattened)

	if err := touchBook(ctx, tx, to.ID); err != nil {
		return err
	}

	// Reports.
	if req.ReportID != "" {
		if _, err := closeReport(ctx, tx, req.ReportID, domain.ReportResolved, req.ActorID,
			"merged "+from.ID+" into "+to.ID, rec.ID); err != nil {
			return err
		}
	}
	if _, err := resolveReportsForMerge(ctx, tx, from.ID, to.ID, req.ActorID, rec.ID); err != nil {
		return err
	}

	// 7. Audit record.
	return insertMerge(ctx, tx, rec)
}

// moveEditions re-points from's editions to to. Editions whose ISBN key is
// already on to are dropped; preferences choosing them go with them.
func moveEditions(ctx context.Context, tx store.Execer, fromID, toID string, rec *domain.MergeRecord) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT `+editionColumns+` FROM editions
		WHERE book_id = ? AND isbn_key IN (SELECT isbn_key FROM editions WHERE book_id = ?)
		`+editionOrder, fromID, toID)
	if err != nil {
		return err
	}
	colliding, err := collectEditions(rows)
	if err != nil {
		return err
	}

	for _, e := range colliding {
		var cleared int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM edition_preferences WHERE isbn = ?`, e.ISBN).Scan(&cleared); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM editions WHERE id = ?`, e.ID); err != nil {
			return fmt.Errorf("drop edition %s: %w", e.ISBN, err)
		}
		rec.PreferencesCleared += cleared
		rec.DroppedISBNs = append(rec.DroppedISBNs, e.ISBN)
	}

	var targetHasPrimary int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM editions WHERE book_id = ? AND is_primary = 1`, toID).
		Scan(&targetHasPrimary); err != nil {
		return err
	}
	if targetHasPrimary > 0 {
		if _, err := tx.ExecContext(ctx,
			`UPDATE editions SET is_primary = 0 WHERE book_id = ? AND is_primary = 1`, fromID); err != nil {
			return fmt.Errorf("demote primary: %w", err)
		}
	}

	rows, err = tx.QueryContext(ctx,
		`SELECT `+editionColumns+` FROM editions WHERE book_id = ? `+editionOrder, fromID)
	if err != nil {
		return err
	}
	moving, err := collectEditions(rows)
	if err != nil {
		return err
	}
	for _, e := range moving {
		rec.MovedISBNs = append(rec.MovedISBNs, e.ISBN)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE editions SET book_id = ? WHERE book_id = ?`, toID, fromID); err != nil {
		return fmt.Errorf("move editions: %w", err)
	}
	return nil
}

// movePreferences re-points preferences to to. A user who already chose an
// edition of to keeps that choice and the from preference is cleared.
func movePreferences(ctx context.Context, tx store.Execer, fromID, toID string, rec *domain.MergeRecord) error {
	res, err := tx.ExecContext(ctx, `
		DELETE FROM edition_preferences
		WHERE book_id = ?
		AND user_id IN (SELECT user_id FROM edition_preferences WHERE book_id = ?)`,
		fromID, toID)
	if err != nil {
		return fmt.Errorf("clear shadowed preferences: %w", err)
	}
	cleared, _ := res.RowsAffected()
	rec.PreferencesCleared += int(cleared)

	res, err = tx.ExecContext(ctx,
		`UPDATE edition_preferences SET book_id = ? WHERE book_id = ?`, toID, fromID)
	if err != nil {
		return fmt.Errorf("move preferences: %w", err)
	}
	moved, _ := res.RowsAffected()
	rec.PreferencesMoved = int(moved)
	return nil
}

func insertMerge(ctx context.Context, tx store.Execer, rec *domain.MergeRecord) error {
	encoded := make([]any, 0, 4)
	for _, v := range []any{rec.SyncedFields, rec.MovedISBNs, rec.DroppedISBNs, rec.Repointed} {
		s, err := marshalJSON(v)
		if err != nil {
			return err
		}
		encoded = append(encoded, s)
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO book_merges (`+mergeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.FromBookID,
		rec.ToBookID,
		rec.ActorID,
		rec.Reason,
		boolToInt(rec.MetadataSynced),
		encoded[0],
		encoded[1],
		encoded[2],
		rec.PreferencesMoved,
		rec.PreferencesCleared,
		encoded[3],
		rec.RedirectsFlattened,
		rec.GID,
		formatTime(rec.CreatedAt),
	)
	if store.IsUniqueViolationOn(err, "book_merges", "from_book_id") {
		return domainerrors.ErrAlreadyMerged.WithDetails(map[string]string{"book_id": rec.FromBookID})
	}
	if err != nil {
		return fmt.Errorf("insert merge record: %w", err)
	}
	return nil
}

// ListMerges returns the merges into or out of a book, oldest first.
func (s *Store) ListMerges(ctx context.Context, bookID string) ([]*domain.MergeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+mergeColumns+` FROM book_merges
		WHERE from_book_id = ? OR to_book_id = ?
		ORDER BY created_at ASC, id ASC`, bookID, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	merges := []*domain.MergeRecord{}
	for rows.Next() {
		m, err := scanMerge(rows)
		if err != nil {
			return nil, err
		}
		merges = append(merges, m)
	}
	return merges, rows.Err()
}
