package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/listenupapp/bookid-server/internal/domain"
	domainerrors "github.com/listenupapp/bookid-server/internal/errors"
	"github.com/listenupapp/bookid-server/internal/store"
)

// snapshot renders every row of the identity and collaborator tables so two
// states can be compared exactly.
func snapshot(t *testing.T, s *Store) string {
	t.Helper()
	tables := []string{
		"books", "book_groups", "editions", "edition_preferences", "duplicate_reports",
		"book_merges", "library_entries", "reviews", "notes", "submissions",
	}

	var b strings.Builder
	for _, table := range tables {
		rows, err := s.db.Query(`SELECT * FROM ` + table + ` ORDER BY 1`)
		if err != nil {
			t.Fatalf("snapshot %s: %v", table, err)
		}
		cols, err := rows.Columns()
		if err != nil {
			t.Fatalf("columns %s: %v", table, err)
		}
		fmt.Fprintf(&b, "[%s]\n", table)
		for rows.Next() {
			values := make([]any, len(cols))
			ptrs := make([]any, len(cols))
			for i := range values {
				ptrs[i] = &values[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				t.Fatalf("scan %s: %v", table, err)
			}
			fmt.Fprintln(&b, values...)
		}
		if err := rows.Err(); err != nil {
			t.Fatalf("rows %s: %v", table, err)
		}
		rows.Close()
	}
	return b.String()
}

// seedMergeFixture builds two books with editions, preferences, groups,
// reports and collaborator rows.
func seedMergeFixture(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()

	from := &domain.Book{Record: domain.Record{ID: "book-5"}, Title: "Five", Description: "A gripping tale", PageCount: 300}
	to := &domain.Book{Record: domain.Record{ID: "book-9"}, Title: "Nine"}
	for _, b := range []*domain.Book{from, to} {
		if err := s.CreateBook(ctx, b); err != nil {
			t.Fatalf("CreateBook: %v", err)
		}
	}

	insertTestEdition(t, s, "book-5", "0-13-468599-7", true)
	insertTestEdition(t, s, "book-5", "2000000001", false)
	insertTestEdition(t, s, "book-9", "9780134685991", true)

	if _, err := s.SetPreference(ctx, "user-1", "book-5", "0-13-468599-7"); err != nil {
		t.Fatalf("SetPreference: %v", err)
	}
	if _, err := s.SetPreference(ctx, "user-2", "book-5", "2000000001"); err != nil {
		t.Fatalf("SetPreference: %v", err)
	}
	if _, err := s.SetGroup(ctx, "book-5", "gid-five"); err != nil {
		t.Fatalf("SetGroup: %v", err)
	}
	if err := s.CreateReport(ctx, &domain.DuplicateReport{ReporterID: "user-3", BookID: "book-5"}); err != nil {
		t.Fatalf("CreateReport: %v", err)
	}

	if err := s.UpsertLibraryEntry(ctx, &domain.LibraryEntry{UserID: "user-1", BookID: "book-5", Status: "reading", Progress: 40}); err != nil {
		t.Fatalf("UpsertLibraryEntry: %v", err)
	}
	if err := s.UpsertReview(ctx, &domain.Review{UserID: "user-1", BookID: "book-5", Rating: 4}); err != nil {
		t.Fatalf("UpsertReview: %v", err)
	}
	if err := s.AddNote(ctx, &domain.Note{UserID: "user-1", BookID: "book-5", Body: "chapter 3 twist"}); err != nil {
		t.Fatalf("AddNote: %v", err)
	}
	if err := s.AddSubmission(ctx, &domain.Submission{UserID: "user-2", BookID: "book-5", Kind: "tag", Content: "space opera"}); err != nil {
		t.Fatalf("AddSubmission: %v", err)
	}
}

func TestMerge_SyncMetadata(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedMergeFixture(t, s)

	rec, err := s.Merge(ctx, domain.MergeRequest{
		FromBookID: "book-5", ToBookID: "book-9", SyncMetadata: true, ActorID: "admin",
	})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if !rec.MetadataSynced {
		t.Error("MetadataSynced = false")
	}

	to, err := s.GetBook(ctx, "book-9")
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if to.Description != "A gripping tale" {
		t.Errorf("Description = %q", to.Description)
	}
	if to.Title != "Nine" {
		t.Errorf("Title overwritten: %q", to.Title)
	}
	if to.PageCount != 300 {
		t.Errorf("PageCount = %d, want 300", to.PageCount)
	}

	from, err := s.GetBook(ctx, "book-5")
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if from.MergedInto != "book-9" || from.RetiredAt == nil {
		t.Errorf("book-5 not retired: %+v", from)
	}

	resolved, redirected, err := s.ResolveBook(ctx, "book-5")
	if err != nil {
		t.Fatalf("ResolveBook: %v", err)
	}
	if resolved.ID != "book-9" || redirected != "book-5" {
		t.Errorf("ResolveBook = %s from %q", resolved.ID, redirected)
	}
}

func TestMerge_EnrichmentNeverOverwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	from := &domain.Book{Record: domain.Record{ID: "book-a"}, Title: "A", Description: "from description"}
	to := &domain.Book{Record: domain.Record{ID: "book-b"}, Title: "B", Description: "to description"}
	for _, b := range []*domain.Book{from, to} {
		if err := s.CreateBook(ctx, b); err != nil {
			t.Fatalf("CreateBook: %v", err)
		}
	}

	rec, err := s.Merge(ctx, domain.MergeRequest{FromBookID: "book-a", ToBookID: "book-b", SyncMetadata: true, ActorID: "admin"})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if len(rec.SyncedFields) != 0 {
		t.Errorf("SyncedFields = %v, want none", rec.SyncedFields)
	}

	got, err := s.GetBook(ctx, "book-b")
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if got.Description != "to description" {
		t.Errorf("Description = %q", got.Description)
	}
}

func TestMerge_WithoutSyncLeavesMetadata(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedMergeFixture(t, s)

	if _, err := s.Merge(ctx, domain.MergeRequest{FromBookID: "book-5", ToBookID: "book-9", ActorID: "admin"}); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	to, err := s.GetBook(ctx, "book-9")
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if to.Description != "" {
		t.Errorf("Description = %q, want empty", to.Description)
	}
}

func TestMerge_CollidingEditionDropped(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedMergeFixture(t, s)

	rec, err := s.Merge(ctx, domain.MergeRequest{FromBookID: "book-5", ToBookID: "book-9", ActorID: "admin"})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if len(rec.DroppedISBNs) != 1 || rec.DroppedISBNs[0] != "0134685997" {
		t.Errorf("DroppedISBNs = %v", rec.DroppedISBNs)
	}
	if len(rec.MovedISBNs) != 1 || rec.MovedISBNs[0] != "2000000001" {
		t.Errorf("MovedISBNs = %v", rec.MovedISBNs)
	}
	if rec.PreferencesCleared != 1 || rec.PreferencesMoved != 1 {
		t.Errorf("cleared/moved = %d/%d, want 1/1", rec.PreferencesCleared, rec.PreferencesMoved)
	}

	var left int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM editions WHERE isbn = ?`, "0134685997").Scan(&left); err != nil {
		t.Fatalf("count dropped: %v", err)
	}
	if left != 0 {
		t.Errorf("dropped edition 0134685997 still stored (%d rows)", left)
	}

	// The ISBN-10 now only reaches the surviving ISBN-13 through the key, and
	// removing it must not delete that edition.
	if _, err := s.RemoveEdition(ctx, "0-13-468599-7"); !errors.Is(err, domainerrors.ErrEditionNotFound) {
		t.Errorf("RemoveEdition(dropped) = %v, want EDITION_NOT_FOUND", err)
	}
	kept, err := s.GetEditionByISBN(ctx, "0-13-468599-7")
	if err != nil {
		t.Fatalf("GetEditionByISBN: %v", err)
	}
	if kept.ISBN != "9780134685991" || kept.BookID != "book-9" {
		t.Errorf("key lookup = %s on %s", kept.ISBN, kept.BookID)
	}

	// The user who chose the dropped edition now has no preference.
	pref, err := s.GetPreference(ctx, "user-1", "book-9")
	if err != nil {
		t.Fatalf("GetPreference: %v", err)
	}
	if pref != nil {
		t.Errorf("user-1 preference = %+v, want none", pref)
	}

	pref, err = s.GetPreference(ctx, "user-2", "book-9")
	if err != nil {
		t.Fatalf("GetPreference: %v", err)
	}
	if pref == nil || pref.ISBN != "2000000001" {
		t.Errorf("user-2 preference = %+v", pref)
	}

	editions, err := s.GetEditions(ctx, "book-9")
	if err != nil {
		t.Fatalf("GetEditions: %v", err)
	}
	if len(editions) != 2 {
		t.Fatalf("book-9 editions = %d, want 2", len(editions))
	}
	if !editions[0].IsPrimary || editions[0].ISBN != "9780134685991" {
		t.Errorf("book-9 primary = %+v", editions[0])
	}
	if n := countPrimaries(t, s, "book-9"); n != 1 {
		t.Errorf("primary count = %d, want 1", n)
	}
}

func TestMerge_SourcePrimaryKeptWhenTargetHasNone(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestBook(t, s, "book-a", "A")
	insertTestBook(t, s, "book-b", "B")
	insertTestEdition(t, s, "book-a", "1000000001", true)
	insertTestEdition(t, s, "book-b", "1000000002", false)

	if _, err := s.Merge(ctx, domain.MergeRequest{FromBookID: "book-a", ToBookID: "book-b", ActorID: "admin"}); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	editions, err := s.GetEditions(ctx, "book-b")
	if err != nil {
		t.Fatalf("GetEditions: %v", err)
	}
	if len(editions) != 2 || !editions[0].IsPrimary || editions[0].ISBN != "1000000001" {
		t.Errorf("editions = %+v", editions)
	}
}

func TestMerge_Preconditions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestBook(t, s, "book-a", "A")
	insertTestBook(t, s, "book-b", "B")
	insertTestBook(t, s, "book-c", "C")

	tests := []struct {
		name string
		req  domain.MergeRequest
		want error
	}{
		{"same book", domain.MergeRequest{FromBookID: "book-a", ToBookID: "book-a"}, domainerrors.ErrSameBook},
		{"missing from", domain.MergeRequest{FromBookID: "book-x", ToBookID: "book-a"}, domainerrors.ErrBookNotFound},
		{"missing to", domain.MergeRequest{FromBookID: "book-a", ToBookID: "book-x"}, domainerrors.ErrBookNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := snapshot(t, s)
			_, err := s.Merge(ctx, tt.req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if after := snapshot(t, s); after != before {
				t.Errorf("state changed by rejected merge")
			}
		})
	}

	if _, err := s.Merge(ctx, domain.MergeRequest{FromBookID: "book-a", ToBookID: "book-b", ActorID: "admin"}); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	_, err := s.Merge(ctx, domain.MergeRequest{FromBookID: "book-c", ToBookID: "book-a", ActorID: "admin"})
	if !errors.Is(err, domainerrors.ErrBookNotFound) {
		t.Errorf("retired target: expected ErrBookNotFound, got %v", err)
	}
}

func TestMerge_IdempotencyGuard(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedMergeFixture(t, s)

	req := domain.MergeRequest{FromBookID: "book-5", ToBookID: "book-9", SyncMetadata: true, ActorID: "admin"}
	if _, err := s.Merge(ctx, req); err != nil {
		t.Fatalf("first Merge: %v", err)
	}
	before := snapshot(t, s)

	_, err := s.Merge(ctx, req)
	if !errors.Is(err, domainerrors.ErrAlreadyMerged) {
		t.Fatalf("second Merge: expected ErrAlreadyMerged, got %v", err)
	}
	if after := snapshot(t, s); after != before {
		t.Error("second merge changed state")
	}

	merges, err := s.ListMerges(ctx, "book-5")
	if err != nil {
		t.Fatalf("ListMerges: %v", err)
	}
	if len(merges) != 1 {
		t.Errorf("merge records = %d, want 1", len(merges))
	}
}

func TestMerge_AtomicOnRepointerFailure(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedMergeFixture(t, s)

	s.RegisterRepointer(store.RepointerFunc{
		Label: "failing",
		Fn: func(ctx context.Context, tx store.Execer, fromID, toID string) (int, error) {
			return 0, errors.New("collaborator unavailable")
		},
	})

	before := snapshot(t, s)
	_, err := s.Merge(ctx, domain.MergeRequest{FromBookID: "book-5", ToBookID: "book-9", SyncMetadata: true, ActorID: "admin"})
	if err == nil || !strings.Contains(err.Error(), "collaborator unavailable") {
		t.Fatalf("expected repointer failure, got %v", err)
	}
	if after := snapshot(t, s); after != before {
		t.Errorf("failed merge left partial state\nbefore:\n%s\nafter:\n%s", before, after)
	}
}

func TestMerge_NoDanglingReferences(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedMergeFixture(t, s)

	before, err := s.CountReferences(ctx, "book-5")
	if err != nil {
		t.Fatalf("CountReferences: %v", err)
	}
	if before["editions"] == 0 || before[CollabNotes] == 0 {
		t.Fatalf("fixture has no references: %v", before)
	}

	rec, err := s.Merge(ctx, domain.MergeRequest{FromBookID: "book-5", ToBookID: "book-9", ActorID: "admin"})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}

	after, err := s.CountReferences(ctx, "book-5")
	if err != nil {
		t.Fatalf("CountReferences: %v", err)
	}
	for name, n := range after {
		if n != 0 {
			t.Errorf("%s still references retired book: %d", name, n)
		}
	}

	for _, name := range []string{CollabLibraryEntries, CollabReviews, CollabNotes, CollabSubmissions} {
		if rec.Repointed[name] != 1 {
			t.Errorf("Repointed[%s] = %d, want 1", name, rec.Repointed[name])
		}
	}

	// No row anywhere names any retired book.
	var dangling int
	err = s.db.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM editions WHERE book_id IN (SELECT id FROM books WHERE merged_into IS NOT NULL)) +
			(SELECT COUNT(*) FROM edition_preferences WHERE book_id IN (SELECT id FROM books WHERE merged_into IS NOT NULL)) +
			(SELECT COUNT(*) FROM library_entries WHERE book_id IN (SELECT id FROM books WHERE merged_into IS NOT NULL)) +
			(SELECT COUNT(*) FROM reviews WHERE book_id IN (SELECT id FROM books WHERE merged_into IS NOT NULL)) +
			(SELECT COUNT(*) FROM notes WHERE book_id IN (SELECT id FROM books WHERE merged_into IS NOT NULL)) +
			(SELECT COUNT(*) FROM submissions WHERE book_id IN (SELECT id FROM books WHERE merged_into IS NOT NULL))
	`).Scan(&dangling)
	if err != nil {
		t.Fatalf("count dangling: %v", err)
	}
	if dangling != 0 {
		t.Errorf("dangling references = %d", dangling)
	}
}

func TestMerge_FlattensRedirects(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestBook(t, s, "book-a", "A")
	insertTestBook(t, s, "book-b", "B")
	insertTestBook(t, s, "book-c", "C")

	if _, err := s.Merge(ctx, domain.MergeRequest{FromBookID: "book-a", ToBookID: "book-b", ActorID: "admin"}); err != nil {
		t.Fatalf("Merge a->b: %v", err)
	}
	rec, err := s.Merge(ctx, domain.MergeRequest{FromBookID: "book-b", ToBookID: "book-c", ActorID: "admin"})
	if err != nil {
		t.Fatalf("Merge b->c: %v", err)
	}
	if rec.RedirectsFlattened != 1 {
		t.Errorf("RedirectsFlattened = %d, want 1", rec.RedirectsFlattened)
	}

	a, err := s.GetBook(ctx, "book-a")
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if a.MergedInto != "book-c" {
		t.Errorf("book-a redirects to %s, want book-c", a.MergedInto)
	}

	resolved, _, err := s.ResolveBook(ctx, "book-a")
	if err != nil {
		t.Fatalf("ResolveBook: %v", err)
	}
	if resolved.ID != "book-c" {
		t.Errorf("resolved to %s", resolved.ID)
	}

	// The audit trail of the first merge is untouched.
	merges, err := s.ListMerges(ctx, "book-a")
	if err != nil {
		t.Fatalf("ListMerges: %v", err)
	}
	if len(merges) != 1 || merges[0].ToBookID != "book-b" {
		t.Errorf("merges for book-a = %+v", merges)
	}

	merges, err = s.ListMerges(ctx, "book-b")
	if err != nil {
		t.Fatalf("ListMerges: %v", err)
	}
	if len(merges) != 2 {
		t.Fatalf("merges for book-b = %d, want 2", len(merges))
	}
	if merges[0].FromBookID != "book-a" || merges[1].FromBookID != "book-b" {
		t.Errorf("merges for book-b not oldest first: %s then %s", merges[0].FromBookID, merges[1].FromBookID)
	}
}

func TestMerge_DryRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedMergeFixture(t, s)

	before := snapshot(t, s)
	rec, err := s.Merge(ctx, domain.MergeRequest{
		FromBookID: "book-5", ToBookID: "book-9", SyncMetadata: true, ActorID: "admin", DryRun: true,
	})
	if err != nil {
		t.Fatalf("Merge(dry run): %v", err)
	}
	if !rec.DryRun {
		t.Error("DryRun flag not set on record")
	}
	if len(rec.DroppedISBNs) != 1 || rec.PreferencesMoved != 1 {
		t.Errorf("plan = %+v", rec)
	}
	if after := snapshot(t, s); after != before {
		t.Error("dry run changed state")
	}
}

func TestMerge_RecordIsAppendOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestBook(t, s, "book-a", "A")
	insertTestBook(t, s, "book-b", "B")

	rec, err := s.Merge(ctx, domain.MergeRequest{FromBookID: "book-a", ToBookID: "book-b", ActorID: "admin", Reason: "dupe"})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}

	if _, err := s.db.Exec(`UPDATE book_merges SET reason = 'edited' WHERE id = ?`, rec.ID); err == nil {
		t.Error("update of merge record succeeded")
	}
	if _, err := s.db.Exec(`DELETE FROM book_merges WHERE id = ?`, rec.ID); err == nil {
		t.Error("delete of merge record succeeded")
	}

	merges, err := s.ListMerges(ctx, "book-b")
	if err != nil {
		t.Fatalf("ListMerges: %v", err)
	}
	if len(merges) != 1 || merges[0].Reason != "dupe" || merges[0].ActorID != "admin" {
		t.Errorf("merges = %+v", merges)
	}
}

func TestMerge_ConcurrentOpposingMerges(t *testing.T) {
	for i := range 5 {
		t.Run(fmt.Sprintf("run-%d", i), func(t *testing.T) {
			s := newTestStore(t)
			ctx := context.Background()
			insertTestBook(t, s, "book-1", "One")
			insertTestBook(t, s, "book-2", "Two")
			insertTestEdition(t, s, "book-1", "1000000001", true)
			insertTestEdition(t, s, "book-2", "1000000002", true)

			var wg sync.WaitGroup
			errs := make([]error, 2)
			start := make(chan struct{})
			for j, req := range []domain.MergeRequest{
				{FromBookID: "book-1", ToBookID: "book-2", ActorID: "admin"},
				{FromBookID: "book-2", ToBookID: "book-1", ActorID: "admin"},
			} {
				wg.Add(1)
				go func(j int, req domain.MergeRequest) {
					defer wg.Done()
					<-start
					_, errs[j] = s.Merge(ctx, req)
				}(j, req)
			}
			close(start)
			wg.Wait()

			succeeded := 0
			for _, err := range errs {
				switch {
				case err == nil:
					succeeded++
				case errors.Is(err, domainerrors.ErrBookNotFound), errors.Is(err, domainerrors.ErrAlreadyMerged):
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}
			if succeeded != 1 {
				t.Fatalf("succeeded = %d, want exactly 1 (errs: %v)", succeeded, errs)
			}

			var retired int
			if err := s.db.QueryRow(
				`SELECT COUNT(*) FROM books WHERE merged_into IS NOT NULL`).Scan(&retired); err != nil {
				t.Fatalf("count retired: %v", err)
			}
			if retired != 1 {
				t.Errorf("retired books = %d, want 1", retired)
			}

			var editions int
			if err := s.db.QueryRow(`
				SELECT COUNT(*) FROM editions
				WHERE book_id IN (SELECT id FROM books WHERE merged_into IS NULL)`).Scan(&editions); err != nil {
				t.Fatalf("count editions: %v", err)
			}
			if editions != 2 {
				t.Errorf("editions on the survivor = %d, want 2", editions)
			}
		})
	}
}
