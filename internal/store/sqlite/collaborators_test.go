package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/listenupapp/bookid-server/internal/domain"
	domainerrors "github.com/listenupapp/bookid-server/internal/errors"
)

func TestUpsertLibraryEntry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestBook(t, s, "book-1", "One")

	entry := &domain.LibraryEntry{UserID: "user-1", BookID: "book-1", Status: "reading", Progress: 10}
	if err := s.UpsertLibraryEntry(ctx, entry); err != nil {
		t.Fatalf("UpsertLibraryEntry: %v", err)
	}
	firstID := entry.ID

	again := &domain.LibraryEntry{UserID: "user-1", BookID: "book-1", Status: "finished", Progress: 100}
	if err := s.UpsertLibraryEntry(ctx, again); err != nil {
		t.Fatalf("UpsertLibraryEntry: %v", err)
	}
	if again.ID != firstID {
		t.Errorf("upsert changed id: %s -> %s", firstID, again.ID)
	}

	entries, err := s.ListLibraryEntries(ctx, "book-1")
	if err != nil {
		t.Fatalf("ListLibraryEntries: %v", err)
	}
	if len(entries) != 1 || entries[0].Status != "finished" || entries[0].Progress != 100 {
		t.Errorf("entries = %+v", entries)
	}
}

func TestCollaborators_RejectRetiredBook(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestBook(t, s, "book-a", "A")
	insertTestBook(t, s, "book-b", "B")
	if _, err := s.Merge(ctx, domain.MergeRequest{FromBookID: "book-a", ToBookID: "book-b", ActorID: "admin"}); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	err := s.AddNote(ctx, &domain.Note{UserID: "user-1", BookID: "book-a", Body: "late note"})
	if !errors.Is(err, domainerrors.ErrBookNotFound) {
		t.Fatalf("expected ErrBookNotFound, got %v", err)
	}
}

func TestCollaborators_Validation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestBook(t, s, "book-1", "One")

	if err := s.UpsertReview(ctx, &domain.Review{UserID: "u", BookID: "book-1", Rating: 6}); !errors.Is(err, domainerrors.ErrValidation) {
		t.Errorf("rating 6: expected ErrValidation, got %v", err)
	}
	if err := s.AddNote(ctx, &domain.Note{UserID: "u", BookID: "book-1", Body: "  "}); !errors.Is(err, domainerrors.ErrValidation) {
		t.Errorf("blank note: expected ErrValidation, got %v", err)
	}
	if err := s.AddSubmission(ctx, &domain.Submission{UserID: "u", BookID: "book-1", Kind: "quiz"}); !errors.Is(err, domainerrors.ErrValidation) {
		t.Errorf("unknown kind: expected ErrValidation, got %v", err)
	}
}

func TestRepointLibraryEntries_KeepsFurthestProgress(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestBook(t, s, "book-a", "A")
	insertTestBook(t, s, "book-b", "B")

	entries := []*domain.LibraryEntry{
		{UserID: "user-ahead-on-from", BookID: "book-a", Status: "reading", Progress: 80},
		{UserID: "user-ahead-on-from", BookID: "book-b", Status: "reading", Progress: 20},
		{UserID: "user-ahead-on-to", BookID: "book-a", Status: "reading", Progress: 5},
		{UserID: "user-ahead-on-to", BookID: "book-b", Status: "finished", Progress: 100},
		{UserID: "user-only-from", BookID: "book-a", Status: "want_to_read"},
	}
	for _, e := range entries {
		if err := s.UpsertLibraryEntry(ctx, e); err != nil {
			t.Fatalf("UpsertLibraryEntry: %v", err)
		}
	}

	rec, err := s.Merge(ctx, domain.MergeRequest{FromBookID: "book-a", ToBookID: "book-b", ActorID: "admin"})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if rec.Repointed[CollabLibraryEntries] != 2 {
		t.Errorf("Repointed[library_entries] = %d, want 2", rec.Repointed[CollabLibraryEntries])
	}

	got, err := s.ListLibraryEntries(ctx, "book-b")
	if err != nil {
		t.Fatalf("ListLibraryEntries: %v", err)
	}
	byUser := map[string]*domain.LibraryEntry{}
	for _, e := range got {
		byUser[e.UserID] = e
	}
	if len(byUser) != 3 {
		t.Fatalf("entries on book-b = %d, want 3", len(byUser))
	}
	if byUser["user-ahead-on-from"].Progress != 80 {
		t.Errorf("user-ahead-on-from progress = %d, want 80", byUser["user-ahead-on-from"].Progress)
	}
	if e := byUser["user-ahead-on-to"]; e.Progress != 100 || e.Status != "finished" {
		t.Errorf("user-ahead-on-to = %+v", e)
	}
	if _, ok := byUser["user-only-from"]; !ok {
		t.Error("user-only-from entry not moved")
	}
}

func TestRepointReviews_TargetWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestBook(t, s, "book-a", "A")
	insertTestBook(t, s, "book-b", "B")

	for _, r := range []*domain.Review{
		{UserID: "user-1", BookID: "book-a", Rating: 2, Body: "from"},
		{UserID: "user-1", BookID: "book-b", Rating: 5, Body: "to"},
		{UserID: "user-2", BookID: "book-a", Rating: 3},
	} {
		if err := s.UpsertReview(ctx, r); err != nil {
			t.Fatalf("UpsertReview: %v", err)
		}
	}

	if _, err := s.Merge(ctx, domain.MergeRequest{FromBookID: "book-a", ToBookID: "book-b", ActorID: "admin"}); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	reviews, err := s.ListReviews(ctx, "book-b")
	if err != nil {
		t.Fatalf("ListReviews: %v", err)
	}
	if len(reviews) != 2 {
		t.Fatalf("reviews on book-b = %d, want 2", len(reviews))
	}
	for _, r := range reviews {
		if r.UserID == "user-1" && r.Body != "to" {
			t.Errorf("user-1 review = %q, want the target's", r.Body)
		}
	}
}

func TestNotesAndSubmissionsMove(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestBook(t, s, "book-a", "A")
	insertTestBook(t, s, "book-b", "B")

	for range 2 {
		if err := s.AddNote(ctx, &domain.Note{UserID: "user-1", BookID: "book-a", Body: "note"}); err != nil {
			t.Fatalf("AddNote: %v", err)
		}
	}
	if err := s.AddSubmission(ctx, &domain.Submission{UserID: "user-1", BookID: "book-a", Kind: "chapter", Content: "Prologue"}); err != nil {
		t.Fatalf("AddSubmission: %v", err)
	}

	rec, err := s.Merge(ctx, domain.MergeRequest{FromBookID: "book-a", ToBookID: "book-b", ActorID: "admin"})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if rec.Repointed[CollabNotes] != 2 || rec.Repointed[CollabSubmissions] != 1 {
		t.Errorf("Repointed = %v", rec.Repointed)
	}

	notes, err := s.ListNotes(ctx, "book-b")
	if err != nil {
		t.Fatalf("ListNotes: %v", err)
	}
	subs, err := s.ListSubmissions(ctx, "book-b")
	if err != nil {
		t.Fatalf("ListSubmissions: %v", err)
	}
	if len(notes) != 2 || len(subs) != 1 {
		t.Errorf("notes/submissions on book-b = %d/%d", len(notes), len(subs))
	}
}
