package service

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/listenupapp/bookid-server/internal/domain"
	"github.com/listenupapp/bookid-server/internal/ratelimit"
	"github.com/listenupapp/bookid-server/internal/search"
	"github.com/listenupapp/bookid-server/internal/sse"
	"github.com/listenupapp/bookid-server/internal/store/sqlite"
	"github.com/listenupapp/bookid-server/internal/validation"
)

// recordingEmitter captures emitted events for assertions.
type recordingEmitter struct {
	mu     sync.Mutex
	events []sse.Event
}

func (r *recordingEmitter) Emit(event any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if evt, ok := event.(sse.Event); ok {
		r.events = append(r.events, evt)
	}
}

func (r *recordingEmitter) types() []sse.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]sse.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

type testServices struct {
	store    *sqlite.Store
	index    *search.SearchIndex
	events   *recordingEmitter
	catalog  *CatalogService
	editions *EditionService
	groups   *GroupService
	prefs    *PreferenceService
	merges   *MergeService
	reports  *ReportService
}

func setupServices(t *testing.T, limiter *ratelimit.KeyedRateLimiter) *testServices {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)

	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	index, err := search.NewSearchIndex(search.Options{Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	events := &recordingEmitter{}
	deps := Deps{Store: st, Index: index, Events: events, Logger: logger}
	v := validation.New()

	merges := NewMergeService(deps, v)
	return &testServices{
		store:    st,
		index:    index,
		events:   events,
		catalog:  NewCatalogService(deps, v),
		editions: NewEditionService(deps, v),
		groups:   NewGroupService(deps),
		prefs:    NewPreferenceService(deps),
		merges:   merges,
		reports:  NewReportService(deps, v, limiter, merges, index),
	}
}

func (s *testServices) createBook(t *testing.T, bookID, title, author string) *domain.Book {
	t.Helper()
	b, err := s.catalog.CreateBook(context.Background(), CreateBookRequest{ID: bookID, Title: title, Author: author})
	require.NoError(t, err)
	return b
}

func (s *testServices) addISBN(t *testing.T, bookID, raw string, primary bool) *domain.Edition {
	t.Helper()
	e, err := s.editions.AddISBN(context.Background(), bookID, AddISBNRequest{ISBN: raw, IsPrimary: primary})
	require.NoError(t, err)
	return e
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }
