package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPaginationParams(t *testing.T) {
	params := DefaultPaginationParams()
	assert.Equal(t, 100, params.Limit)
	assert.Empty(t, params.Cursor)
}

func TestPaginationParams_Validate(t *testing.T) {
	tests := []struct {
		name          string
		input         PaginationParams
		expectedLimit int
	}{
		{name: "valid parameters", input: PaginationParams{Limit: 50}, expectedLimit: 50},
		{name: "zero limit should default to 100", input: PaginationParams{Limit: 0}, expectedLimit: 100},
		{name: "negative limit should default to 100", input: PaginationParams{Limit: -10}, expectedLimit: 100},
		{name: "limit over 1000 should cap at 1000", input: PaginationParams{Limit: 5000}, expectedLimit: 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := tt.input
			params.Validate()
			assert.Equal(t, tt.expectedLimit, params.Limit)
		})
	}
}

func TestCursorRoundTrip(t *testing.T) {
	cursor := EncodeCursor("2026-01-02T03:04:05Z", "book-1")
	require.NotEmpty(t, cursor)

	sortKey, id, err := DecodeCursor(cursor)
	require.NoError(t, err)
	assert.Equal(t, "2026-01-02T03:04:05Z", sortKey)
	assert.Equal(t, "book-1", id)
}

func TestDecodeCursor_Invalid(t *testing.T) {
	_, _, err := DecodeCursor("!!!")
	assert.Error(t, err)

	_, _, err = DecodeCursor(EncodeCursor("only-key", "")) // encodes to ""
	assert.NoError(t, err)

	_, _, err = DecodeCursor("bm8tc2VwYXJhdG9y") // "no-separator"
	assert.Error(t, err)
}

func TestPaginate(t *testing.T) {
	rows := []string{"a", "b", "c"}
	keyOf := func(s string) (string, string) { return "k" + s, s }

	page := Paginate(rows, 2, 10, keyOf)
	assert.Equal(t, []string{"a", "b"}, page.Items)
	assert.True(t, page.HasMore)
	assert.Equal(t, 10, page.Total)

	_, id, err := DecodeCursor(page.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, "b", id)

	last := Paginate(rows, 5, 3, keyOf)
	assert.False(t, last.HasMore)
	assert.Empty(t, last.NextCursor)

	empty := Paginate[string](nil, 5, 0, keyOf)
	assert.NotNil(t, empty.Items)
}
