package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCatalog(t *testing.T) {
	file, err := parseCatalog(strings.NewReader(`
books:
  - id: dune
    title: Dune
    author: Frank Herbert
    gid: dune-saga
    isbns:
      - isbn: 978-0-441-01359-3
        edition: Paperback
        year: 2005
        primary: true
      - isbn: 0441013597
  - title: Children of Dune
`))
	require.NoError(t, err)
	require.Len(t, file.Books, 2)

	dune := file.Books[0]
	assert.Equal(t, "dune", dune.ID)
	assert.Equal(t, "dune-saga", dune.GID)
	require.Len(t, dune.ISBNs, 2)
	assert.True(t, dune.ISBNs[0].Primary)
	require.NotNil(t, dune.ISBNs[0].Year)
	assert.Equal(t, 2005, *dune.ISBNs[0].Year)
	assert.Nil(t, dune.ISBNs[1].Year)

	assert.Empty(t, file.Books[1].ID)
}

func TestParseCatalog_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"empty", "", "empty"},
		{"unknown field", "books:\n  - title: Dune\n    isbn: 123\n", "field isbn not found"},
		{"missing title", "books:\n  - id: dune\n", "books[0]: title is required"},
		{"repeated id", "books:\n  - id: a\n    title: A\n  - id: a\n    title: B\n", `id "a" repeats books[0]`},
		{"missing isbn", "books:\n  - title: A\n    isbns:\n      - edition: Paperback\n", "books[0].isbns[0]: isbn is required"},
		{"two primaries", "books:\n  - title: A\n    isbns:\n      - {isbn: '1', primary: true}\n      - {isbn: '2', primary: true}\n", "at most one primary"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseCatalog(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
