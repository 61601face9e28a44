package store

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Page size bounds.
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// PaginationParams contains pagination request parameters.
type PaginationParams struct {
	Limit  int    // The number of items per page (defaults to 100 with a maximum of 1000)
	Cursor string // Opaque cursor for next page (empty for first page)
}

// PaginatedResult contains paginated data and metadata.
type PaginatedResult[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"` // Empty if no more pages
	HasMore    bool   `json:"has_more"`
	Total      int    `json:"total"`
}

// DefaultPaginationParams returns sensible defaults.
func DefaultPaginationParams() PaginationParams {
	return PaginationParams{Limit: DefaultLimit}
}

// Validate checks and corrects pagination parameters.
func (p *PaginationParams) Validate() {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
}

// EncodeCursor creates an opaque cursor from the sort key and id of the last row.
func EncodeCursor(sortKey, id string) string {
	if id == "" {
		return ""
	}
	return base64.URLEncoding.EncodeToString([]byte(sortKey + "|" + id))
}

// DecodeCursor splits a cursor back into its sort key and id.
// An empty cursor decodes to empty strings.
func DecodeCursor(cursor string) (sortKey, id string, err error) {
	if cursor == "" {
		return "", "", nil
	}

	decoded, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return "", "", fmt.Errorf("invalid cursor: %w", err)
	}

	sortKey, id, ok := strings.Cut(string(decoded), "|")
	if !ok || id == "" {
		return "", "", fmt.Errorf("invalid cursor format")
	}
	return sortKey, id, nil
}

// Paginate trims a limit+1 result set and fills in the cursor using keyOf.
func Paginate[T any](rows []T, limit, total int, keyOf func(T) (sortKey, id string)) *PaginatedResult[T] {
	result := &PaginatedResult[T]{Items: rows, Total: total}
	if result.Items == nil {
		result.Items = []T{}
	}
	if len(rows) > limit {
		result.Items = rows[:limit]
		result.HasMore = true
		sortKey, id := keyOf(rows[limit-1])
		result.NextCursor = EncodeCursor(sortKey, id)
	}
	return result
}
