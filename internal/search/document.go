// Package search keeps a Bleve index of active books for duplicate detection.
// Titles and authors are folded before indexing so that punctuation, case,
// diacritics and leading articles do not hide near-identical records.
package search

import (
	"github.com/listenupapp/bookid-server/internal/domain"
	"github.com/listenupapp/bookid-server/internal/normalize"
)

// BookDocument is the indexed form of an active book.
type BookDocument struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Author      string   `json:"author,omitempty"`
	TitleKey    string   `json:"title_key"`
	AuthorKey   string   `json:"author_key,omitempty"`
	ISBNKeys    []string `json:"isbn_keys,omitempty"`
	PublishYear int      `json:"publish_year,omitempty"`
	UpdatedAt   int64    `json:"updated_at"` // Unix millis
}

// ToMap converts the document to a map with lowercase field names.
// Field names must match the index mapping.
func (d *BookDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":         d.ID,
		"title":      d.Title,
		"title_key":  d.TitleKey,
		"updated_at": d.UpdatedAt,
	}
	if d.Author != "" {
		m["author"] = d.Author
	}
	if d.AuthorKey != "" {
		m["author_key"] = d.AuthorKey
	}
	if len(d.ISBNKeys) > 0 {
		m["isbn_keys"] = d.ISBNKeys
	}
	if d.PublishYear > 0 {
		m["publish_year"] = d.PublishYear
	}
	return m
}

// BookToDocument converts a book and the equivalence keys of its ISBNs.
func BookToDocument(book *domain.Book, isbnKeys []string) *BookDocument {
	return &BookDocument{
		ID:          book.ID,
		Title:       book.Title,
		Author:      book.Author,
		TitleKey:    normalize.TitleKey(book.Title),
		AuthorKey:   normalize.AuthorKey(book.Author),
		ISBNKeys:    isbnKeys,
		PublishYear: book.PublishYear,
		UpdatedAt:   book.UpdatedAt.UnixMilli(),
	}
}
