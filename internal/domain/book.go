// Package domain contains the entities of the book identity service.
package domain

import (
	"strings"
	"time"
)

// Book is a canonical catalog record. A retired book has been merged away and
// only survives as a redirect to MergedInto.
type Book struct {
	Record
	Title       string     `json:"title"`
	Author      string     `json:"author,omitempty"`
	Description string     `json:"description,omitempty"`
	PageCount   int        `json:"page_count,omitempty"`
	PublishYear int        `json:"publish_year,omitempty"`
	CoverURL    string     `json:"cover_url,omitempty"`
	GID         string     `json:"gid,omitempty"`
	MergedInto  string     `json:"merged_into,omitempty"`
	RetiredAt   *time.Time `json:"retired_at,omitempty"`
}

// IsRetired reports whether the book was merged into another one.
func (b *Book) IsRetired() bool {
	return b.MergedInto != ""
}

// Metadata field names reported by Enrich.
const (
	FieldTitle       = "title"
	FieldAuthor      = "author"
	FieldDescription = "description"
	FieldPageCount   = "page_count"
	FieldPublishYear = "publish_year"
	FieldCoverURL    = "cover_url"
)

// Enrich copies every metadata field that is empty on b and set on from.
// Fields already present on b are never overwritten. It returns the names of
// the fields that changed.
func (b *Book) Enrich(from *Book) []string {
	var changed []string

	fillString := func(dst *string, src, name string) {
		if strings.TrimSpace(*dst) == "" && strings.TrimSpace(src) != "" {
			*dst = src
			changed = append(changed, name)
		}
	}
	fillInt := func(dst *int, src int, name string) {
		if *dst <= 0 && src > 0 {
			*dst = src
			changed = append(changed, name)
		}
	}

	fillString(&b.Title, from.Title, FieldTitle)
	fillString(&b.Author, from.Author, FieldAuthor)
	fillString(&b.Description, from.Description, FieldDescription)
	fillInt(&b.PageCount, from.PageCount, FieldPageCount)
	fillInt(&b.PublishYear, from.PublishYear, FieldPublishYear)
	fillString(&b.CoverURL, from.CoverURL, FieldCoverURL)

	return changed
}

// BookUpdate is a partial update of a book's metadata. Nil fields are left alone.
type BookUpdate struct {
	Title       *string `json:"title,omitempty"`
	Author      *string `json:"author,omitempty"`
	Description *string `json:"description,omitempty"`
	PageCount   *int    `json:"page_count,omitempty"`
	PublishYear *int    `json:"publish_year,omitempty"`
	CoverURL    *string `json:"cover_url,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u BookUpdate) IsEmpty() bool {
	return u.Title == nil && u.Author == nil && u.Description == nil &&
		u.PageCount == nil && u.PublishYear == nil && u.CoverURL == nil
}

// Apply writes the set fields of u onto b.
func (u BookUpdate) Apply(b *Book) {
	if u.Title != nil {
		b.Title = *u.Title
	}
	if u.Author != nil {
		b.Author = *u.Author
	}
	if u.Description != nil {
		b.Description = *u.Description
	}
	if u.PageCount != nil {
		b.PageCount = *u.PageCount
	}
	if u.PublishYear != nil {
		b.PublishYear = *u.PublishYear
	}
	if u.CoverURL != nil {
		b.CoverURL = *u.CoverURL
	}
}
