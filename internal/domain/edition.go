package domain

import (
	"time"

	"github.com/listenupapp/bookid-server/internal/isbn"
)

// Edition is one ISBN-identified published form of a book.
type Edition struct {
	ID          string    `json:"id"`
	ISBN        string    `json:"isbn"`
	ISBNKey     string    `json:"isbn_key"`
	BookID      string    `json:"book_id"`
	Label       string    `json:"edition,omitempty"`
	PublishYear *int      `json:"year,omitempty"`
	IsPrimary   bool      `json:"is_primary"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewEdition builds an unsaved edition. The ISBN is stored without hyphens or
// spaces, and its ISBN-13 form becomes the key.
func NewEdition(bookID, raw, label string, year *int, primary bool) *Edition {
	return &Edition{
		ISBN:        isbn.Normalize(raw),
		ISBNKey:     isbn.Key(raw),
		BookID:      bookID,
		Label:       label,
		PublishYear: year,
		IsPrimary:   primary,
	}
}

// Kind classifies the edition's ISBN.
func (e *Edition) Kind() isbn.Kind {
	return isbn.KindOf(e.ISBN)
}

// ChecksumValid reports whether the ISBN carries a correct check digit.
func (e *Edition) ChecksumValid() bool {
	return isbn.ChecksumValid(e.ISBN)
}
