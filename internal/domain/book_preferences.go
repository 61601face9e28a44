package domain

import "time"

// EditionPreference is a user's chosen edition of a book.
type EditionPreference struct {
	UserID    string    `json:"user_id"`
	BookID    string    `json:"book_id"`
	ISBN      string    `json:"isbn"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEditionPreference creates a preference stamped with the current time.
func NewEditionPreference(userID, bookID, isbn string) *EditionPreference {
	return &EditionPreference{
		UserID:    userID,
		BookID:    bookID,
		ISBN:      isbn,
		UpdatedAt: time.Now().UTC(),
	}
}

// BookForUser is a book as seen by one user: its editions, the user's chosen
// edition, and its group.
type BookForUser struct {
	Book           *Book      `json:"book"`
	Editions       []*Edition `json:"editions"`
	PreferredISBN  string     `json:"preferred_isbn,omitempty"`
	Group          *Group     `json:"group"`
	Canonical      bool       `json:"canonical"`
	RedirectedFrom string     `json:"redirected_from,omitempty"`
}

// PreferredEdition returns the user's chosen edition, falling back to the primary.
func (v *BookForUser) PreferredEdition() *Edition {
	var primary *Edition
	for _, e := range v.Editions {
		if v.PreferredISBN != "" && e.ISBN == v.PreferredISBN {
			return e
		}
		if e.IsPrimary {
			primary = e
		}
	}
	return primary
}
