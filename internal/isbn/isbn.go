// Package isbn normalizes and checks ISBN strings.
//
// Shape checks are deliberately loose: catalog data carries legacy and
// truncated identifiers, so anything made of digits with an optional trailing
// X is accepted. Checksums are computed for display and never enforced.
package isbn

import (
	"strings"

	domainerrors "github.com/listenupapp/bookid-server/internal/errors"
)

// MaxLength is the longest accepted normalized ISBN.
const MaxLength = 13

// Kind classifies a normalized ISBN.
type Kind string

// ISBN kinds.
const (
	KindISBN10 Kind = "isbn10"
	KindISBN13 Kind = "isbn13"
	KindOther  Kind = "other"
)

// Normalize trims the value, drops hyphens and spaces, and upper-cases a trailing x.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range strings.TrimSpace(raw) {
		switch r {
		case '-', ' ', '‐', '‑', '‒', '–':
			continue
		case 'x':
			b.WriteRune('X')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Validate checks the shape of raw.
func Validate(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return domainerrors.ErrInvalidISBN.WithDetails(map[string]string{"isbn": "is required"})
	}
	n := Normalize(raw)
	if len(n) > MaxLength {
		return domainerrors.ErrInvalidISBN.WithDetails(map[string]string{"isbn": "must not exceed 13 digits"})
	}
	for i, r := range n {
		if r >= '0' && r <= '9' {
			continue
		}
		if r == 'X' && i == len(n)-1 && i > 0 {
			continue
		}
		return domainerrors.ErrInvalidISBN.WithDetails(map[string]string{
			"isbn": "may only contain digits, hyphens, and a trailing X",
		})
	}
	return nil
}

// KindOf classifies raw by its normalized length and shape.
func KindOf(raw string) Kind {
	n := Normalize(raw)
	switch {
	case len(n) == 10:
		return KindISBN10
	case len(n) == 13 && !strings.HasSuffix(n, "X"):
		return KindISBN13
	default:
		return KindOther
	}
}

// ChecksumValid reports whether raw is an ISBN-10 or ISBN-13 with a correct check digit.
func ChecksumValid(raw string) bool {
	n := Normalize(raw)
	switch KindOf(n) {
	case KindISBN10:
		return n[9] == check10(n[:9])
	case KindISBN13:
		return n[12] == check13(n[:12])
	default:
		return false
	}
}

// Key returns the equivalence key of raw. Two ISBNs with equal keys name the
// same edition: hyphenation is ignored and a valid ISBN-10 is keyed by its
// ISBN-13 form.
func Key(raw string) string {
	n := Normalize(raw)
	if KindOf(n) == KindISBN10 && ChecksumValid(n) {
		return To13(n)
	}
	return n
}

// To13 converts a valid ISBN-10 to ISBN-13. Anything else is returned normalized.
func To13(raw string) string {
	n := Normalize(raw)
	if KindOf(n) != KindISBN10 || !ChecksumValid(n) {
		return n
	}
	body := "978" + n[:9]
	return body + string(check13(body))
}

func digitsOnly(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// check10 computes the ISBN-10 check character for nine leading digits.
func check10(body string) byte {
	if !digitsOnly(body) {
		return 0
	}
	sum := 0
	for i := range 9 {
		sum += int(body[i]-'0') * (10 - i)
	}
	c := (11 - sum%11) % 11
	if c == 10 {
		return 'X'
	}
	return byte('0' + c)
}

// check13 computes the ISBN-13 check digit for twelve leading digits.
func check13(body string) byte {
	if !digitsOnly(body) {
		return 0
	}
	sum := 0
	for i := range 12 {
		d := int(body[i] - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return byte('0' + (10-sum%10)%10)
}
