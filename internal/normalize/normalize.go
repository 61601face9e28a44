// Package normalize cleans book metadata before it is stored or indexed.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// htmlTagPattern detects descriptions pasted from publisher pages.
	htmlTagPattern = regexp.MustCompile(`<(p|br|div|span|b|i|strong|em|a|ul|ol|li|h[1-6]|blockquote)[\s>/]`)

	// leadingArticle matches English articles ignored when comparing titles.
	leadingArticle = regexp.MustCompile(`^(the|a|an)\s+`)

	// subtitleSeparator splits "Title: Subtitle" and "Title - Subtitle".
	subtitleSeparator = regexp.MustCompile(`\s*[:;]\s+|\s+[-–—]\s+`)

	whitespace = regexp.MustCompile(`\s+`)
)

// Text trims and collapses internal whitespace.
func Text(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// Description converts an HTML description to Markdown. Plain text is only trimmed.
func Description(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || !htmlTagPattern.MatchString(strings.ToLower(s)) {
		return s
	}

	markdown, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return s
	}
	return strings.TrimSpace(markdown)
}

// Fold lowercases s, strips diacritics, and replaces punctuation with spaces.
// "Les Misérables!" -> "les miserables".
func Fold(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	stripped = cases.Fold().String(stripped)

	stripped = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, stripped)

	return Text(stripped)
}

// TitleKey folds a title for duplicate matching: the subtitle and a leading
// article are dropped. "The Hobbit: or There and Back Again" -> "hobbit".
func TitleKey(title string) string {
	main := subtitleSeparator.Split(strings.TrimSpace(title), 2)[0]
	key := Fold(main)
	if stripped := leadingArticle.ReplaceAllString(key, ""); stripped != "" {
		key = stripped
	}
	return key
}

// AuthorKey folds an author string for duplicate matching. "Tolkien, J.R.R."
// and "J. R. R. Tolkien" produce the same key.
func AuthorKey(author string) string {
	author = strings.TrimSpace(author)
	if last, first, ok := strings.Cut(author, ","); ok && !strings.Contains(first, ",") {
		author = first + " " + last
	}
	folded := Fold(author)
	parts := strings.Fields(folded)

	// Initials collapse into one token so "j r r" and "jrr" agree.
	var out []string
	var initials strings.Builder
	for _, p := range parts {
		if len([]rune(p)) == 1 {
			initials.WriteString(p)
			continue
		}
		if initials.Len() > 0 {
			out = append(out, initials.String())
			initials.Reset()
		}
		out = append(out, p)
	}
	if initials.Len() > 0 {
		out = append(out, initials.String())
	}
	return strings.Join(out, " ")
}
