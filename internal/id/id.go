// Package id generates prefixed identifiers for book identity records.
package id

import (
	"fmt"
	"regexp"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for generated identifiers.
const (
	PrefixBook    = "book"
	PrefixEdition = "ed"
	PrefixGroup   = "gid"
	PrefixReport  = "report"
	PrefixMerge   = "merge"
)

// callerPattern bounds identifiers supplied by importers and clients.
var callerPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.:-]{0,127}$`)

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "book-V1StGXR8_Z5jdHi6B-myT").
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// OrGenerate returns supplied when it is non-empty and otherwise a fresh ID.
func OrGenerate(supplied, prefix string) (string, error) {
	if supplied != "" {
		return supplied, nil
	}
	return Generate(prefix)
}

// Valid reports whether s is acceptable as a caller-supplied identifier.
func Valid(s string) bool {
	return callerPattern.MatchString(s)
}
