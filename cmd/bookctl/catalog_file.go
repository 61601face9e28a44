package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// catalogFile is the YAML import format:
//
//	books:
//	  - id: dune
//	    title: Dune
//	    author: Frank Herbert
//	    gid: dune-saga
//	    isbns:
//	      - isbn: 978-0-441-01359-3
//	        edition: Paperback
//	        primary: true
type catalogFile struct {
	Books []catalogBook `yaml:"books"`
}

type catalogBook struct {
	ID          string        `yaml:"id"`
	Title       string        `yaml:"title"`
	Author      string        `yaml:"author"`
	Description string        `yaml:"description"`
	PageCount   int           `yaml:"page_count"`
	PublishYear int           `yaml:"publish_year"`
	CoverURL    string        `yaml:"cover_url"`
	GID         string        `yaml:"gid"`
	ISBNs       []catalogISBN `yaml:"isbns"`
}

type catalogISBN struct {
	ISBN    string `yaml:"isbn"`
	Edition string `yaml:"edition"`
	Year    *int   `yaml:"year"`
	Primary bool   `yaml:"primary"`
}

// parseCatalog decodes and checks an import file. Unknown keys are rejected
// so typos do not silently drop data.
func parseCatalog(r io.Reader) (*catalogFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file catalogFile
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("catalog file is empty")
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	var problems []string
	seen := make(map[string]int)
	for i, b := range file.Books {
		if strings.TrimSpace(b.Title) == "" {
			problems = append(problems, fmt.Sprintf("books[%d]: title is required", i))
		}
		if b.ID != "" {
			if prev, ok := seen[b.ID]; ok {
				problems = append(problems, fmt.Sprintf("books[%d]: id %q repeats books[%d]", i, b.ID, prev))
			}
			seen[b.ID] = i
		}
		primaries := 0
		for j, e := range b.ISBNs {
			if strings.TrimSpace(e.ISBN) == "" {
				problems = append(problems, fmt.Sprintf("books[%d].isbns[%d]: isbn is required", i, j))
			}
			if e.Primary {
				primaries++
			}
		}
		if primaries > 1 {
			problems = append(problems, fmt.Sprintf("books[%d]: at most one primary isbn", i))
		}
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("invalid catalog:\n  %s", strings.Join(problems, "\n  "))
	}

	return &file, nil
}
