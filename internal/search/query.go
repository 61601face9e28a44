package search

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/listenupapp/bookid-server/internal/domain"
	"github.com/listenupapp/bookid-server/internal/normalize"
)

// DefaultCandidateLimit is used when CandidateParams.Limit is not positive.
const DefaultCandidateLimit = 10

// Candidate match reasons.
const (
	ReasonTitle  = "title"
	ReasonAuthor = "author"
	ReasonISBN   = "isbn"
)

// CandidateParams describes the book whose duplicates are sought.
type CandidateParams struct {
	Book     *domain.Book
	ISBNKeys []string
	Limit    int
}

// Candidate is a book that may duplicate the queried one.
type Candidate struct {
	BookID  string   `json:"book_id"`
	Title   string   `json:"title"`
	Author  string   `json:"author,omitempty"`
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons"`
}

// Candidates returns indexed books resembling params.Book, best first.
// The book itself is never returned.
func (s *SearchIndex) Candidates(ctx context.Context, params CandidateParams) ([]Candidate, error) {
	if params.Limit <= 0 {
		params.Limit = DefaultCandidateLimit
	}

	q := buildCandidateQuery(params)
	if q == nil {
		return []Candidate{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(q, params.Limit, 0, false)
	req.Fields = []string{"title", "author", "isbn_keys"}
	req.SortBy([]string{"-_score", "_id"})

	result, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	titleKey := normalize.TitleKey(params.Book.Title)
	authorKey := normalize.AuthorKey(params.Book.Author)

	candidates := make([]Candidate, 0, len(result.Hits))
	for _, hit := range result.Hits {
		c := Candidate{BookID: hit.ID, Score: hit.Score, Reasons: []string{}}
		if t, ok := hit.Fields["title"].(string); ok {
			c.Title = t
		}
		if a, ok := hit.Fields["author"].(string); ok {
			c.Author = a
		}

		if titleKey != "" && normalize.TitleKey(c.Title) == titleKey {
			c.Reasons = append(c.Reasons, ReasonTitle)
		}
		if authorKey != "" && normalize.AuthorKey(c.Author) == authorKey {
			c.Reasons = append(c.Reasons, ReasonAuthor)
		}
		for _, k := range storedStrings(hit.Fields["isbn_keys"]) {
			if slices.Contains(params.ISBNKeys, k) {
				c.Reasons = append(c.Reasons, ReasonISBN)
				break
			}
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// buildCandidateQuery ORs the available signals and excludes the book itself.
// It returns nil when the book carries nothing to match on.
func buildCandidateQuery(params CandidateParams) query.Query {
	var signals []query.Query

	if titleKey := normalize.TitleKey(params.Book.Title); titleKey != "" {
		// Exact phrase on the folded title is the strongest text signal.
		phrase := bleve.NewMatchPhraseQuery(titleKey)
		phrase.SetField("title_key")
		phrase.SetBoost(4.0)
		signals = append(signals, phrase)

		// Word overlap with typo tolerance.
		fuzzy := bleve.NewMatchQuery(titleKey)
		fuzzy.SetField("title_key")
		fuzzy.SetFuzziness(1)
		fuzzy.SetOperator(query.MatchQueryOperatorAnd)
		fuzzy.SetBoost(2.0)
		signals = append(signals, fuzzy)
	}

	if authorKey := normalize.AuthorKey(params.Book.Author); authorKey != "" && len(signals) > 0 {
		// Author alone is not a duplicate signal; it only reinforces a title match.
		author := bleve.NewMatchQuery(authorKey)
		author.SetField("author_key")
		author.SetOperator(query.MatchQueryOperatorAnd)
		author.SetBoost(1.0)

		titleSignals := bleve.NewDisjunctionQuery(signals...)
		both := bleve.NewConjunctionQuery(titleSignals, author)
		both.SetBoost(1.5)
		signals = append(signals, both)
	}

	for _, key := range params.ISBNKeys {
		if strings.TrimSpace(key) == "" {
			continue
		}
		term := bleve.NewTermQuery(key)
		term.SetField("isbn_keys")
		term.SetBoost(5.0)
		signals = append(signals, term)
	}

	if len(signals) == 0 {
		return nil
	}

	self := bleve.NewDocIDQuery([]string{params.Book.ID})

	q := bleve.NewBooleanQuery()
	q.AddShould(signals...)
	q.SetMinShould(1)
	q.AddMustNot(self)
	return q
}

// storedStrings reads a stored field that may hold one string or several.
func storedStrings(v any) []string {
	switch val := v.(type) {
	case string:
		return []string{val}
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
