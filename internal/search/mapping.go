package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"
)

// foldedAnalyzer splits folded keys into lowercase words.
const foldedAnalyzer = "folded"

// buildIndexMapping creates the Bleve index mapping for book documents.
//
// Folded keys use a plain word analyzer without stemming or stop words so
// that fuzzy matching runs on the words as written, digits included. Raw
// title and author are stored for display. ISBN keys match exactly.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()

	// AddCustomAnalyzer only fails on malformed definitions.
	_ = indexMapping.AddCustomAnalyzer(foldedAnalyzer, map[string]any{
		"type":          custom.Name,
		"tokenizer":     unicode.Name,
		"token_filters": []string{lowercase.Name},
	})
	indexMapping.DefaultAnalyzer = foldedAnalyzer

	docMapping := bleve.NewDocumentMapping()

	// --- Folded keys (primary duplicate signal) ---

	titleKeyMapping := bleve.NewTextFieldMapping()
	titleKeyMapping.Analyzer = foldedAnalyzer
	titleKeyMapping.Store = false
	docMapping.AddFieldMappingsAt("title_key", titleKeyMapping)

	authorKeyMapping := bleve.NewTextFieldMapping()
	authorKeyMapping.Analyzer = foldedAnalyzer
	authorKeyMapping.Store = false
	docMapping.AddFieldMappingsAt("author_key", authorKeyMapping)

	// --- Display fields ---

	titleMapping := bleve.NewTextFieldMapping()
	titleMapping.Analyzer = en.AnalyzerName
	titleMapping.Store = true
	docMapping.AddFieldMappingsAt("title", titleMapping)

	authorMapping := bleve.NewTextFieldMapping()
	authorMapping.Analyzer = en.AnalyzerName
	authorMapping.Store = true
	docMapping.AddFieldMappingsAt("author", authorMapping)

	// --- Keyword fields ---

	idMapping := bleve.NewTextFieldMapping()
	idMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("id", idMapping)

	isbnMapping := bleve.NewTextFieldMapping()
	isbnMapping.Analyzer = keyword.Name
	isbnMapping.Store = true
	docMapping.AddFieldMappingsAt("isbn_keys", isbnMapping)

	// --- Numeric fields ---

	yearMapping := bleve.NewNumericFieldMapping()
	yearMapping.Store = true
	docMapping.AddFieldMappingsAt("publish_year", yearMapping)

	updatedAtMapping := bleve.NewNumericFieldMapping()
	updatedAtMapping.Store = true
	docMapping.AddFieldMappingsAt("updated_at", updatedAtMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
