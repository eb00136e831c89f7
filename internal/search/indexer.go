// Package search implements the in-memory protocol index and everything
// that queries it: weighted full-text search, fuzzy name matching,
// context-based re-ranking, task intent analysis, and workflow building.
package search

import (
	"regexp"
	"strings"

	"protodex/internal/protocol"
)

// Searchable pairs a protocol record with its raw content and content tokens.
type Searchable struct {
	Meta    protocol.Metadata
	Content string
	Tokens  []string
}

// Index is the full search index. The three structures are built together
// and never mutated individually; Order preserves record encounter order so
// query iteration (and therefore tie-breaking) stays deterministic.
type Index struct {
	Protocols   map[string]*Searchable
	Order       []string
	TriggerMap  map[string][]string
	CategoryMap map[string][]string
}

// Indexer owns the single index instance for the process. Build replaces
// the whole index pointer atomically; readers never observe a partial index.
type Indexer struct {
	index *Index
}

func NewIndexer() *Indexer {
	return &Indexer{}
}

// nonWordOrSpace matches any rune that is neither a word character nor
// whitespace; such runes are replaced with spaces before splitting.
var nonWordOrSpace = regexp.MustCompile(`[^\w\s]`)

// Tokenize lowercases the content, replaces punctuation with spaces, splits
// on whitespace, and drops tokens of length <= 2.
func Tokenize(content string) []string {
	cleaned := nonWordOrSpace.ReplaceAllString(strings.ToLower(content), " ")

	var tokens []string
	for _, tok := range strings.Fields(cleaned) {
		if len(tok) > 2 {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// Build constructs the index from a snapshot of records and raw contents.
// A record whose content key is missing indexes with empty content and zero
// tokens. The built index replaces any previous one.
func (ix *Indexer) Build(records []protocol.Metadata, contents map[string]string) *Index {
	index := &Index{
		Protocols:   make(map[string]*Searchable, len(records)),
		TriggerMap:  make(map[string][]string),
		CategoryMap: make(map[string][]string),
	}

	for i := range records {
		meta := records[i]
		content := contents[meta.ContentKey()]

		index.Protocols[meta.Name] = &Searchable{
			Meta:    meta,
			Content: content,
			Tokens:  Tokenize(content),
		}
		index.Order = append(index.Order, meta.Name)

		for _, trigger := range meta.Triggers {
			index.TriggerMap[trigger] = appendUnique(index.TriggerMap[trigger], meta.Name)
		}

		category := meta.Category
		if category == "" {
			category = "uncategorized"
		}
		index.CategoryMap[category] = appendUnique(index.CategoryMap[category], meta.Name)
	}

	ix.index = index
	return index
}

// Get returns the last built index, or nil if Build was never called.
// Callers must check and surface an "index not initialized" condition.
func (ix *Indexer) Get() *Index {
	return ix.index
}

func appendUnique(names []string, name string) []string {
	for _, existing := range names {
		if existing == name {
			return names
		}
	}
	return append(names, name)
}
