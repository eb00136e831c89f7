package search

import (
	"sort"
	"strings"
	"unicode/utf8"

	"protodex/internal/projectctx"
)

// Result is one full-text search hit.
type Result struct {
	Protocol string
	Score    int
	Matches  []string // up to 3 content lines containing a query token
	Excerpt  string   // ~150 chars centered on the earliest token occurrence
	// ContextRelevance is set by Contextualize: "high", "medium", or "low".
	ContextRelevance string
}

// FuzzyResult is one approximate name match.
type FuzzyResult struct {
	Protocol   string
	Similarity float64
}

// Options narrow or raise the bar for a search.
type Options struct {
	Category string
	MinScore int
}

// excerptLength is the approximate size of the excerpt window.
const excerptLength = 150

// maxMatchLines caps the matching content lines carried per result.
const maxMatchLines = 3

// fuzzyThreshold is the minimum similarity for a fuzzy match to be kept.
const fuzzyThreshold = 0.3

// Matcher executes queries against a built Index. It is stateless; the
// index is passed per call.
type Matcher struct{}

func NewMatcher() *Matcher {
	return &Matcher{}
}

// Search runs weighted full-text search. An empty or whitespace-only query
// returns an empty result list, not an error. Results are sorted by score
// descending; ties retain index encounter order.
func (m *Matcher) Search(index *Index, query string, opts *Options) []Result {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil
	}

	// Query tokens split on whitespace only: no punctuation stripping, no
	// length filter, unlike content tokenization.
	queryTokens := strings.Fields(strings.ToLower(trimmed))
	if len(queryTokens) == 0 {
		return nil
	}

	minScore := 0
	category := ""
	if opts != nil {
		minScore = opts.MinScore
		category = opts.Category
	}

	var results []Result
	for _, name := range index.Order {
		searchable := index.Protocols[name]

		if category != "" && searchable.Meta.Category != category {
			continue
		}

		score := m.score(queryTokens, searchable)
		if score > minScore {
			results = append(results, Result{
				Protocol: name,
				Score:    score,
				Matches:  findMatchLines(queryTokens, searchable.Content),
				Excerpt:  extractExcerpt(queryTokens, searchable.Content),
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// score is additive across query tokens and fields; only the content-token
// sub-term is capped (at 10 per token). The total is intentionally unbounded
// and not normalized by document length.
func (m *Matcher) score(queryTokens []string, searchable *Searchable) int {
	score := 0
	lowerTitle := strings.ToLower(searchable.Meta.Title)
	lowerPurpose := strings.ToLower(searchable.Meta.Purpose)

	for _, token := range queryTokens {
		// Title match (highest weight)
		if strings.Contains(lowerTitle, token) {
			score += 10
		}

		for _, trigger := range searchable.Meta.Triggers {
			if strings.Contains(strings.ToLower(trigger), token) {
				score += 8
				break
			}
		}

		if strings.Contains(lowerPurpose, token) {
			score += 5
		}

		tokenCount := 0
		for _, t := range searchable.Tokens {
			if strings.Contains(t, token) {
				tokenCount++
			}
		}
		if tokenCount > 10 {
			tokenCount = 10
		}
		score += tokenCount
	}

	return score
}

// findMatchLines returns up to three content lines containing any query
// token, in first-found order.
func findMatchLines(queryTokens []string, content string) []string {
	var matches []string

	for _, line := range strings.Split(content, "\n") {
		lowerLine := strings.ToLower(line)
		for _, token := range queryTokens {
			if strings.Contains(lowerLine, token) {
				matches = append(matches, strings.TrimSpace(line))
				break
			}
		}
		if len(matches) >= maxMatchLines {
			break
		}
	}

	return matches
}

// extractExcerpt returns ~150 characters centered on the earliest query
// token occurrence, with leading/trailing ellipses when the window is
// interior to the content.
func extractExcerpt(queryTokens []string, content string) string {
	lowerContent := strings.ToLower(content)
	firstMatch := -1

	for _, token := range queryTokens {
		if idx := strings.Index(lowerContent, token); idx != -1 {
			if firstMatch == -1 || idx < firstMatch {
				firstMatch = idx
			}
		}
	}

	if firstMatch == -1 {
		if len(content) <= excerptLength {
			return content + "..."
		}
		return content[:snapToRuneStart(content, excerptLength)] + "..."
	}

	start := snapToRuneStart(content, firstMatch-excerptLength/2)
	end := snapToRuneStart(content, firstMatch+excerptLength/2)

	excerpt := content[start:end]
	if start > 0 {
		excerpt = "..." + excerpt
	}
	if end < len(content) {
		excerpt = excerpt + "..."
	}
	return excerpt
}

// snapToRuneStart clamps a byte offset into content and moves it back to the
// nearest rune boundary, so window edges never split a multi-byte rune.
func snapToRuneStart(content string, offset int) int {
	if offset < 0 {
		return 0
	}
	if offset >= len(content) {
		return len(content)
	}
	for offset > 0 && !utf8.RuneStart(content[offset]) {
		offset--
	}
	return offset
}

// FuzzyMatch ranks indexed protocol names by normalized Levenshtein
// similarity to the query, keeping those above the threshold. Ties retain
// encounter order.
func (m *Matcher) FuzzyMatch(index *Index, name string) []FuzzyResult {
	lowerName := strings.ToLower(name)

	var results []FuzzyResult
	for _, protocolName := range index.Order {
		similarity := levenshteinSimilarity(lowerName, strings.ToLower(protocolName))
		if similarity > fuzzyThreshold {
			results = append(results, FuzzyResult{
				Protocol:   protocolName,
				Similarity: similarity,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	return results
}

// Contextualize re-ranks results using the caller's detected stack: +5 when
// the language appears in the protocol name, +5 for the framework, +3 for a
// project-type signal. It never filters; an undetected context is a no-op.
func (m *Matcher) Contextualize(results []Result, ctx projectctx.Context) []Result {
	if !ctx.Detected {
		return results
	}

	adjusted := make([]Result, len(results))
	for i, result := range results {
		bonus := 0
		languageMatched := false
		frameworkMatched := false

		lowerName := strings.ToLower(result.Protocol)
		lowerLanguage := strings.ToLower(ctx.Language)
		lowerFramework := strings.ToLower(ctx.Framework)

		if lowerLanguage != "" && lowerLanguage != "unknown" && strings.Contains(lowerName, lowerLanguage) {
			bonus += 5
			languageMatched = true
		}

		if lowerFramework != "" && lowerFramework != "unknown" && strings.Contains(lowerName, lowerFramework) {
			bonus += 5
			frameworkMatched = true
		}

		if matchesProjectType(lowerName, ctx.ProjectType) {
			bonus += 3
		}

		// Language or framework match already implies bonus >= 5.
		relevance := "low"
		if languageMatched || frameworkMatched {
			relevance = "high"
		} else if bonus >= 3 {
			relevance = "medium"
		}

		adjusted[i] = result
		adjusted[i].Score += bonus
		adjusted[i].ContextRelevance = relevance
	}

	sort.SliceStable(adjusted, func(i, j int) bool {
		return adjusted[i].Score > adjusted[j].Score
	})
	return adjusted
}

// projectTypeSignals are the protocol-name substrings counted as a match
// for each inferred project type.
var projectTypeSignals = map[string][]string{
	"frontend": {"frontend", "react", "accessibility", "aria"},
	"backend":  {"backend", "api", "database", "performance"},
}

func matchesProjectType(lowerName, projectType string) bool {
	for _, signal := range projectTypeSignals[projectType] {
		if strings.Contains(lowerName, signal) {
			return true
		}
	}
	return false
}

// levenshteinSimilarity normalizes edit distance into [0,1]; two empty
// strings are identical (1).
func levenshteinSimilarity(a, b string) float64 {
	maxLength := len(a)
	if len(b) > maxLength {
		maxLength = len(b)
	}
	if maxLength == 0 {
		return 1
	}
	return 1 - float64(levenshteinDistance(a, b))/float64(maxLength)
}

func levenshteinDistance(a, b string) int {
	prev := make([]int, len(a)+1)
	curr := make([]int, len(a)+1)

	for j := 0; j <= len(a); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(b); i++ {
		curr[0] = i
		for j := 1; j <= len(a); j++ {
			if b[i-1] == a[j-1] {
				curr[j] = prev[j-1]
			} else {
				curr[j] = min3(prev[j-1]+1, curr[j-1]+1, prev[j]+1)
			}
		}
		prev, curr = curr, prev
	}

	return prev[len(a)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
