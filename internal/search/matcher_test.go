package search

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"protodex/internal/projectctx"
	"protodex/internal/protocol"
)

func buildTestIndex(t *testing.T) *Index {
	t.Helper()

	records := []protocol.Metadata{
		{
			Name:     "debug_protocol",
			FilePath: "debug_protocol.md",
			Title:    "Debug Protocol",
			Triggers: []string{"DEEPDIVE"},
			Purpose:  "Find and fix bugs systematically",
			Category: "Debugging",
		},
		{
			Name:     "performance_protocol",
			FilePath: "performance_protocol.md",
			Title:    "Performance Audit",
			Triggers: []string{"PERFAUDIT"},
			Purpose:  "Profile and remove bottlenecks",
			Category: "Performance",
		},
		{
			Name:     "react_frontend_protocol",
			FilePath: "react_frontend_protocol.md",
			Title:    "React Component Guide",
			Triggers: []string{"ULTRATHINK"},
			Purpose:  "Build accessible React components",
			Category: "Frontend",
		},
	}
	contents := map[string]string{
		"debug_protocol.md":          "Debugging guide\nUse breakpoints to debug\nIsolate the failure",
		"performance_protocol.md":    "Measure first\nProfile hotspots before optimizing",
		"react_frontend_protocol.md": "Component structure\nState and props\nAccessibility matters",
	}

	return NewIndexer().Build(records, contents)
}

func TestSearchEmptyQuery(t *testing.T) {
	index := buildTestIndex(t)
	m := NewMatcher()

	assert.Empty(t, m.Search(index, "", nil))
	assert.Empty(t, m.Search(index, "   \t\n", nil))
}

func TestSearchScoring(t *testing.T) {
	index := buildTestIndex(t)
	m := NewMatcher()

	results := m.Search(index, "debug", nil)
	require.NotEmpty(t, results)

	top := results[0]
	assert.Equal(t, "debug_protocol", top.Protocol)
	// Title contains "debug" (+10) and two content tokens contain it
	// ("debugging", "debug").
	assert.Equal(t, 12, top.Score)
	assert.NotEmpty(t, top.Matches)
	assert.NotEmpty(t, top.Excerpt)
}

func TestSearchScoresNonIncreasing(t *testing.T) {
	index := buildTestIndex(t)
	m := NewMatcher()

	results := m.Search(index, "profile debug components", nil)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score,
			"scores must be non-increasing")
	}
}

func TestSearchCategoryFilter(t *testing.T) {
	index := buildTestIndex(t)
	m := NewMatcher()

	results := m.Search(index, "protocol guide components", &Options{Category: "Frontend"})
	for _, r := range results {
		assert.Equal(t, "react_frontend_protocol", r.Protocol)
	}
}

func TestSearchMinScore(t *testing.T) {
	index := buildTestIndex(t)
	m := NewMatcher()

	all := m.Search(index, "debug", nil)
	require.NotEmpty(t, all)

	filtered := m.Search(index, "debug", &Options{MinScore: all[0].Score})
	assert.Empty(t, filtered, "results at or below MinScore are dropped")
}

func TestSearchMatchLinesCapped(t *testing.T) {
	records := []protocol.Metadata{{Name: "dense", FilePath: "dense.md", Title: "Dense"}}
	contents := map[string]string{
		"dense.md": "needle one\nneedle two\nneedle three\nneedle four\nneedle five",
	}
	index := NewIndexer().Build(records, contents)

	results := NewMatcher().Search(index, "needle", nil)
	require.Len(t, results, 1)
	assert.Len(t, results[0].Matches, 3)
}

func TestExtractExcerptWindow(t *testing.T) {
	padding := strings.Repeat("x", 300)
	content := padding + " needle " + padding

	excerpt := extractExcerpt([]string{"needle"}, content)
	assert.Contains(t, excerpt, "needle")
	assert.True(t, strings.HasPrefix(excerpt, "..."))
	assert.True(t, strings.HasSuffix(excerpt, "..."))

	short := extractExcerpt([]string{"needle"}, "the needle is here")
	assert.Equal(t, "the needle is here", short)
}

func TestExtractExcerptRuneBoundaries(t *testing.T) {
	// Shift the window edges across odd byte offsets so they land inside
	// multi-byte runes.
	for _, prefix := range []string{"", ".", ".."} {
		content := prefix + strings.Repeat("é", 200) + " needle " + strings.Repeat("ü", 200)
		excerpt := extractExcerpt([]string{"needle"}, content)
		assert.True(t, utf8.ValidString(excerpt), "prefix %q", prefix)
		assert.Contains(t, excerpt, "needle")
	}

	noHit := "." + strings.Repeat("ß", 200)
	assert.True(t, utf8.ValidString(extractExcerpt([]string{"zzz"}, noHit)))
}

func TestSearchTiesKeepEncounterOrder(t *testing.T) {
	records := []protocol.Metadata{
		{Name: "alpha_checklist", FilePath: "alpha_checklist.md", Title: "Release Checklist", Category: "Process"},
		{Name: "bravo_checklist", FilePath: "bravo_checklist.md", Title: "Release Checklist", Category: "Process"},
		{Name: "charlie_checklist", FilePath: "charlie_checklist.md", Title: "Release Checklist", Category: "Process"},
	}
	contents := map[string]string{
		"alpha_checklist.md":   "Tag the release",
		"bravo_checklist.md":   "Tag the release",
		"charlie_checklist.md": "Tag the release",
	}
	index := NewIndexer().Build(records, contents)

	results := NewMatcher().Search(index, "release", nil)
	require.Len(t, results, 3)
	assert.Equal(t, results[0].Score, results[1].Score)
	assert.Equal(t, results[1].Score, results[2].Score)
	assert.Equal(t, "alpha_checklist", results[0].Protocol)
	assert.Equal(t, "bravo_checklist", results[1].Protocol)
	assert.Equal(t, "charlie_checklist", results[2].Protocol)
}

func TestFuzzyMatchTiesKeepEncounterOrder(t *testing.T) {
	records := []protocol.Metadata{
		{Name: "cache_aa", FilePath: "cache_aa.md", Title: "Cache AA"},
		{Name: "cache_bb", FilePath: "cache_bb.md", Title: "Cache BB"},
		{Name: "cache_cc", FilePath: "cache_cc.md", Title: "Cache CC"},
	}
	index := NewIndexer().Build(records, map[string]string{})

	// Every name is the same edit distance from the query, so all
	// similarities tie.
	results := NewMatcher().FuzzyMatch(index, "cache_xx")
	require.Len(t, results, 3)
	assert.Equal(t, results[0].Similarity, results[1].Similarity)
	assert.Equal(t, results[1].Similarity, results[2].Similarity)
	assert.Equal(t, "cache_aa", results[0].Protocol)
	assert.Equal(t, "cache_bb", results[1].Protocol)
	assert.Equal(t, "cache_cc", results[2].Protocol)
}

func TestFuzzyMatchExactNameFirst(t *testing.T) {
	index := buildTestIndex(t)
	m := NewMatcher()

	results := m.FuzzyMatch(index, "debug_protocol")
	require.NotEmpty(t, results)
	assert.Equal(t, "debug_protocol", results[0].Protocol)
	assert.Equal(t, 1.0, results[0].Similarity)
}

func TestFuzzyMatchApproximate(t *testing.T) {
	index := buildTestIndex(t)
	m := NewMatcher()

	results := m.FuzzyMatch(index, "debug_protocl")
	require.NotEmpty(t, results)
	assert.Equal(t, "debug_protocol", results[0].Protocol)
	assert.Greater(t, results[0].Similarity, fuzzyThreshold)
	assert.Less(t, results[0].Similarity, 1.0)
}

func TestFuzzyMatchNoMatches(t *testing.T) {
	index := buildTestIndex(t)
	m := NewMatcher()

	assert.Empty(t, m.FuzzyMatch(index, "zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz"))
}

func TestLevenshteinSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"", "", 1},
		{"abc", "abc", 1},
		{"abc", "abd", 1 - 1.0/3},
		{"abc", "", 0},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, levenshteinSimilarity(tt.a, tt.b), 1e-9,
			"similarity(%q, %q)", tt.a, tt.b)
	}
}

func TestContextualizeUndetectedIsNoOp(t *testing.T) {
	index := buildTestIndex(t)
	m := NewMatcher()

	results := m.Search(index, "protocol", nil)
	require.NotEmpty(t, results)

	adjusted := m.Contextualize(results, projectctx.Default())
	assert.Equal(t, results, adjusted, "undetected context must not change results")
}

func TestContextualizeBoostsMatchingStack(t *testing.T) {
	index := buildTestIndex(t)
	m := NewMatcher()

	results := m.Search(index, "guide components structure", nil)
	require.NotEmpty(t, results)

	ctx := projectctx.Context{
		Language:    "typescript",
		Framework:   "react",
		ProjectType: "frontend",
		Detected:    true,
	}
	adjusted := m.Contextualize(results, ctx)

	var reactResult *Result
	for i := range adjusted {
		if adjusted[i].Protocol == "react_frontend_protocol" {
			reactResult = &adjusted[i]
		}
	}
	require.NotNil(t, reactResult)
	assert.Equal(t, "high", reactResult.ContextRelevance)

	var original *Result
	for i := range results {
		if results[i].Protocol == "react_frontend_protocol" {
			original = &results[i]
		}
	}
	require.NotNil(t, original)
	// Framework match (+5) plus frontend signals "react" and "frontend" (+3).
	assert.Equal(t, original.Score+8, reactResult.Score)
}
