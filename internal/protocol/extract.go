package protocol

import (
	"bytes"
	"regexp"
	"strings"

	"protodex/internal/logging"

	"github.com/adrg/frontmatter"
)

// titlePattern matches the first level-1 heading: "#" followed by whitespace.
var titlePattern = regexp.MustCompile(`(?m)^#\s+(.+)$`)

// triggerPattern matches "Trigger: COMMAND" or "Command: COMMAND" labels,
// case-insensitively, with optional quoting around the token.
var triggerPattern = regexp.MustCompile(`(?i)(?:Trigger|Command):\s*['"]?([A-Z0-9]+)['"]?`)

var nonAlnumSpace = regexp.MustCompile(`[^a-z0-9\s]`)
var nonAlnum = regexp.MustCompile(`[^a-z0-9]`)
var whitespaceRun = regexp.MustCompile(`\s+`)
var protocolSuffix = regexp.MustCompile(`(_protocol|-protocol)$`)

// knownTriggers maps document base names to their canonical trigger keywords.
// Keys are matched against the normalized document title (see inferTriggers).
var knownTriggers = []struct {
	key      string
	triggers []string
}{
	{"MASTER_PROTOCOL", []string{"MASTER"}},
	{"code_review_protocol", []string{"COMPREHENSIVE"}},
	{"debug_protocol", []string{"DEEPDIVE"}},
	{"error_fix_protocol", []string{"AUTODEBUG"}},
	{"test_automation_protocol", []string{"FULLSPEC"}},
	{"moreFRONTend-PROTOCOL", []string{"ULTRATHINK"}},
	{"FRONTandBACKend-PROTOCOL", []string{"ANTI-GENERIC"}},
	{"bigpappa_protocol_reviewANDfixes", []string{"BIGPAPPA"}},
	{"codebase_indexing_protocol", []string{"FULLINDEX"}},
	{"security_audit_protocol", []string{"SECAUDIT"}},
	{"accessibility_protocol", []string{"A11YCHECK"}},
	{"git_workflow_protocol", []string{"GITFLOW"}},
	{"api_design_protocol", []string{"APIDESIGN"}},
	{"performance_protocol", []string{"PERFAUDIT"}},
	{"mdap_protocol", []string{"MDAP", "MILLIONSTEP"}},
	{"refactor_protocol", []string{"REFACTOR"}},
	{"aria_accessibility_protocol", []string{"FULLARIA"}},
	{"best_practices_protocol", []string{"BESTPRACTICES"}},
}

// categoryRules is the ordered substring table for category inference;
// first match against the lowercased name wins.
var categoryRules = []struct {
	substr   string
	category string
}{
	{"code_review", "Quality"},
	{"debug", "Debugging"},
	{"error_fix", "Debugging"},
	{"test", "Testing"},
	{"security", "Security"},
	{"accessibility", "Accessibility"},
	{"performance", "Performance"},
	{"git", "Version Control"},
	{"api", "Architecture"},
	{"frontend", "Frontend"},
	{"backend", "Backend"},
	{"mdap", "Core"},
	{"refactor", "Refactoring"},
	{"codebase", "Architecture"},
	{"master", "Core"},
	{"bigpappa", "Audit"},
	{"optimized", "Configuration"},
}

// tagRules is the ordered substring table for tag inference. Unlike category
// inference, every matching rule contributes its tags.
var tagRules = []struct {
	substr string
	tags   []string
}{
	{"debug", []string{"troubleshooting", "error-analysis"}},
	{"error_fix", []string{"troubleshooting", "quick-fix"}},
	{"test", []string{"testing", "automation"}},
	{"security", []string{"security", "audit"}},
	{"performance", []string{"performance", "optimization"}},
	{"accessibility", []string{"accessibility", "a11y"}},
	{"git", []string{"git", "workflow"}},
	{"api", []string{"api", "design"}},
	{"refactor", []string{"refactoring", "code-quality"}},
	{"frontend", []string{"frontend", "ui-ux"}},
	{"backend", []string{"backend", "architecture"}},
	{"review", []string{"code-review", "quality"}},
}

// frontendSignals mark a document as frontend-specific for platform and
// stack inference.
var frontendSignals = []string{"frontend", "react", "aria", "accessibility", "ui"}

// Extract parses one protocol document into a Metadata record. It never
// fails: a missing, malformed, or partial preamble degrades to rule-based
// inference with defaults filling the rest.
func Extract(fileName, content string) Metadata {
	// Only remove one trailing .md extension
	name := strings.TrimSuffix(fileName, ".md")

	m := Metadata{
		FileName: fileName,
		Name:     name,
		FilePath: fileName,
	}

	body := content
	if hasPreamble(content) {
		var fm Frontmatter
		rest, err := frontmatter.MustParse(bytes.NewReader([]byte(content)), &fm)
		if err != nil {
			logging.Warn("Malformed protocol preamble, falling back to inference",
				"file", fileName, "error", err)
		} else {
			body = string(rest)
			applyFrontmatter(&m, &fm)
			m.HasFrontmatter = fm.Complete()
		}
	}

	// Extract title (first H1 heading only - starts with # followed by space)
	title := name
	if match := titlePattern.FindStringSubmatch(body); match != nil {
		title = match[1]
	}
	if m.Title == "" {
		m.Title = title
	}

	if len(m.Triggers) == 0 {
		m.Triggers = inferTriggers(body, title)
	}
	m.Triggers = normalizeTriggers(m.Triggers)

	if m.Category == "" {
		m.Category = inferCategory(name)
	}
	if m.Purpose == "" {
		m.Purpose = inferPurpose(body)
	}
	if len(m.Tags) == 0 {
		m.Tags = inferTags(name, title)
	}
	if len(m.PlatformTags) == 0 {
		m.PlatformTags = inferPlatformTags(name, title)
	}
	if len(m.StackSpecific) == 0 {
		m.StackSpecific = inferStackSpecific(name, title)
	}

	if m.ID == "" {
		m.ID = name
	}
	if m.Version == "" {
		m.Version = "1.0.0"
	}
	if !ValidDifficulty(m.Difficulty) {
		m.Difficulty = DifficultyIntermediate
	}

	return m
}

// hasPreamble reports whether content begins with a front matter delimiter
// line, tolerating both LF and CRLF endings.
func hasPreamble(content string) bool {
	return strings.HasPrefix(content, "---\n") ||
		strings.HasPrefix(content, "---\r\n")
}

// applyFrontmatter copies the fields a parsed preamble actually provides.
// A category outside the schema enumeration is ignored so inference can
// supply a valid one.
func applyFrontmatter(m *Metadata, fm *Frontmatter) {
	m.ID = fm.ID
	m.Version = fm.Version
	m.Triggers = append([]string(nil), fm.Triggers...)
	if frontmatterCategories[fm.Category] {
		m.Category = fm.Category
	}
	m.Tags = append([]string(nil), fm.Tags...)
	if ValidDifficulty(fm.Difficulty) {
		m.Difficulty = fm.Difficulty
	}
	m.TimeEstimate = fm.TimeEstimate
	m.Prerequisites = append([]string(nil), fm.Prerequisites...)
	m.WorksWellWith = append([]string(nil), fm.WorksWellWith...)
	m.PlatformTags = append([]string(nil), fm.PlatformTags...)
	if len(fm.StackSpecific) > 0 {
		m.StackSpecific = make(map[string]bool, len(fm.StackSpecific))
		for k, v := range fm.StackSpecific {
			m.StackSpecific[k] = v
		}
	}
}

// inferTriggers collects trigger keywords from "Trigger:"/"Command:" labels
// in the content and from the known-trigger table keyed by the normalized
// document title.
func inferTriggers(content, title string) []string {
	var triggers []string

	for _, match := range triggerPattern.FindAllStringSubmatch(content, -1) {
		triggers = append(triggers, strings.ToUpper(match[1]))
	}

	// Normalize title for matching: lowercase, drop non-alphanumeric except
	// spaces, collapse whitespace.
	normTitle := strings.ToLower(title)
	normTitle = nonAlnumSpace.ReplaceAllString(normTitle, "")
	normTitle = strings.TrimSpace(whitespaceRun.ReplaceAllString(normTitle, " "))

	for _, entry := range knownTriggers {
		key := strings.ToLower(entry.key)
		key = protocolSuffix.ReplaceAllString(key, "")
		key = nonAlnum.ReplaceAllString(key, "")

		if strings.Contains(normTitle, key) {
			triggers = append(triggers, entry.triggers...)
		}
	}

	return triggers
}

// normalizeTriggers uppercases and deduplicates while keeping first-seen order.
func normalizeTriggers(triggers []string) []string {
	seen := make(map[string]bool, len(triggers))
	var out []string
	for _, t := range triggers {
		upper := strings.ToUpper(strings.TrimSpace(t))
		if upper == "" || seen[upper] {
			continue
		}
		seen[upper] = true
		out = append(out, upper)
	}
	return out
}

func inferCategory(name string) string {
	lower := strings.ToLower(name)
	for _, rule := range categoryRules {
		if strings.Contains(lower, rule.substr) {
			return rule.category
		}
	}
	return CategoryGeneral
}

// inferPurpose returns the first two non-empty, non-heading, non-divider
// lines after the first level-1 heading, joined and capped at 200 characters.
func inferPurpose(content string) string {
	var purposeLines []string
	foundTitle := false

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimRight(line, "\r")

		if !foundTitle && titleLine(line) {
			foundTitle = true
			continue
		}

		if foundTitle && strings.TrimSpace(line) != "" &&
			!strings.HasPrefix(line, "#") && !strings.HasPrefix(line, "---") {
			purposeLines = append(purposeLines, strings.TrimSpace(line))
			if len(purposeLines) >= 2 {
				break
			}
		}
	}

	purpose := strings.Join(purposeLines, " ")
	if len(purpose) > 200 {
		purpose = purpose[:200]
	}
	return purpose
}

// titleLine reports whether line is a level-1 heading ("# " at line start).
func titleLine(line string) bool {
	return strings.HasPrefix(line, "# ") || strings.HasPrefix(line, "#\t")
}

func inferTags(name, title string) []string {
	haystack := strings.ToLower(name + " " + title)
	seen := make(map[string]bool)
	var tags []string

	for _, rule := range tagRules {
		if !strings.Contains(haystack, rule.substr) {
			continue
		}
		for _, tag := range rule.tags {
			if !seen[tag] {
				seen[tag] = true
				tags = append(tags, tag)
			}
		}
	}

	if len(tags) == 0 {
		tags = []string{"general"}
	}
	return tags
}

func isFrontendSpecific(name, title string) bool {
	haystack := strings.ToLower(name + " " + title)
	for _, signal := range frontendSignals {
		if strings.Contains(haystack, signal) {
			return true
		}
	}
	return false
}

func inferPlatformTags(name, title string) []string {
	if isFrontendSpecific(name, title) {
		return []string{"frontend"}
	}
	return []string{"frontend", "backend", "fullstack"}
}

// inferStackSpecific defaults to "applicable to all common stacks"; a
// frontend-specific document narrows to the node ecosystem.
func inferStackSpecific(name, title string) map[string]bool {
	if isFrontendSpecific(name, title) {
		return map[string]bool{"node": true}
	}
	return map[string]bool{
		"node":   true,
		"python": true,
		"go":     true,
		"java":   true,
	}
}
