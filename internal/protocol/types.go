// Package protocol defines the protocol document model and the metadata
// extraction rules that turn one markdown file into a structured record.
//
// A protocol file may carry a YAML preamble (front matter) with explicit
// metadata. When the preamble is missing, malformed, or incomplete, the
// extractor falls back to rule-based inference so that every file always
// yields a usable record.
package protocol

import "strings"

// Difficulty levels for protocols and tasks.
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// CategoryGeneral is the fallback category when inference finds no match.
const CategoryGeneral = "General"

// Metadata is the structured record for one protocol document.
type Metadata struct {
	ID       string
	FileName string
	// Name is FileName with exactly one trailing ".md" removed; further
	// extensions are never stripped.
	Name     string
	Title    string
	Triggers []string // uppercase keywords
	Category string
	Purpose  string // first paragraph after the title, capped at 200 chars
	FilePath string // relative to the protocols root

	// Extended fields, explicit or inferred.
	Tags          []string
	Difficulty    string
	TimeEstimate  string
	Version       string
	Prerequisites []string
	WorksWellWith []string
	PlatformTags  []string
	StackSpecific map[string]bool

	// HasFrontmatter records whether a complete, schema-valid preamble was
	// present. Partial preambles contribute their fields but leave this false.
	HasFrontmatter bool
}

// ContentKey returns the key under which the scanner stores this record's
// raw content. Keyed by relative path so name collisions across directories
// cannot clobber each other.
func (m *Metadata) ContentKey() string {
	return m.FilePath
}

// HasTrigger reports whether the record declares the given trigger,
// case-insensitively.
func (m *Metadata) HasTrigger(trigger string) bool {
	upper := strings.ToUpper(trigger)
	for _, t := range m.Triggers {
		if t == upper {
			return true
		}
	}
	return false
}

// Frontmatter is the YAML preamble schema expected at the top of a protocol
// file. All fields are optional at parse time; completeness is checked
// separately by Complete.
type Frontmatter struct {
	ID            string          `yaml:"id"`
	Version       string          `yaml:"version"`
	Triggers      []string        `yaml:"triggers"`
	Category      string          `yaml:"category"`
	Tags          []string        `yaml:"tags"`
	Difficulty    string          `yaml:"difficulty"`
	TimeEstimate  string          `yaml:"timeEstimate"`
	Prerequisites []string        `yaml:"prerequisites"`
	WorksWellWith []string        `yaml:"worksWellWith"`
	PlatformTags  []string        `yaml:"platformTags"`
	StackSpecific map[string]bool `yaml:"stackSpecific"`
}

// frontmatterCategories are the categories accepted in an explicit preamble.
var frontmatterCategories = map[string]bool{
	"Debugging":      true,
	"Testing":        true,
	"Architecture":   true,
	"Frontend":       true,
	"Accessibility":  true,
	"Security":       true,
	"Performance":    true,
	"Quality":        true,
	"Refactoring":    true,
	"VersionControl": true,
	"Auditing":       true,
	"Configuration":  true,
	"Core":           true,
}

var difficulties = map[string]bool{
	DifficultyBeginner:     true,
	DifficultyIntermediate: true,
	DifficultyAdvanced:     true,
}

// ValidDifficulty reports whether d is a known difficulty tier.
func ValidDifficulty(d string) bool {
	return difficulties[d]
}

// Complete reports whether the preamble carries every required field with a
// valid value: id, version, at least one trigger, a known category, at least
// one tag, and a known difficulty. Optional fields do not affect the result.
func (f *Frontmatter) Complete() bool {
	return f.ID != "" &&
		f.Version != "" &&
		len(f.Triggers) > 0 &&
		frontmatterCategories[f.Category] &&
		len(f.Tags) > 0 &&
		difficulties[f.Difficulty]
}
