package search

import "strings"

// TaskType classifies what kind of work a free-text task description asks
// for. The zero-value meaningful default is TaskUnknown.
type TaskType string

const (
	TaskDebug    TaskType = "debug"
	TaskBuild    TaskType = "build"
	TaskRefactor TaskType = "refactor"
	TaskAudit    TaskType = "audit"
	TaskOptimize TaskType = "optimize"
	TaskTest     TaskType = "test"
	TaskSetup    TaskType = "setup"
	TaskDocument TaskType = "document"
	TaskUnknown  TaskType = "unknown"
)

// TaskTypes lists every type in evaluation order. Classification walks this
// slice and the first type with the maximum keyword count wins, so the order
// here is load-bearing.
var TaskTypes = []TaskType{
	TaskDebug, TaskBuild, TaskRefactor, TaskAudit,
	TaskOptimize, TaskTest, TaskSetup, TaskDocument, TaskUnknown,
}

var taskKeywords = map[TaskType][]string{
	TaskDebug: {
		"bug", "fix", "error", "broken", "crash", "fail", "issue",
		"problem", "debug", "deepdive", "trace", "investigate",
	},
	TaskBuild: {
		"build", "create", "new", "feature", "implement", "develop",
		"add", "make", "write component", "design", "architecture",
	},
	TaskRefactor: {
		"refactor", "restructure", "reorganize", "rewrite", "clean",
		"cleanup", "improve", "modernize", "upgrade", "deprecate",
	},
	TaskAudit: {
		"audit", "review", "check", "inspect", "analyze", "examine",
		"assess", "evaluate", "scan", "verify",
	},
	TaskOptimize: {
		"optimize", "performance", "slow", "fast", "speed", "efficient",
		"bottleneck", "profile", "bench", "scale",
	},
	TaskTest: {
		"test", "coverage", "suite", "spec", "unit test",
		"integration test", "e2e", "mock", "stub",
	},
	TaskSetup: {
		"setup", "set up", "configure", "init", "initialize", "install",
		"provision", "scaffold", "template",
	},
	TaskDocument: {
		"document", "doc", "readme", "comment", "example", "guide",
		"tutorial", "jsdoc",
	},
	TaskUnknown: {},
}

// AnalyzeTaskIntent classifies a free-text task description by substring
// keyword counting. A description matching nothing is TaskUnknown.
func AnalyzeTaskIntent(description string) TaskType {
	lower := strings.ToLower(description)

	best := TaskUnknown
	bestCount := 0
	for _, taskType := range TaskTypes {
		count := 0
		for _, keyword := range taskKeywords[taskType] {
			if strings.Contains(lower, keyword) {
				count++
			}
		}
		if count > bestCount {
			best = taskType
			bestCount = count
		}
	}

	return best
}

// ValidTaskType reports whether s names a recognized task type.
func ValidTaskType(s string) bool {
	for _, taskType := range TaskTypes {
		if string(taskType) == s {
			return true
		}
	}
	return false
}

// Fixed per-type lookup tables. Unlisted types fall back to the unknown
// entry.
var taskDifficulties = map[TaskType]string{
	TaskDebug:    "intermediate",
	TaskBuild:    "intermediate",
	TaskRefactor: "advanced",
	TaskAudit:    "advanced",
	TaskOptimize: "advanced",
	TaskTest:     "intermediate",
	TaskSetup:    "beginner",
	TaskDocument: "beginner",
	TaskUnknown:  "intermediate",
}

var taskTimeEstimates = map[TaskType]string{
	TaskDebug:    "30-60m",
	TaskBuild:    "2-4 hours",
	TaskRefactor: "1-3 hours",
	TaskAudit:    "2-4 hours",
	TaskOptimize: "2-4 hours",
	TaskTest:     "1-2 hours",
	TaskSetup:    "30-45m",
	TaskDocument: "1-2 hours",
	TaskUnknown:  "1-2 hours",
}

var taskTags = map[TaskType][]string{
	TaskDebug:    {"troubleshooting", "error-analysis", "root-cause", "reproduction"},
	TaskBuild:    {"feature-development", "architecture", "design", "implementation"},
	TaskRefactor: {"code-quality", "technical-debt", "modernization", "safety"},
	TaskAudit:    {"code-review", "quality-assurance", "compliance", "assessment"},
	TaskOptimize: {"performance", "efficiency", "scalability", "bottleneck-analysis"},
	TaskTest:     {"coverage", "automation", "validation", "verification"},
	TaskSetup:    {"configuration", "initialization", "installation", "provisioning"},
	TaskDocument: {"documentation", "clarity", "examples", "guides"},
	TaskUnknown:  {"general", "miscellaneous"},
}

// TaskDifficulty estimates how demanding a task type usually is.
func TaskDifficulty(taskType TaskType) string {
	if d, ok := taskDifficulties[taskType]; ok {
		return d
	}
	return taskDifficulties[TaskUnknown]
}

// TaskTimeEstimate gives a rough wall-clock estimate for a task type.
func TaskTimeEstimate(taskType TaskType) string {
	if t, ok := taskTimeEstimates[taskType]; ok {
		return t
	}
	return taskTimeEstimates[TaskUnknown]
}

// TaskTags lists descriptive tags associated with a task type, used when
// presenting a routed workflow.
func TaskTags(taskType TaskType) []string {
	if tags, ok := taskTags[taskType]; ok {
		return tags
	}
	return taskTags[TaskUnknown]
}
