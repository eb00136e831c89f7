package search

import (
	"fmt"
	"strings"

	"protodex/internal/projectctx"
)

// WorkflowStep is one recommended protocol in a routed workflow.
type WorkflowStep struct {
	Order        int
	ProtocolName string
	Trigger      string
	Reason       string
	Optional     bool
	Prerequisite string // empty when the step has no prerequisite
}

// Shortcut names a subset of a workflow that can stand alone.
type Shortcut struct {
	Name      string
	Protocols []string
}

var taskWorkflows = map[TaskType][]string{
	TaskDebug: {
		"debug_protocol",
		"error_fix_protocol",
		"test_automation_protocol",
		"code_review_protocol",
	},
	TaskBuild: {
		"codebase_indexing_protocol",
		"best_practices_protocol",
		"test_automation_protocol",
		"code_review_protocol",
	},
	TaskRefactor: {
		"codebase_indexing_protocol",
		"mdap_protocol",
		"refactor_protocol",
		"test_automation_protocol",
		"code_review_protocol",
	},
	TaskAudit: {
		"bigpappa_protocol_reviewANDfixes",
		"security_audit_protocol",
		"code_review_protocol",
		"performance_protocol",
	},
	TaskOptimize: {
		"codebase_indexing_protocol",
		"performance_protocol",
		"test_automation_protocol",
		"code_review_protocol",
	},
	TaskTest: {
		"test_automation_protocol",
		"code_review_protocol",
	},
	TaskSetup: {
		"best_practices_protocol",
		"git_workflow_protocol",
	},
	TaskDocument: {
		"best_practices_protocol",
		"code_review_protocol",
	},
	TaskUnknown: {
		"MASTER_PROTOCOL",
	},
}

// protocolTriggers maps workflow protocol names to their canonical triggers.
// Names without an entry fall back to the raw name.
var protocolTriggers = map[string]string{
	"debug_protocol":                   "DEEPDIVE",
	"error_fix_protocol":               "AUTODEBUG",
	"test_automation_protocol":         "FULLSPEC",
	"codebase_indexing_protocol":       "FULLINDEX",
	"mdap_protocol":                    "MDAP",
	"refactor_protocol":                "REFACTOR",
	"code_review_protocol":             "COMPREHENSIVE",
	"security_audit_protocol":          "SECAUDIT",
	"performance_protocol":             "PERFAUDIT",
	"best_practices_protocol":          "BESTPRACTICES",
	"bigpappa_protocol_reviewANDfixes": "BIGPAPPA",
	"MASTER_PROTOCOL":                  "MASTER",
	"git_workflow_protocol":            "GITFLOW",
	"api_design_protocol":              "APIDESIGN",
	"accessibility_protocol":           "A11YCHECK",
	"aria_accessibility_protocol":      "FULLARIA",
	"moreFRONTend-PROTOCOL":            "ULTRATHINK",
	"FRONTandBACKend-PROTOCOL":         "ANTI-GENERIC",
}

// stepReasons is keyed by task type, then zero-based step position.
var stepReasons = map[TaskType]map[int]string{
	TaskDebug: {
		0: "Use scientific method to find and fix the bug",
		1: "Quick fix for simple errors",
		2: "Add tests to prevent regression",
		3: "Review fix before merging",
	},
	TaskBuild: {
		0: "Understand existing codebase structure",
		1: "Follow best practices for this tech stack",
		2: "Ensure test coverage for new code",
		3: "Review code quality before merge",
	},
	TaskRefactor: {
		0: "Map the codebase before refactoring",
		1: "Plan the refactoring in detail",
		2: "Execute refactoring safely",
		3: "Verify new code passes tests",
		4: "Final review before merge",
	},
	TaskAudit: {
		0: "Comprehensive system audit",
		1: "Security vulnerability scan",
		2: "Code quality review",
		3: "Performance analysis",
	},
	TaskOptimize: {
		0: "Find performance bottlenecks",
		1: "Optimize and measure impact",
		2: "Verify performance improvements",
		3: "Code review of optimizations",
	},
	TaskTest: {
		0: "Plan test coverage strategy",
		1: "Review tests for quality",
	},
	TaskSetup: {
		0: "Follow best practices for setup",
		1: "Configure git workflow",
	},
	TaskDocument: {
		0: "Follow documentation best practices",
		1: "Review documentation quality",
	},
	TaskUnknown: {
		0: "Start with master protocol routing",
	},
}

// stepPrerequisites names the protocol that should run before the keyed one.
var stepPrerequisites = map[string]string{
	"mdap_protocol":                    "codebase_indexing_protocol",
	"performance_protocol":             "codebase_indexing_protocol",
	"test_automation_protocol":         "codebase_indexing_protocol",
	"bigpappa_protocol_reviewANDfixes": "codebase_indexing_protocol",
}

var workflowShortcuts = map[TaskType][]Shortcut{
	TaskDebug: {
		{"Quick fix", []string{"error_fix_protocol"}},
		{"Full investigation", []string{"debug_protocol", "test_automation_protocol", "code_review_protocol"}},
	},
	TaskBuild: {
		{"Familiar codebase", []string{"test_automation_protocol", "code_review_protocol"}},
		{"New project", []string{"codebase_indexing_protocol", "best_practices_protocol", "test_automation_protocol"}},
	},
	TaskRefactor: {
		{"Small refactor", []string{"refactor_protocol", "test_automation_protocol", "code_review_protocol"}},
		{"Large refactor", []string{"codebase_indexing_protocol", "mdap_protocol", "refactor_protocol", "test_automation_protocol"}},
	},
	TaskAudit: {
		{"Security focus", []string{"security_audit_protocol"}},
		{"Performance focus", []string{"performance_protocol"}},
		{"Full audit", []string{"bigpappa_protocol_reviewANDfixes"}},
	},
	TaskOptimize: {
		{"Quick optimization", []string{"performance_protocol"}},
		{"Thorough analysis", []string{"codebase_indexing_protocol", "performance_protocol", "test_automation_protocol"}},
	},
	TaskTest: {
		{"Unit tests only", []string{"test_automation_protocol"}},
		{"Full coverage", []string{"test_automation_protocol", "code_review_protocol"}},
	},
	TaskSetup: {
		{"Minimal setup", []string{"best_practices_protocol"}},
		{"Complete setup", []string{"best_practices_protocol", "git_workflow_protocol"}},
	},
	TaskDocument: {
		{"Quick docs", []string{"best_practices_protocol"}},
		{"Comprehensive", []string{"best_practices_protocol", "code_review_protocol"}},
	},
	TaskUnknown: {
		{"Get started", []string{"MASTER_PROTOCOL"}},
	},
}

// BuildWorkflow produces the ordered step list for a task type. Unrecognized
// types get the unknown workflow. Only the first step is mandatory.
func BuildWorkflow(taskType TaskType, ctx *projectctx.Context) []WorkflowStep {
	names, ok := taskWorkflows[taskType]
	if !ok {
		names = taskWorkflows[TaskUnknown]
	}

	steps := make([]WorkflowStep, len(names))
	for i, name := range names {
		trigger, ok := protocolTriggers[name]
		if !ok {
			trigger = name
		}
		steps[i] = WorkflowStep{
			Order:        i + 1,
			ProtocolName: name,
			Trigger:      trigger,
			Reason:       reasonForStep(taskType, name, i),
			Optional:     i > 0,
			Prerequisite: stepPrerequisites[name],
		}
	}

	if ctx != nil {
		return prioritizeByContext(steps, ctx)
	}
	return steps
}

func reasonForStep(taskType TaskType, protocolName string, index int) string {
	if reason, ok := stepReasons[taskType][index]; ok {
		return reason
	}
	return fmt.Sprintf("Execute %s", protocolName)
}

// prioritizeByContext is an extension point for context-aware reordering.
// It currently returns the steps unchanged.
func prioritizeByContext(steps []WorkflowStep, ctx *projectctx.Context) []WorkflowStep {
	return steps
}

// WorkflowShortcuts returns the named skip-ahead subsets for a task type, or
// nil when none are defined.
func WorkflowShortcuts(taskType TaskType) []Shortcut {
	return workflowShortcuts[taskType]
}

// FormatWorkflow renders a step list for display in a tool payload.
func FormatWorkflow(steps []WorkflowStep, taskType TaskType) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Workflow: %s\n\n", strings.ToUpper(string(taskType)))

	for _, step := range steps {
		marker := "[required]"
		if step.Optional {
			marker = "[optional]"
		}
		fmt.Fprintf(&b, "%s Step %d: %s\n", marker, step.Order, step.ProtocolName)
		fmt.Fprintf(&b, "   Trigger: `%s`\n", step.Trigger)
		fmt.Fprintf(&b, "   Purpose: %s\n", step.Reason)
		if step.Prerequisite != "" {
			fmt.Fprintf(&b, "   Prerequisite: %s\n", step.Prerequisite)
		}
		b.WriteString("\n")
	}

	return b.String()
}
