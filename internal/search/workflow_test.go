package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"protodex/internal/projectctx"
)

func TestBuildWorkflowDebug(t *testing.T) {
	steps := BuildWorkflow(TaskDebug, nil)
	require.Len(t, steps, 4)

	assert.False(t, steps[0].Optional, "first step is mandatory")
	for _, step := range steps[1:] {
		assert.True(t, step.Optional, "step %d should be optional", step.Order)
	}

	assert.Equal(t, "debug_protocol", steps[0].ProtocolName)
	assert.Equal(t, "DEEPDIVE", steps[0].Trigger)
	assert.Equal(t, "Use scientific method to find and fix the bug", steps[0].Reason)

	for i, step := range steps {
		assert.Equal(t, i+1, step.Order)
	}
}

func TestBuildWorkflowUnknownFallback(t *testing.T) {
	steps := BuildWorkflow(TaskType("nonsense"), nil)
	require.Len(t, steps, 1)
	assert.Equal(t, "MASTER_PROTOCOL", steps[0].ProtocolName)
	assert.Equal(t, "MASTER", steps[0].Trigger)
	assert.False(t, steps[0].Optional)
}

func TestBuildWorkflowPrerequisites(t *testing.T) {
	steps := BuildWorkflow(TaskRefactor, nil)
	require.Len(t, steps, 5)

	byName := map[string]WorkflowStep{}
	for _, step := range steps {
		byName[step.ProtocolName] = step
	}

	assert.Equal(t, "codebase_indexing_protocol", byName["mdap_protocol"].Prerequisite)
	assert.Equal(t, "codebase_indexing_protocol", byName["test_automation_protocol"].Prerequisite)
	assert.Empty(t, byName["codebase_indexing_protocol"].Prerequisite)
	assert.Empty(t, byName["refactor_protocol"].Prerequisite)
}

func TestBuildWorkflowCanonicalTriggers(t *testing.T) {
	steps := BuildWorkflow(TaskAudit, nil)
	for _, step := range steps {
		assert.NotEmpty(t, step.Trigger)
		assert.NotEqual(t, step.ProtocolName, step.Trigger,
			"audit workflow names all have canonical triggers")
	}
}

func TestReasonForStepFallback(t *testing.T) {
	reason := reasonForStep(TaskDebug, "extra_protocol", 99)
	assert.Equal(t, "Execute extra_protocol", reason)
}

func TestWorkflowShortcuts(t *testing.T) {
	debug := WorkflowShortcuts(TaskDebug)
	require.Len(t, debug, 2)
	assert.Equal(t, "Quick fix", debug[0].Name)
	assert.Equal(t, []string{"error_fix_protocol"}, debug[0].Protocols)

	assert.Empty(t, WorkflowShortcuts(TaskType("nonsense")))
}

func TestBuildWorkflowContextUnchanged(t *testing.T) {
	without := BuildWorkflow(TaskOptimize, nil)

	ctx := projectctx.Context{Language: "go", ProjectType: "backend", Detected: true}
	with := BuildWorkflow(TaskOptimize, &ctx)

	assert.Equal(t, without, with, "context reordering is currently a no-op")
}

func TestFormatWorkflow(t *testing.T) {
	steps := BuildWorkflow(TaskDebug, nil)
	out := FormatWorkflow(steps, TaskDebug)

	assert.True(t, strings.HasPrefix(out, "## Workflow: DEBUG"))
	assert.Contains(t, out, "[required] Step 1: debug_protocol")
	assert.Contains(t, out, "[optional] Step 2: error_fix_protocol")
	assert.Contains(t, out, "Trigger: `DEEPDIVE`")
	assert.Contains(t, out, "Prerequisite: codebase_indexing_protocol")
}
