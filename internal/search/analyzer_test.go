package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzeTaskIntent(t *testing.T) {
	tests := []struct {
		description string
		want        TaskType
	}{
		{"fix this crash", TaskDebug},
		{"set up the project", TaskSetup},
		{"", TaskUnknown},
		{"implement a new feature for uploads", TaskBuild},
		{"refactor the payment module", TaskRefactor},
		{"review and audit the auth flow", TaskAudit},
		{"the page is slow, find the bottleneck", TaskOptimize},
		{"add unit test coverage", TaskTest},
		{"write a readme and usage guide", TaskDocument},
		{"hello there", TaskUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			assert.Equal(t, tt.want, AnalyzeTaskIntent(tt.description))
		})
	}
}

func TestAnalyzeTaskIntentTieBreaking(t *testing.T) {
	// "fix" (debug) and "create" (build) both match once; debug is
	// evaluated first and keeps the tie.
	assert.Equal(t, TaskDebug, AnalyzeTaskIntent("create a fix"))
}

func TestValidTaskType(t *testing.T) {
	for _, taskType := range TaskTypes {
		assert.True(t, ValidTaskType(string(taskType)))
	}
	assert.False(t, ValidTaskType("deploy"))
	assert.False(t, ValidTaskType(""))
}

func TestTaskDifficulty(t *testing.T) {
	assert.Equal(t, "intermediate", TaskDifficulty(TaskDebug))
	assert.Equal(t, "advanced", TaskDifficulty(TaskRefactor))
	assert.Equal(t, "advanced", TaskDifficulty(TaskAudit))
	assert.Equal(t, "advanced", TaskDifficulty(TaskOptimize))
	assert.Equal(t, "beginner", TaskDifficulty(TaskSetup))
	assert.Equal(t, "beginner", TaskDifficulty(TaskDocument))
	assert.Equal(t, "intermediate", TaskDifficulty(TaskUnknown))
}

func TestTaskTimeEstimate(t *testing.T) {
	assert.Equal(t, "30-60m", TaskTimeEstimate(TaskDebug))
	assert.Equal(t, "2-4 hours", TaskTimeEstimate(TaskBuild))
	assert.Equal(t, "1-3 hours", TaskTimeEstimate(TaskRefactor))
	assert.Equal(t, "30-45m", TaskTimeEstimate(TaskSetup))
	assert.Equal(t, "1-2 hours", TaskTimeEstimate(TaskUnknown))
}

func TestTaskTags(t *testing.T) {
	assert.Equal(t, []string{"troubleshooting", "error-analysis", "root-cause", "reproduction"}, TaskTags(TaskDebug))
	assert.Equal(t, []string{"performance", "efficiency", "scalability", "bottleneck-analysis"}, TaskTags(TaskOptimize))
	assert.Equal(t, []string{"general", "miscellaneous"}, TaskTags(TaskUnknown))
}
