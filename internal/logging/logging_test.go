package logging

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestDebug_DisabledInProduction(t *testing.T) {
	var buf bytes.Buffer

	logger := log.NewWithOptions(&buf, log.Options{
		ReportTimestamp: false,
		ReportCaller:    false,
	})
	logger.SetLevel(log.DebugLevel)

	appLogger := &AppLogger{
		logger: logger,
		debug:  false, // Production mode
	}

	appLogger.Debug("debug message that should not appear")

	output := buf.String()
	if strings.Contains(output, "debug message that should not appear") {
		t.Errorf("Expected debug message to be suppressed in production mode, got: %s", output)
	}
}

func TestTestLoggerCapturesOutput(t *testing.T) {
	logger, buf := NewTestLogger()

	logger.Info("scan complete", "protocols", 12)
	logger.Warn("skipping file", "file", "bad.md")
	logger.Debug("debug detail")

	output := buf.String()
	for _, want := range []string{"scan complete", "protocols", "skipping file", "debug detail"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected log output to contain %q, got: %s", want, output)
		}
	}
}

func TestLogPerformance(t *testing.T) {
	logger, buf := NewTestLogger()

	start := time.Now().Add(-50 * time.Millisecond)
	logger.LogPerformance("index build", start)

	output := buf.String()
	if !strings.Contains(output, "Performance") {
		t.Errorf("Expected performance entry, got: %s", output)
	}
	if !strings.Contains(output, "index build") {
		t.Errorf("Expected operation name in entry, got: %s", output)
	}
}

func TestLogPerformance_DisabledInProduction(t *testing.T) {
	var buf bytes.Buffer

	logger := log.NewWithOptions(&buf, log.Options{
		ReportTimestamp: false,
	})
	logger.SetLevel(log.DebugLevel)

	appLogger := &AppLogger{logger: logger, debug: false}
	appLogger.LogPerformance("noop", time.Now())

	if buf.Len() != 0 {
		t.Errorf("Expected no output in production mode, got: %s", buf.String())
	}
}

func TestGetDefaultSingleton(t *testing.T) {
	first := GetDefault()
	second := GetDefault()

	if first != second {
		t.Error("GetDefault should return the same instance")
	}
}
