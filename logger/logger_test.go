package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// setupTestLogger creates a temp log file and initializes the logger with it.
func setupTestLogger(t *testing.T) (string, func()) {
	t.Helper()
	Reset()

	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test-debug.log")
	if err := Init(logPath); err != nil {
		t.Fatalf("Failed to init logger: %v", err)
	}

	return logPath, func() {
		Reset()
	}
}

func TestGet(t *testing.T) {
	_, cleanup := setupTestLogger(t)
	defer cleanup()

	log := Get()
	if log == nil {
		t.Fatal("Get() returned nil")
	}

	// Should not panic
	log.Info("test message")
	log.Debug("debug message", "key", "value")
	log.Warn("warning", "count", 42)
	log.Error("error occurred", "err", "something failed")
}

func TestGet_StructuredLogging(t *testing.T) {
	logPath, cleanup := setupTestLogger(t)
	defer cleanup()

	log := Get()
	log.Info("run action", "action", "start", "timeout", 120)

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	contentStr := string(content)
	if !strings.Contains(contentStr, "run action") {
		t.Error("Should contain message")
	}
	if !strings.Contains(contentStr, "action=start") {
		t.Error("Should contain structured field action=start")
	}
	if !strings.Contains(contentStr, "timeout=120") {
		t.Error("Should contain structured field timeout=120")
	}
}

func TestWithRun(t *testing.T) {
	logPath, cleanup := setupTestLogger(t)
	defer cleanup()

	log := WithRun("ab12cd34ef")
	log.Info("run started")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	if !strings.Contains(string(content), "runID=ab12cd34ef") {
		t.Error("Should contain runID field")
	}
}

func TestWithComponent(t *testing.T) {
	logPath, cleanup := setupTestLogger(t)
	defer cleanup()

	log := WithComponent("runner")
	log.Info("drain finished")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	if !strings.Contains(string(content), "component=runner") {
		t.Error("Should contain component field")
	}
}

func TestSetDebug(t *testing.T) {
	logPath, cleanup := setupTestLogger(t)
	defer cleanup()

	// Debug suppressed at default level
	Get().Debug("hidden message")

	SetDebug(true)
	Get().Debug("visible message")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	contentStr := string(content)
	if strings.Contains(contentStr, "hidden message") {
		t.Error("Debug message should be suppressed before SetDebug(true)")
	}
	if !strings.Contains(contentStr, "visible message") {
		t.Error("Debug message should be written after SetDebug(true)")
	}

	SetDebug(false)
}

func TestInit_CreatesDirectory(t *testing.T) {
	Reset()
	defer Reset()

	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "nested", "dir", "debug.log")
	if err := Init(logPath); err != nil {
		t.Fatalf("Init: %v", err)
	}

	Get().Info("hello")

	if _, err := os.Stat(logPath); err != nil {
		t.Errorf("log file should exist: %v", err)
	}
}

func TestInit_Idempotent(t *testing.T) {
	logPath, cleanup := setupTestLogger(t)
	defer cleanup()

	// Second Init with a different path is a no-op
	otherPath := filepath.Join(t.TempDir(), "other.log")
	if err := Init(otherPath); err != nil {
		t.Fatalf("second Init: %v", err)
	}

	Get().Info("after second init")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Failed to read original log file: %v", err)
	}
	if !strings.Contains(string(content), "after second init") {
		t.Error("logging should still go to the original file")
	}
	if _, err := os.Stat(otherPath); !os.IsNotExist(err) {
		t.Error("second Init should not have created a new log file")
	}
}
