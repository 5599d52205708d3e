package paths

import (
	"os"
	"path/filepath"
	"testing"
)

// setupTestHome creates a temp directory, sets HOME to it, and resets the path cache.
func setupTestHome(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_STATE_HOME", "")
	Reset()
	t.Cleanup(Reset)
	return tmpDir
}

func TestFreshInstallNoXDG(t *testing.T) {
	home := setupTestHome(t)
	// No ~/.subagent/, no XDG vars → default to ~/.subagent/
	expected := filepath.Join(home, ".subagent")

	configDir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir: %v", err)
	}
	if configDir != expected {
		t.Errorf("ConfigDir = %q, want %q", configDir, expected)
	}

	stateDir, err := StateDir()
	if err != nil {
		t.Fatalf("StateDir: %v", err)
	}
	if stateDir != expected {
		t.Errorf("StateDir = %q, want %q", stateDir, expected)
	}

	if !IsLegacyLayout() {
		t.Error("IsLegacyLayout should be true for fresh install without XDG")
	}
}

func TestLegacyDirExists(t *testing.T) {
	home := setupTestHome(t)
	legacyDir := filepath.Join(home, ".subagent")
	if err := os.MkdirAll(legacyDir, 0755); err != nil {
		t.Fatal(err)
	}

	configDir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir: %v", err)
	}
	if configDir != legacyDir {
		t.Errorf("ConfigDir = %q, want %q", configDir, legacyDir)
	}

	if !IsLegacyLayout() {
		t.Error("IsLegacyLayout should be true when ~/.subagent/ exists")
	}
}

func TestLegacyTakesPrecedenceOverXDG(t *testing.T) {
	home := setupTestHome(t)
	legacyDir := filepath.Join(home, ".subagent")
	if err := os.MkdirAll(legacyDir, 0755); err != nil {
		t.Fatal(err)
	}

	// Set XDG vars — legacy should still win
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(home, ".local", "state"))
	Reset()

	configDir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir: %v", err)
	}
	if configDir != legacyDir {
		t.Errorf("ConfigDir = %q, want %q (legacy should take precedence)", configDir, legacyDir)
	}
}

func TestXDGAllVarsSet(t *testing.T) {
	home := setupTestHome(t)
	// No ~/.subagent/ exists

	xdgConfig := filepath.Join(home, "my-config")
	xdgState := filepath.Join(home, "my-state")

	t.Setenv("XDG_CONFIG_HOME", xdgConfig)
	t.Setenv("XDG_STATE_HOME", xdgState)
	Reset()

	configDir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir: %v", err)
	}
	if want := filepath.Join(xdgConfig, "subagent"); configDir != want {
		t.Errorf("ConfigDir = %q, want %q", configDir, want)
	}

	stateDir, err := StateDir()
	if err != nil {
		t.Fatalf("StateDir: %v", err)
	}
	if want := filepath.Join(xdgState, "subagent"); stateDir != want {
		t.Errorf("StateDir = %q, want %q", stateDir, want)
	}

	if IsLegacyLayout() {
		t.Error("IsLegacyLayout should be false when using XDG")
	}
}

func TestXDGPartialVars(t *testing.T) {
	home := setupTestHome(t)
	// No ~/.subagent/ exists

	xdgConfig := filepath.Join(home, "my-config")
	t.Setenv("XDG_CONFIG_HOME", xdgConfig)
	// XDG_STATE_HOME not set — should use the XDG default
	Reset()

	configDir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir: %v", err)
	}
	if want := filepath.Join(xdgConfig, "subagent"); configDir != want {
		t.Errorf("ConfigDir = %q, want %q", configDir, want)
	}

	stateDir, err := StateDir()
	if err != nil {
		t.Fatalf("StateDir: %v", err)
	}
	if want := filepath.Join(home, ".local", "state", "subagent"); stateDir != want {
		t.Errorf("StateDir = %q, want %q", stateDir, want)
	}
}

func TestDerivedPaths(t *testing.T) {
	home := setupTestHome(t)
	legacyDir := filepath.Join(home, ".subagent")
	if err := os.MkdirAll(legacyDir, 0755); err != nil {
		t.Fatal(err)
	}
	Reset()

	cfgPath, err := ConfigFilePath()
	if err != nil {
		t.Fatalf("ConfigFilePath: %v", err)
	}
	if want := filepath.Join(legacyDir, "config.yaml"); cfgPath != want {
		t.Errorf("ConfigFilePath = %q, want %q", cfgPath, want)
	}

	logsDir, err := LogsDir()
	if err != nil {
		t.Fatalf("LogsDir: %v", err)
	}
	if want := filepath.Join(legacyDir, "logs"); logsDir != want {
		t.Errorf("LogsDir = %q, want %q", logsDir, want)
	}

	runsDir, err := RunsDir()
	if err != nil {
		t.Fatalf("RunsDir: %v", err)
	}
	if want := filepath.Join(legacyDir, "runs"); runsDir != want {
		t.Errorf("RunsDir = %q, want %q", runsDir, want)
	}
}

func TestLegacyFileNotDir(t *testing.T) {
	home := setupTestHome(t)
	// Create ~/.subagent as a file, not a directory — must not trigger legacy layout
	legacyPath := filepath.Join(home, ".subagent")
	if err := os.WriteFile(legacyPath, []byte("not a dir"), 0644); err != nil {
		t.Fatal(err)
	}

	xdgConfig := filepath.Join(home, ".config")
	t.Setenv("XDG_CONFIG_HOME", xdgConfig)
	Reset()

	configDir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir: %v", err)
	}
	if want := filepath.Join(xdgConfig, "subagent"); configDir != want {
		t.Errorf("ConfigDir = %q, want %q (file named .subagent should not trigger legacy)", configDir, want)
	}
}
