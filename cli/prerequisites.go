// Package cli provides prerequisite checks for the external tools subagent
// shells out to.
package cli

import (
	"fmt"
	"os/exec"
	"strings"
)

// Prerequisite represents an external CLI tool subagent depends on.
type Prerequisite struct {
	Name        string // command name (e.g. "claude")
	Required    bool   // whether subagent can run at all without it
	Description string
	InstallHint string // how to get it
}

// DefaultPrerequisites returns the tools a sub-agent run depends on.
// binary is the Claude CLI executable name, which may be overridden in
// config.yaml.
func DefaultPrerequisites(binary string) []Prerequisite {
	return []Prerequisite{
		{
			Name:        binary,
			Required:    true,
			Description: "Claude Code CLI",
			InstallHint: "npm install -g @anthropic-ai/claude-code",
		},
		{
			Name:        "node",
			Required:    false,
			Description: "Node.js runtime (required by the Claude CLI)",
			InstallHint: "https://nodejs.org",
		},
		{
			Name:        "npm",
			Required:    false,
			Description: "npm (for installing/updating the Claude CLI)",
			InstallHint: "https://nodejs.org",
		},
	}
}

// CheckResult contains the result of checking one prerequisite.
type CheckResult struct {
	Prerequisite Prerequisite
	Found        bool
	Path         string // path to the executable if found
	Version      string // version string if available
}

// Check verifies that a CLI tool is available in PATH.
func Check(prereq Prerequisite) CheckResult {
	result := CheckResult{Prerequisite: prereq}

	path, err := exec.LookPath(prereq.Name)
	if err != nil {
		return result
	}

	result.Found = true
	result.Path = path
	result.Version = getVersion(prereq.Name)
	return result
}

// CheckAll verifies all prerequisites and returns results in order.
func CheckAll(prereqs []Prerequisite) []CheckResult {
	results := make([]CheckResult, len(prereqs))
	for i, prereq := range prereqs {
		results[i] = Check(prereq)
	}
	return results
}

// ValidateRequired checks that all required prerequisites are present.
// Returns an error describing what's missing, or nil.
func ValidateRequired(prereqs []Prerequisite) error {
	var missing []string

	for _, prereq := range prereqs {
		if !prereq.Required {
			continue
		}
		if result := Check(prereq); !result.Found {
			missing = append(missing, fmt.Sprintf("  - %s (%s)\n    Install: %s",
				prereq.Name, prereq.Description, prereq.InstallHint))
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required CLI tools:\n%s", strings.Join(missing, "\n"))
	}
	return nil
}

// getVersion attempts to get the version of a CLI tool. Returns "" if the
// tool doesn't answer --version.
func getVersion(name string) string {
	output, err := exec.Command(name, "--version").Output()
	if err != nil {
		return ""
	}
	line, _, _ := strings.Cut(string(output), "\n")
	version := strings.TrimSpace(line)
	if len(version) > 100 {
		version = version[:100] + "..."
	}
	return version
}

// FormatCheckResults formats check results for display.
func FormatCheckResults(results []CheckResult) string {
	var sb strings.Builder

	sb.WriteString("Prerequisites:\n")
	for _, r := range results {
		status := "✓"
		if !r.Found {
			if r.Prerequisite.Required {
				status = "✗"
			} else {
				status = "-"
			}
		}
		sb.WriteString(fmt.Sprintf("  %s %s", status, r.Prerequisite.Name))
		if r.Version != "" {
			sb.WriteString(" (" + r.Version + ")")
		}
		if !r.Found {
			sb.WriteString(" — not found; install: " + r.Prerequisite.InstallHint)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
