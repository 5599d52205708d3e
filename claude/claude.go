// Package claude builds command lines for the Claude Code CLI and parses
// its stream-json output.
package claude

import (
	"errors"
	"os/exec"
	"strconv"
)

// SystemPrompt is appended to the child's system prompt to steer it into
// sub-agent behavior.
const SystemPrompt = `You are a coding sub-agent. Complete the given task efficiently.
Guidelines:
- Read existing files before modifying them
- Use Edit tool for surgical changes to existing files
- Use Write tool only for new files
- Follow existing project conventions
- When done, provide a clear summary of what you accomplished`

// ErrNotInstalled indicates the Claude CLI binary is not on PATH.
var ErrNotInstalled = errors.New("Claude CLI not found. Install: npm install -g @anthropic-ai/claude-code")

// RunArgs describes one invocation of the Claude CLI.
type RunArgs struct {
	Task            string
	Stream          bool     // stream-json output with per-event progress
	SkipPermissions bool     // pass --dangerously-skip-permissions
	AllowedTools    string   // comma-separated; only used when SkipPermissions is false
	MaxBudgetUSD    *float64 // cost ceiling, nil for none
}

// BuildArgs returns the argument list for the Claude CLI (excluding the
// binary name). Exported separately from launch so it can be tested without
// spawning a process.
//
// SkipPermissions and AllowedTools are mutually exclusive: when permissions
// are skipped the tool allowlist is irrelevant and is not passed.
func BuildArgs(a RunArgs) []string {
	outputFormat := "json"
	if a.Stream {
		outputFormat = "stream-json"
	}

	args := []string{"-p", a.Task, "--output-format", outputFormat}

	if a.Stream {
		// stream-json requires --verbose
		args = append(args, "--verbose")
	}

	if a.SkipPermissions {
		args = append(args, "--dangerously-skip-permissions")
	} else if a.AllowedTools != "" {
		args = append(args, "--allowedTools", a.AllowedTools)
	}

	args = append(args, "--append-system-prompt", SystemPrompt)
	args = append(args, "--no-session-persistence")

	if a.MaxBudgetUSD != nil {
		args = append(args, "--max-budget-usd", strconv.FormatFloat(*a.MaxBudgetUSD, 'g', -1, 64))
	}

	return args
}

// CheckInstalled verifies the Claude CLI binary is available on PATH.
// Returns ErrNotInstalled if it isn't.
func CheckInstalled(binary string) error {
	if _, err := exec.LookPath(binary); err != nil {
		return ErrNotInstalled
	}
	return nil
}
