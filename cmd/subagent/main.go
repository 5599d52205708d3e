// Command subagent runs the Claude Code CLI as a supervised sub-agent
// against a custom API backend (z.ai, OpenRouter, or any Anthropic-compatible
// endpoint).
//
// Credentials come from the environment (or a .env file in the working
// directory):
//
//   - ANTHROPIC_AUTH_TOKEN or ZAI_API_KEY (required)
//   - ANTHROPIC_BASE_URL or ZAI_BASE_URL (optional)
//
// The last line of output is always a JSON object with success, result, and
// error fields, so an orchestrator can shell out to subagent and parse one
// line. Exit code is 0 on success, 1 otherwise.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"subagent/config"
	"subagent/logger"
	"subagent/runner"
)

type options struct {
	Task               string
	Cwd                string
	AllowedTools       string
	TimeoutSeconds     int
	RequirePermissions bool
	Stream             bool
	MaxBudget          float64
	Debug              bool
}

func main() {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:          "subagent",
		Short:        "Run the Claude Code CLI as a supervised sub-agent",
		Long:         "Spawns the Claude Code CLI with a custom API backend, supervises it with a timeout,\nand reports the result as a single JSON line.\n\nSet ZAI_API_KEY or ANTHROPIC_AUTH_TOKEN before running.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			run(cmd, opts)
			return nil
		},
	}

	flags := rootCmd.Flags()
	flags.StringVar(&opts.Task, "task", "", "Task description")
	flags.StringVar(&opts.Cwd, "cwd", "", "Working directory (default: current)")
	flags.StringVar(&opts.AllowedTools, "allowed-tools", "", "Comma-separated allowed tools")
	flags.IntVar(&opts.TimeoutSeconds, "timeout", 0, "Timeout in seconds (default 120)")
	flags.BoolVar(&opts.RequirePermissions, "require-permissions", false, "Require permission prompts instead of skipping them")
	flags.BoolVar(&opts.Stream, "stream", false, "Show tool names as they execute")
	flags.Float64Var(&opts.MaxBudget, "max-budget", 0, "Max cost ceiling in USD")
	flags.BoolVar(&opts.Debug, "debug", false, "Write debug logs")
	rootCmd.MarkFlagRequired("task")

	rootCmd.AddCommand(doctorCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// run executes the sub-agent and exits the process with the outcome's
// status. It never returns on a completed run.
func run(cmd *cobra.Command, opts *options) {
	config.LoadDotenv()

	logger.SetDebug(opts.Debug)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: ignoring config file: %v\n", err)
		cfg = &config.Config{}
	}

	var budget *float64
	if cmd.Flags().Changed("max-budget") {
		budget = &opts.MaxBudget
	}

	var timeout time.Duration
	if opts.TimeoutSeconds > 0 {
		timeout = time.Duration(opts.TimeoutSeconds) * time.Second
	}

	outcome := runner.Run(runner.Options{
		Task:            opts.Task,
		WorkingDir:      opts.Cwd,
		AllowedTools:    opts.AllowedTools,
		Timeout:         timeout,
		SkipPermissions: !opts.RequirePermissions,
		Stream:          opts.Stream,
		MaxBudgetUSD:    budget,
		Config:          cfg,
	})

	printFinal(outcome)
	logger.Close()
	if !outcome.Success {
		os.Exit(1)
	}
	os.Exit(0)
}

// finalResult is the machine-readable line an orchestrator parses.
type finalResult struct {
	Success bool   `json:"success"`
	Result  string `json:"result"`
	Error   any    `json:"error"` // string, or null when there was none
}

func printFinal(o runner.Outcome) {
	var errField any
	if o.Error != "" {
		errField = o.Error
	}
	line, err := json.Marshal(finalResult{Success: o.Success, Result: o.Result, Error: errField})
	if err != nil {
		line = []byte(`{"success":false,"result":"","error":"failed to encode result"}`)
	}
	fmt.Println(string(line))
}
