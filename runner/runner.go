// Package runner launches the Claude Code CLI as a supervised sub-agent:
// it resolves credentials, spawns the child in its own process group, drains
// and logs its output, enforces a wall-clock timeout, and reconciles the
// exit state into a single Outcome.
package runner

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"subagent/claude"
	"subagent/config"
	"subagent/logger"
	"subagent/paths"
	"subagent/process"
)

const (
	// graceTimeout is how long the child gets between SIGTERM and SIGKILL.
	graceTimeout = 5 * time.Second

	// drainJoinTimeout bounds waiting for the output drains after the
	// supervisor decides the run is over.
	drainJoinTimeout = 2 * time.Second

	// maxEventLineSize caps a single stream-json line. Events can embed
	// whole file contents, so the default scanner limit is far too small.
	maxEventLineSize = 10 * 1024 * 1024
)

// Options configures one sub-agent run.
type Options struct {
	Task            string
	WorkingDir      string // default: current directory
	AllowedTools    string // comma-separated; ignored when SkipPermissions
	Timeout         time.Duration
	SkipPermissions bool
	Stream          bool
	MaxBudgetUSD    *float64

	// Overrides, primarily for tests. Zero values mean the real thing.
	Binary       string         // Claude CLI executable
	Config       *config.Config // loaded config.yaml defaults
	BaseEnv      []string       // base environment before credential resolution
	Out          io.Writer      // console output
	ArtifactsDir string         // directory for per-run log files
}

// Artifacts records where the run's log files were written.
type Artifacts struct {
	RunID     string `json:"run_id"`
	StreamLog string `json:"stream_log,omitempty"`
	StdoutLog string `json:"stdout_log"`
	StderrLog string `json:"stderr_log"`
}

// Outcome is the reconciled result of a run. Error is empty on success.
type Outcome struct {
	Success   bool
	Result    string
	SessionID string
	Error     string
	Artifacts Artifacts
}

// newRunID returns a short hex run identifier.
func newRunID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])[:10]
}

// Run executes one sub-agent run to completion. It never panics; internal
// panics surface as a failed Outcome so the caller can always emit the
// final result line.
func Run(opts Options) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome.Success = false
			outcome.Error = fmt.Sprintf("panic: %v", r)
		}
	}()

	cfg := opts.Config
	if cfg == nil {
		cfg = &config.Config{}
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	binary := opts.Binary
	if binary == "" {
		binary = cfg.ClaudeBinary()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = cfg.DefaultTimeout()
	}
	baseEnv := opts.BaseEnv
	if baseEnv == nil {
		baseEnv = os.Environ()
	}

	runID := newRunID()
	outcome.Artifacts.RunID = runID
	log := logger.WithRun(runID)

	env, err := config.BuildEnv(baseEnv, cfg)
	if err != nil {
		outcome.Error = err.Error()
		return outcome
	}

	if err := claude.CheckInstalled(binary); err != nil {
		outcome.Error = err.Error()
		return outcome
	}

	cwd := opts.WorkingDir
	if cwd == "" {
		cwd, err = os.Getwd()
		if err != nil {
			outcome.Error = err.Error()
			return outcome
		}
	}

	artifactsDir := opts.ArtifactsDir
	if artifactsDir == "" {
		artifactsDir, err = paths.RunsDir()
		if err != nil {
			outcome.Error = err.Error()
			return outcome
		}
	}
	if err := os.MkdirAll(artifactsDir, 0755); err != nil {
		outcome.Error = err.Error()
		return outcome
	}

	stdoutLog := filepath.Join(artifactsDir, "run_"+runID+".stdout.txt")
	stderrLog := filepath.Join(artifactsDir, "run_"+runID+".stderr.txt")
	streamLog := ""
	if opts.Stream {
		streamLog = filepath.Join(artifactsDir, "run_"+runID+".stream.jsonl")
	}
	outcome.Artifacts.StdoutLog = stdoutLog
	outcome.Artifacts.StderrLog = stderrLog
	outcome.Artifacts.StreamLog = streamLog

	args := claude.BuildArgs(claude.RunArgs{
		Task:            opts.Task,
		Stream:          opts.Stream,
		SkipPermissions: opts.SkipPermissions,
		AllowedTools:    opts.AllowedTools,
		MaxBudgetUSD:    opts.MaxBudgetUSD,
	})

	log.Info("run starting", "cwd", cwd, "binary", binary, "stream", opts.Stream, "timeout", timeout)
	log.Debug("child command", "args", args)

	cons := newConsole(out, runID)
	cons.header(cwd, opts.Task)

	success, result, sessionID, errMsg := supervise(superviseParams{
		binary:    binary,
		args:      args,
		cwd:       cwd,
		env:       env,
		timeout:   timeout,
		streaming: opts.Stream,
		stdoutLog: stdoutLog,
		stderrLog: stderrLog,
		streamLog: streamLog,
		cons:      cons,
		log:       log,
	})

	outcome.Success = success
	outcome.Result = result
	outcome.SessionID = sessionID
	outcome.Error = errMsg

	log.Info("run finished", "success", outcome.Success, "error", outcome.Error)
	return outcome
}

type superviseParams struct {
	binary    string
	args      []string
	cwd       string
	env       []string
	timeout   time.Duration
	streaming bool
	stdoutLog string
	stderrLog string
	streamLog string
	cons      *console
	log       *slog.Logger
}

// supervise spawns the child and sees it through to a reconciled result.
func supervise(p superviseParams) (success bool, result, sessionID, errMsg string) {
	stdoutF, err := os.Create(p.stdoutLog)
	if err != nil {
		return false, "", "", err.Error()
	}
	defer stdoutF.Close()

	stderrF, err := os.Create(p.stderrLog)
	if err != nil {
		return false, "", "", err.Error()
	}
	defer stderrF.Close()

	var streamF *os.File
	if p.streamLog != "" {
		streamF, err = os.Create(p.streamLog)
		if err != nil {
			return false, "", "", err.Error()
		}
		defer streamF.Close()
	}

	cmd := exec.Command(p.binary, p.args...)
	cmd.Dir = p.cwd
	cmd.Env = p.env
	process.SetGroup(cmd)
	// Stdin stays nil: the child reads from /dev/null and can never block
	// waiting for input.

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return false, "", "", err.Error()
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return false, "", "", err.Error()
	}

	if err := cmd.Start(); err != nil {
		return false, "", "", err.Error()
	}
	p.log.Debug("child started", "pid", cmd.Process.Pid)

	d := &drain{
		cons:      p.cons,
		streaming: p.streaming,
		stdoutF:   stdoutF,
		streamF:   streamF,
	}
	stdoutDone := make(chan struct{})
	go func() {
		defer close(stdoutDone)
		d.run(stdoutPipe)
	}()

	// Stderr is read to EOF and written out in one piece after the child
	// dies; it is only consulted on failure.
	stderrDone := make(chan struct{})
	go func() {
		defer close(stderrDone)
		data, _ := io.ReadAll(stderrPipe)
		if len(data) > 0 {
			stderrF.Write(data)
		}
	}()

	// Both pipes must hit EOF before Wait may close them.
	waitDone := make(chan struct{})
	var waitErr error
	go func() {
		<-stdoutDone
		<-stderrDone
		waitErr = cmd.Wait()
		close(waitDone)
	}()

	p.cons.startSpinner()

	timedOut := false
	select {
	case <-waitDone:
	case <-time.After(p.timeout):
		timedOut = true
		p.log.Warn("timeout, terminating process group", "timeout", p.timeout, "pid", cmd.Process.Pid)
		process.TerminateGroup(cmd.Process, waitDone, graceTimeout)
	}

	// Join the drains; bounded in case the child is truly stuck.
	select {
	case <-stdoutDone:
	case <-time.After(drainJoinTimeout):
	}
	select {
	case <-stderrDone:
	case <-time.After(drainJoinTimeout):
	}

	p.cons.stopSpinner()

	if timedOut {
		return false, "", "", fmt.Sprintf("Timeout after %ds", int(p.timeout.Seconds()))
	}

	exitCode := 0
	if waitErr != nil {
		exitErr, ok := waitErr.(*exec.ExitError)
		if !ok {
			return false, "", "", waitErr.Error()
		}
		exitCode = exitErr.ExitCode()
	}
	p.log.Debug("child exited", "code", exitCode)

	success, result, sessionID, errMsg = reconcile(reconcileInput{
		exitCode:   exitCode,
		streaming:  p.streaming,
		liveResult: d.result,
		streamLog:  p.streamLog,
		stdoutLog:  p.stdoutLog,
		stderrLog:  p.stderrLog,
	})

	if success {
		p.cons.success(result)
	} else {
		p.cons.failure(errMsg)
	}
	if p.streamLog != "" {
		p.cons.logsHint(p.streamLog)
	}

	return success, result, sessionID, errMsg
}

// drain consumes the child's stdout line by line. It is the only goroutine
// touching lastTool and result; the supervisor reads them only after the
// drain has finished.
type drain struct {
	cons      *console
	streaming bool
	stdoutF   *os.File
	streamF   *os.File

	lastTool string
	result   *claude.Event
}

func (d *drain) run(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxEventLineSize)

	for scanner.Scan() {
		line := scanner.Text()

		// Full-fidelity logs first, parsing second
		fmt.Fprintln(d.stdoutF, line)
		if d.streamF != nil {
			fmt.Fprintln(d.streamF, line)
		}

		if !d.streaming {
			continue
		}
		ev, ok := claude.ParseEventLine(line)
		if !ok {
			continue
		}

		switch ev.Type {
		case claude.EventAssistant:
			for _, name := range ev.ToolUses() {
				// Collapse consecutive uses of the same tool
				if name != d.lastTool {
					d.lastTool = name
					d.cons.toolUse(name)
				}
			}
		case claude.EventResult:
			ev := ev
			d.result = &ev
			d.cons.complete()
		}
	}
}
