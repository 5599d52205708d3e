package runner

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"

	"subagent/claude"
)

// spinnerFrames are the braille spinner frames shown while the child runs.
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 200 * time.Millisecond

// console owns all user-facing progress output for one run. The spinner
// goroutine and the stdout drain goroutine both print through it, so writes
// are serialized with a mutex.
type console struct {
	mu    sync.Mutex
	out   io.Writer
	runID string

	spinnerStop chan struct{}
	spinnerDone chan struct{}
}

func newConsole(out io.Writer, runID string) *console {
	return &console{out: out, runID: runID}
}

// isTerminal reports whether the console writes to a real terminal.
// The spinner is suppressed otherwise so piped output stays clean.
func (c *console) isTerminal() bool {
	f, ok := c.out.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func (c *console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

func (c *console) header(cwd, task string) {
	c.printf("[subagent] %s starting cwd=%s\n", c.runID, cwd)
	c.printf("[subagent] task: %s\n", claude.TruncateString(task, 120))
}

func (c *console) toolUse(name string) {
	c.printf("\n[subagent] %s 🔧 %s\n", c.runID, name)
}

func (c *console) complete() {
	c.printf("\n[subagent] %s ✅ complete\n", c.runID)
}

func (c *console) success(result string) {
	c.printf("[subagent] %s ✅ success\n", c.runID)
	c.printf("[subagent] result: %s\n", claude.TruncateString(result, 200))
}

func (c *console) failure(errMsg string) {
	c.printf("[subagent] %s ❌ error=%s\n", c.runID, errMsg)
}

func (c *console) logsHint(streamLog string) {
	c.printf("[subagent] logs: %s\n", streamLog)
}

// startSpinner launches the spinner goroutine. No-op when not on a terminal.
func (c *console) startSpinner() {
	if !c.isTerminal() {
		return
	}
	c.spinnerStop = make(chan struct{})
	c.spinnerDone = make(chan struct{})

	go func() {
		defer close(c.spinnerDone)
		ticker := time.NewTicker(spinnerInterval)
		defer ticker.Stop()

		i := 0
		for {
			select {
			case <-c.spinnerStop:
				// Clear the spinner line
				c.printf("\r%s\r", strings.Repeat(" ", 60))
				return
			case <-ticker.C:
				frame := spinnerFrames[i%len(spinnerFrames)]
				i++
				c.printf("\r[subagent] %s running %s", c.runID, frame)
			}
		}
	}()
}

// stopSpinner stops the spinner and waits for its line to be cleared.
func (c *console) stopSpinner() {
	if c.spinnerStop == nil {
		return
	}
	close(c.spinnerStop)
	select {
	case <-c.spinnerDone:
	case <-time.After(time.Second):
	}
	c.spinnerStop = nil
}
