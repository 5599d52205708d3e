package runner

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"subagent/claude"
)

// reconcileInput is everything known about a finished (non-timed-out) run.
type reconcileInput struct {
	exitCode   int
	streaming  bool
	liveResult *claude.Event // last result event seen by the drain, if any
	streamLog  string
	stdoutLog  string
	stderrLog  string
}

// reconcile decides the run's outcome from the child's exit code and
// whatever output was captured:
//
//   - exit 0, streaming, result event seen live: success with its result
//   - exit 0, streaming, no live event: re-scan the stream log (the drain
//     may have lost a race with process exit); if still nothing, succeed
//     with a placeholder pointing at the log
//   - exit 0, non-streaming: parse stdout as one JSON object; non-JSON
//     stdout is still a success, passed through raw
//   - exit non-zero: failure with stderr text, or the exit code if stderr
//     was empty
func reconcile(in reconcileInput) (success bool, result, sessionID, errMsg string) {
	if in.exitCode != 0 {
		errText := readFileTrimmed(in.stderrLog)
		if errText == "" {
			errText = fmt.Sprintf("Exit code: %d", in.exitCode)
		}
		return false, "", "", errText
	}

	if in.streaming {
		ev := in.liveResult
		if ev == nil {
			ev = lastResultEvent(in.streamLog)
		}
		if ev != nil {
			return true, ev.Result, ev.SessionID, ""
		}
		return true, fmt.Sprintf("(no result event; see %s)", in.streamLog), "", ""
	}

	data, err := os.ReadFile(in.stdoutLog)
	if err != nil {
		return true, "", "", ""
	}
	if ev, ok := claude.ParseResultOutput(data); ok {
		return true, ev.Result, ev.SessionID, ""
	}
	return true, string(data), "", ""
}

// lastResultEvent scans a stream log and returns the last result event,
// or nil if the file is missing or contains none.
func lastResultEvent(path string) *claude.Event {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var last *claude.Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxEventLineSize)
	for scanner.Scan() {
		ev, ok := claude.ParseEventLine(scanner.Text())
		if ok && ev.Type == claude.EventResult {
			last = &ev
		}
	}
	return last
}

func readFileTrimmed(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
