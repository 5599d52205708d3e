package claude

import (
	"encoding/json"
	"strings"
)

// Event types emitted on the stream-json channel. Other types exist (system,
// user) but the runner only reacts to these two.
const (
	EventAssistant = "assistant"
	EventResult    = "result"
)

// Event is one parsed line of stream-json output. For non-streaming runs the
// entire stdout is a single JSON object with the same result/session_id shape,
// so Event doubles as that payload.
type Event struct {
	Type      string  `json:"type"`
	Message   Message `json:"message"`
	Result    string  `json:"result"`
	SessionID string  `json:"session_id"`
}

// Message is the assistant message carried by an "assistant" event.
type Message struct {
	Content []ContentBlock `json:"content"`
}

// ContentBlock is one block of assistant message content. Only tool_use
// blocks matter for progress display; text blocks parse with Name empty.
type ContentBlock struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// ParseEventLine parses a single line of stream-json output.
// Returns ok=false for blank or malformed lines; the stream must keep
// flowing regardless of what the child prints.
func ParseEventLine(line string) (Event, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Event{}, false
	}

	var ev Event
	if err := json.Unmarshal([]byte(line), &ev); err != nil {
		return Event{}, false
	}
	return ev, true
}

// ParseResultOutput parses the whole-stdout JSON object produced by a
// non-streaming (--output-format json) run.
func ParseResultOutput(data []byte) (Event, bool) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, false
	}
	return ev, true
}

// ToolUses returns the tool names from an assistant event's tool_use blocks,
// in order. Unnamed tool_use blocks are reported as "tool".
func (e Event) ToolUses() []string {
	if e.Type != EventAssistant {
		return nil
	}
	var names []string
	for _, block := range e.Message.Content {
		if block.Type != "tool_use" {
			continue
		}
		name := block.Name
		if name == "" {
			name = "tool"
		}
		names = append(names, name)
	}
	return names
}

// TruncateString shortens s to max characters, appending "..." if truncated.
func TruncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
