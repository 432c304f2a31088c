// Package agent implements the model-driven agent loop (spec.md §4.2): a
// workflow procedure that interleaves model generations, tool calls, and
// termination on a schema-conformant final object or a usage/interrupt exit.
package agent

import (
	"encoding/json"

	"github.com/polka-codes/agentflow/model"
)

// EventKind discriminates the task-event union of spec.md §3.
type EventKind string

const (
	EventStartTask     EventKind = "start_task"
	EventStartRequest  EventKind = "start_request"
	EventEndRequest    EventKind = "end_request"
	EventText          EventKind = "text"
	EventReasoning     EventKind = "reasoning"
	EventToolUse       EventKind = "tool_use"
	EventToolReply     EventKind = "tool_reply"
	EventToolError     EventKind = "tool_error"
	EventUsageExceeded EventKind = "usage_exceeded"
	EventEndTask       EventKind = "end_task"
)

// Event is an observable emission from a running task. Only the fields
// relevant to Kind are populated; observers must switch on Kind.
type Event struct {
	Kind EventKind

	// StartTask
	SystemPrompt string

	// Text / Reasoning
	NewText string

	// ToolUse / ToolReply / ToolError
	Tool   string
	Params json.RawMessage
	Output json.RawMessage
	Error  string

	// EndTask
	ExitReason ExitReason
}

// Observer receives events as they are emitted. Implementations must not
// block the loop; slow consumers should buffer internally.
type Observer func(Event)

// ExitKind discriminates ExitReason's union.
type ExitKind string

const (
	ExitUsageExceeded ExitKind = "usage_exceeded"
	ExitExit          ExitKind = "exit"
	ExitInterrupted   ExitKind = "interrupted"
	ExitError         ExitKind = "error"
)

// ExitReason is the terminal state of exactly one agent task, per spec.md
// §3's `{UsageExceeded | Exit{message,messages[]} | Interrupted{message} |
// Error{message,stack}}` union.
type ExitReason struct {
	Kind ExitKind

	// Exit
	Message  string
	Messages []*model.Message

	// Error
	Stack string
}
