package model

import "context"

// Request is the input to a single model provider call: a system prompt, the
// conversation so far, the tools available this turn, and an optional
// structured output schema for the final turn.
type Request struct {
	SystemPrompt string
	Messages     []*Message
	Tools        []ToolDefinition
	// OutputSchema, when non-nil, is a rendered JSON Schema (see package
	// schema's RenderJSON) the final assistant message must conform to.
	OutputSchema any
}

// DeltaType discriminates the kind of streaming delta a Provider emits.
type DeltaType string

const (
	DeltaText      DeltaType = "text"
	DeltaReasoning DeltaType = "reasoning"
	DeltaToolCall  DeltaType = "tool_call"
	DeltaFinish    DeltaType = "finish"
)

// Delta is a single streamed increment from a model provider. Exactly the
// fields relevant to Type are populated.
type Delta struct {
	Type DeltaType

	// Text/Reasoning carries the incremental text for DeltaText/DeltaReasoning.
	Text string

	// ToolCall carries the full call once the provider has finished emitting it.
	ToolCall *ToolCallPart

	// Usage and FinalObject are populated on DeltaFinish.
	Usage       TokenUsage
	FinalObject []byte
}

// Stream is returned by Provider.Stream. Callers must call Next until it
// returns (Delta{}, false) or an error, and must call Close when done.
type Stream interface {
	// Next returns the next delta. ok is false once the stream is exhausted
	// (after a DeltaFinish delta has been returned).
	Next(ctx context.Context) (delta Delta, ok bool, err error)
	// Close releases stream resources. Safe to call multiple times.
	Close() error
}

// Provider is the abstract language-model interface the agent loop consumes.
// Concrete providers (Anthropic, OpenAI, Bedrock, ...) are host-supplied and
// out of scope for this module; it only depends on this interface.
type Provider interface {
	Stream(ctx context.Context, req Request) (Stream, error)
}

// ProviderError wraps a failure reported by a Provider implementation so
// callers can distinguish transport/auth failures from protocol violations.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error { return e.Err }
