// Package model defines provider-agnostic conversation messages and the
// model provider interface the agent loop drives. Messages are modeled as
// typed parts (text, image, file, reasoning, tool-call, tool-result) rather
// than flattened strings, so structure survives serialization across
// suspend/resume boundaries.
package model

import "encoding/json"

// Role identifies the speaker for a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Part is implemented by every message content block. Concrete types carry
// their own fields; PartKind() reports the kind name that serialization
// writes as the wire discriminator (json.go selects it by type switch).
type Part interface {
	PartKind() string
}

// PartKind constants name each concrete Part implementation for JSON tagging.
const (
	PartKindText       = "text"
	PartKindImage      = "image"
	PartKindFile       = "file"
	PartKindReasoning  = "reasoning"
	PartKindToolCall   = "tool_call"
	PartKindToolResult = "tool_result"
)

type (
	// TextPart is plain visible text.
	TextPart struct {
		Text string `json:"text"`
	}

	// ImagePart carries an image either inline (base64) or by URL. Exactly one
	// of Base64 or URL is set.
	ImagePart struct {
		MediaType string `json:"mediaType"`
		Base64    string `json:"base64,omitempty"`
		URL       string `json:"url,omitempty"`
	}

	// FilePart carries an arbitrary file either inline (base64) or by URL.
	FilePart struct {
		Filename  string `json:"filename"`
		MediaType string `json:"mediaType"`
		Base64    string `json:"base64,omitempty"`
		URL       string `json:"url,omitempty"`
	}

	// ReasoningPart carries provider-issued reasoning/thinking text.
	ReasoningPart struct {
		Text string `json:"text"`
	}

	// ToolCallPart declares a tool invocation requested by the assistant.
	ToolCallPart struct {
		ID    string          `json:"id"`
		Name  string          `json:"name"`
		Input json.RawMessage `json:"input"`
	}

	// ToolResultPart carries the outcome of a prior ToolCallPart, correlated by ID.
	ToolResultPart struct {
		ToolCallID string          `json:"toolCallId"`
		Output     json.RawMessage `json:"output"`
		IsError    bool            `json:"isError,omitempty"`
	}
)

func (TextPart) PartKind() string       { return PartKindText }
func (ImagePart) PartKind() string      { return PartKindImage }
func (FilePart) PartKind() string       { return PartKindFile }
func (ReasoningPart) PartKind() string  { return PartKindReasoning }
func (ToolCallPart) PartKind() string   { return PartKindToolCall }
func (ToolResultPart) PartKind() string { return PartKindToolResult }

// Message is a single chat message: a role plus an ordered sequence of parts.
type Message struct {
	Role  Role           `json:"role"`
	Parts []Part         `json:"parts"`
	Meta  map[string]any `json:"meta,omitempty"`
}

// Text constructs a single-part assistant/user text message.
func Text(role Role, text string) *Message {
	return &Message{Role: role, Parts: []Part{TextPart{Text: text}}}
}

// TokenUsage aggregates model-reported token consumption for a single
// provider call or for an entire run.
type TokenUsage struct {
	InputTokens     int `json:"inputTokens"`
	OutputTokens    int `json:"outputTokens"`
	ReasoningTokens int `json:"reasoningTokens"`
}

// Add accumulates other into u and returns u for chaining.
func (u *TokenUsage) Add(other TokenUsage) *TokenUsage {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.ReasoningTokens += other.ReasoningTokens
	return u
}

// ToolDefinition describes a tool exposed to the model: name, description,
// and a rendered JSON Schema for its input.
type ToolDefinition struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema any    `json:"inputSchema"`
}
