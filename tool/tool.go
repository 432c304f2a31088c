// Package tool implements the tool catalog (spec.md §4.3): a name-indexed
// registry of tool descriptors whose handlers delegate to provider
// interfaces supplied by the host.
package tool

import (
	"context"
	"fmt"

	"github.com/polka-codes/agentflow/provider"
	"github.com/polka-codes/agentflow/schema"
)

// MessageType discriminates a Result's message shape.
type MessageType string

const (
	MessageText      MessageType = "text"
	MessageJSON      MessageType = "json"
	MessageErrorText MessageType = "error-text"
)

// Message is the payload carried by a Result, per spec.md §3's Tool Result
// union.
type Message struct {
	Type  MessageType
	Value any
}

// Result is the outcome of invoking a tool handler: exactly one of a
// success message ("text" or "json") or a failure message ("error-text").
type Result struct {
	Success bool
	Message Message
}

// Text constructs a successful text Result.
func Text(value string) Result {
	return Result{Success: true, Message: Message{Type: MessageText, Value: value}}
}

// JSON constructs a successful structured Result.
func JSON(value any) Result {
	return Result{Success: true, Message: Message{Type: MessageJSON, Value: value}}
}

// Error constructs a failed Result carrying a human-readable message. This
// is the shape surfaced back to the model as a tool-result part.
func Error(format string, args ...any) Result {
	return Result{Success: false, Message: Message{Type: MessageErrorText, Value: fmt.Sprintf(format, args...)}}
}

// Request pairs a tool name with its already-validated input. The workflow
// runtime does not use this type: a suspended workflow yields a
// workflow.ToolCall, which carries the same two fields.
type Request struct {
	Tool  string
	Input any
}

// Handler executes a tool against the injected capability bundle with
// already-validated input. The returned error is reserved for exceptional
// conditions that must bypass the normal tool-result protocol entirely —
// chiefly toolerr.UserCancelledError from an interactive prompt abort.
// Ordinary tool failures are reported via Result{Success:false}, not error.
type Handler func(ctx context.Context, bundle *provider.Bundle, input any) (Result, error)

// Descriptor is an immutable tool registration.
type Descriptor struct {
	Name        string
	Description string
	InputSchema *schema.Schema
	// Capabilities lists every provider capability this tool's handler
	// requires. The catalog refuses to invoke the tool if any is unsupported
	// by the bound provider bundle.
	Capabilities []provider.Capability
	Handler      Handler
}

// Catalog is a name-indexed registry of tool descriptors.
type Catalog struct {
	byName map[string]Descriptor
	order  []string
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{byName: make(map[string]Descriptor)}
}

// Register adds d to the catalog, replacing any prior descriptor with the
// same name.
func (c *Catalog) Register(d Descriptor) {
	if _, exists := c.byName[d.Name]; !exists {
		c.order = append(c.order, d.Name)
	}
	c.byName[d.Name] = d
}

// Lookup returns the descriptor registered under name, or false if absent.
func (c *Catalog) Lookup(name string) (Descriptor, bool) {
	d, ok := c.byName[name]
	return d, ok
}

// Descriptors returns every registered descriptor in registration order,
// the shape the agent loop advertises to the model provider.
func (c *Catalog) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.byName[name])
	}
	return out
}

// Validate validates raw input against name's input schema, returning the
// validated value and every schema violation found (nil means valid).
func (c *Catalog) Validate(name string, raw any) (any, []*schema.ValidationError) {
	d, ok := c.byName[name]
	if !ok {
		return nil, []*schema.ValidationError{{Message: fmt.Sprintf("unknown tool %q", name)}}
	}
	if d.InputSchema == nil {
		return raw, nil
	}
	return raw, d.InputSchema.Validate(raw)
}

// Invoke dispatches to name's handler with already-validated input, first
// checking that every capability the tool requires is supported by bundle.
// The returned error is only ever a propagated exceptional condition (see
// Handler); ordinary tool failures come back as Result{Success:false}, nil.
func (c *Catalog) Invoke(ctx context.Context, name string, bundle *provider.Bundle, input any) (Result, error) {
	d, ok := c.byName[name]
	if !ok {
		return Error("unknown tool %q", name), nil
	}
	for _, cap := range d.Capabilities {
		if !bundle.Supports(cap) {
			return Error("not supported"), nil
		}
	}
	return d.Handler(ctx, bundle, input)
}
