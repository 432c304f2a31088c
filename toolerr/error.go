// Package toolerr provides structured error types for tool invocation failures.
// ToolError preserves message and causal context while still satisfying the
// standard error interface, so callers can use errors.Is/errors.As across
// retries without losing diagnostic detail.
package toolerr

import (
	"errors"
	"fmt"
)

// Kind categorizes the taxonomy of engine-level failures. Kind is carried on
// the error for callers and errors.Is comparisons; the agent loop and epic
// orchestrator do not branch on it (they only test for UserCancelledError).
type Kind string

const (
	// KindValidation marks a tool input that failed schema validation.
	KindValidation Kind = "validation"
	// KindTool marks a handler-raised or success:false tool failure.
	KindTool Kind = "tool"
	// KindUsageExceeded marks a usage-budget violation.
	KindUsageExceeded Kind = "usage_exceeded"
	// KindProtocol marks a malformed tool-call or invalid final object from the model.
	KindProtocol Kind = "protocol"
	// KindUserCancelled marks an abort raised by an InputProvider.
	KindUserCancelled Kind = "user_cancelled"
	// KindFatal marks an uncaught exception in a handler or workflow procedure.
	KindFatal Kind = "fatal"
)

// RetryReason categorizes the type of failure that triggered a RetryHint.
// Orchestration layers use this to decide retry strategy (disable a tool,
// adjust caps, escalate to a human).
type RetryReason string

const (
	// RetryReasonInvalidArguments indicates a schema or type violation in the tool payload.
	RetryReasonInvalidArguments RetryReason = "invalid_arguments"
	// RetryReasonMissingFields indicates required fields were absent or empty.
	RetryReasonMissingFields RetryReason = "missing_fields"
	// RetryReasonMalformedResponse indicates the tool returned data that failed to parse.
	RetryReasonMalformedResponse RetryReason = "malformed_response"
	// RetryReasonTimeout indicates the tool execution exceeded its time budget.
	RetryReasonTimeout RetryReason = "timeout"
	// RetryReasonRateLimited indicates the tool or a backing service is rate-limited.
	RetryReasonRateLimited RetryReason = "rate_limited"
	// RetryReasonToolUnavailable indicates the tool is temporarily or permanently unavailable.
	RetryReasonToolUnavailable RetryReason = "tool_unavailable"
)

// RetryHint carries machine-readable guidance for recovering from a tool failure.
type RetryHint struct {
	// Reason categorizes why the tool failed.
	Reason RetryReason
	// MissingFields optionally names the fields that must be supplied to retry.
	MissingFields []string
	// DisableTool, when true, suggests the caller stop offering this tool for the
	// remainder of the run.
	DisableTool bool
}

// ToolError represents a structured failure produced by tool execution, input
// validation, or workflow protocol handling. Errors may be chained via Cause so
// diagnostics survive retries and nested (agent-as-tool) execution.
type ToolError struct {
	// Kind classifies the failure for propagation-policy decisions.
	Kind Kind
	// Message is the human-readable summary surfaced to the model and to logs.
	Message string
	// Cause links to the underlying error, if any.
	Cause *ToolError
	// Hint carries optional structured retry guidance.
	Hint *RetryHint
}

// New constructs a ToolError of the given kind with the provided message.
func New(kind Kind, message string) *ToolError {
	if message == "" {
		message = string(kind)
	}
	return &ToolError{Kind: kind, Message: message}
}

// Newf formats according to a format specifier and returns a ToolError of the given kind.
func Newf(kind Kind, format string, args ...any) *ToolError {
	return New(kind, fmt.Sprintf(format, args...))
}

// WithCause wraps err as the Cause of the returned ToolError.
func WithCause(kind Kind, message string, err error) *ToolError {
	if message == "" && err != nil {
		message = err.Error()
	}
	return &ToolError{Kind: kind, Message: message, Cause: FromError(err)}
}

// WithHint attaches a RetryHint to e and returns e for chaining.
func (e *ToolError) WithHint(hint *RetryHint) *ToolError {
	if e == nil {
		return nil
	}
	e.Hint = hint
	return e
}

// FromError converts an arbitrary error into a ToolError chain. If err already
// wraps a ToolError, that ToolError is returned unchanged.
func FromError(err error) *ToolError {
	if err == nil {
		return nil
	}
	var te *ToolError
	if errors.As(err, &te) {
		return te
	}
	return &ToolError{Kind: KindTool, Message: err.Error(), Cause: FromError(errors.Unwrap(err))}
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Unwrap returns the underlying cause to support errors.Is/errors.As.
func (e *ToolError) Unwrap() error {
	if e == nil || e.Cause == nil {
		return nil
	}
	return e.Cause
}

// Is reports whether target shares this error's Kind, enabling
// errors.Is(err, toolerr.New(toolerr.KindValidation, "")) style checks.
func (e *ToolError) Is(target error) bool {
	var te *ToolError
	if !errors.As(target, &te) || te == nil || e == nil {
		return false
	}
	return e.Kind == te.Kind
}

// UserCancelledError is raised by an InputProvider when the user aborts a
// prompt. The epic orchestrator catches it at the containing phase and exits
// the workflow cleanly rather than treating it as a fatal failure.
type UserCancelledError struct {
	// Reason optionally describes why the user cancelled.
	Reason string
}

func (e *UserCancelledError) Error() string {
	if e.Reason == "" {
		return "user cancelled"
	}
	return "user cancelled: " + e.Reason
}

// IsUserCancelled reports whether err is, or wraps, a UserCancelledError.
func IsUserCancelled(err error) bool {
	var ce *UserCancelledError
	return errors.As(err, &ce)
}
