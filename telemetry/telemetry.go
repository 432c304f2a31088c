// Package telemetry defines the logging, metrics, and tracing interfaces the
// engine depends on. The engine never owns a concrete logger: hosts inject an
// implementation (NoopLogger for tests, ClueLogger for production) the same
// way they inject model providers and tool capability bundles.
package telemetry

import (
	"context"
	"time"
)

type (
	// Logger records structured log messages scoped to a run or workflow step.
	Logger interface {
		Debug(ctx context.Context, msg string, keyvals ...any)
		Info(ctx context.Context, msg string, keyvals ...any)
		Warn(ctx context.Context, msg string, keyvals ...any)
		Error(ctx context.Context, msg string, keyvals ...any)
	}

	// Metrics records counters and timers for engine-level instrumentation
	// (tool call counts, request latencies, usage budget consumption).
	Metrics interface {
		IncCounter(name string, value float64, tags ...string)
		RecordTimer(name string, duration time.Duration, tags ...string)
	}

	// Tracer creates spans for engine operations (planner turns, tool
	// executions, workflow steps).
	Tracer interface {
		Start(ctx context.Context, name string) (context.Context, Span)
	}

	// Span represents a single traced operation.
	Span interface {
		// End finalizes the span. If err is non-nil the span is marked as failed.
		End(err error)
		// SetAttribute attaches a key-value attribute to the span.
		SetAttribute(key string, value any)
	}

	// ToolTelemetry captures per-invocation tool execution metrics.
	ToolTelemetry struct {
		// Duration is the wall-clock time spent executing the tool handler.
		Duration time.Duration
		// Provider identifies the model provider used, when the tool is itself
		// model-backed (agent-as-tool).
		Provider string
		// InputTokens and OutputTokens report model token usage when applicable.
		InputTokens  int
		OutputTokens int
	}
)
