// Command agentflow-demo wires a minimal agent.Runner against a stub model
// provider and the builtin tool catalog, and runs a single task to
// completion. It exists to show the pieces fitting together, not as a
// reference deployment.
package main

import (
	"context"
	"fmt"

	"github.com/polka-codes/agentflow/agent"
	"github.com/polka-codes/agentflow/model"
	"github.com/polka-codes/agentflow/provider"
	"github.com/polka-codes/agentflow/telemetry"
	"github.com/polka-codes/agentflow/tool/builtin"
	"github.com/polka-codes/agentflow/workflow"
)

// stubStream immediately finishes with a canned assistant reply.
type stubStream struct{ replied, done bool }

func (s *stubStream) Next(ctx context.Context) (model.Delta, bool, error) {
	if s.done {
		return model.Delta{}, false, nil
	}
	if !s.replied {
		s.replied = true
		return model.Delta{Type: model.DeltaText, Text: "Hi!"}, true, nil
	}
	s.done = true
	return model.Delta{Type: model.DeltaFinish}, true, nil
}

func (s *stubStream) Close() error { return nil }

// stubProvider is a tiny model.Provider that never calls a tool and always
// finishes the turn with plain text.
type stubProvider struct{}

func (p *stubProvider) Stream(ctx context.Context, req model.Request) (model.Stream, error) {
	return &stubStream{}, nil
}

func main() {
	ctx := context.Background()

	logger := telemetry.NewClueLogger()
	logger.Info(ctx, "agentflow-demo: starting run")

	// 1) Capability bundle (no real I/O bound; a host would supply
	// filesystem/shell/http/input implementations here).
	bundle := &provider.Bundle{}

	// 2) Tool catalog with the builtin tools registered.
	catalog := builtin.NewCatalog(builtin.Options{})

	// 3) Runner wires the model provider, capability bundle, and telemetry
	// sinks together. A real deployment configures clue's OTEL exporters
	// before constructing these; the demo relies on their safe no-op
	// defaults when unconfigured.
	runner := &agent.Runner{
		Provider: &stubProvider{},
		Bundle:   bundle,
		Metrics:  telemetry.NewClueMetrics(),
		Tracer:   telemetry.NewClueTracer(),
	}

	input := agent.Input{
		SystemPrompt: "You are a helpful assistant.",
		UserMessage:  model.Text(model.RoleUser, "Say hi"),
		Catalog:      catalog,
	}

	state := workflow.Run(ctx, runner.Workflow, input, nil)
	switch state.Status {
	case workflow.StatusCompleted:
		exit := state.Output.(agent.ExitReason)
		fmt.Println("Exit kind:", exit.Kind)
		fmt.Println("Assistant:", exit.Message)
	case workflow.StatusFailed:
		fmt.Println("workflow failed:", state.Err)
	default:
		fmt.Println("unexpected suspended status:", state.Status)
	}
}
