package agent_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polka-codes/agentflow/agent"
	"github.com/polka-codes/agentflow/model"
	"github.com/polka-codes/agentflow/provider"
	"github.com/polka-codes/agentflow/schema"
	"github.com/polka-codes/agentflow/stats"
	"github.com/polka-codes/agentflow/tool"
	"github.com/polka-codes/agentflow/workflow"
)

// scriptedStream replays a fixed sequence of deltas, ignoring the request it
// was given — enough to drive the agent loop deterministically in tests.
type scriptedStream struct {
	deltas []model.Delta
	idx    int
}

func (s *scriptedStream) Next(ctx context.Context) (model.Delta, bool, error) {
	if s.idx >= len(s.deltas) {
		return model.Delta{}, false, nil
	}
	d := s.deltas[s.idx]
	s.idx++
	return d, true, nil
}

func (s *scriptedStream) Close() error { return nil }

// scriptedProvider returns one scripted stream per call to Stream, indexed
// by call order, so a test can script a multi-turn conversation.
type scriptedProvider struct {
	turns [][]model.Delta
	calls int
}

func (p *scriptedProvider) Stream(ctx context.Context, req model.Request) (model.Stream, error) {
	turn := p.turns[p.calls]
	p.calls++
	return &scriptedStream{deltas: turn}, nil
}

func echoTool() tool.Descriptor {
	return tool.Descriptor{
		Name:        "echo",
		Description: "echo",
		InputSchema: schema.Object(map[string]*schema.Schema{"value": schema.String()}, "value"),
		Handler: func(ctx context.Context, b *provider.Bundle, input any) (tool.Result, error) {
			m := input.(map[string]any)
			return tool.Text(m["value"].(string)), nil
		},
	}
}

func TestWorkflow_ToolCallThenFinalText(t *testing.T) {
	catalog := tool.NewCatalog()
	catalog.Register(echoTool())

	toolCallInput, _ := json.Marshal(map[string]any{"value": "hi"})
	prov := &scriptedProvider{turns: [][]model.Delta{
		{
			{Type: model.DeltaToolCall, ToolCall: &model.ToolCallPart{ID: "c1", Name: "echo", Input: toolCallInput}},
			{Type: model.DeltaFinish, Usage: model.TokenUsage{InputTokens: 10, OutputTokens: 5}},
		},
		{
			{Type: model.DeltaText, Text: "all done"},
			{Type: model.DeltaFinish},
		},
	}}

	var events []agent.Event
	runner := &agent.Runner{
		Provider: prov,
		Bundle:   &provider.Bundle{},
		Observer: func(ev agent.Event) { events = append(events, ev) },
		Usage:    agent.NewUsageMeter(0, 0),
		Global:   stats.NewGlobal(),
	}

	input := agent.Input{SystemPrompt: "be helpful", UserMessage: model.Text(model.RoleUser, "echo hi please"), Catalog: catalog}
	state := workflow.Run(context.Background(), runner.Workflow, input, nil)
	require.Equal(t, workflow.StatusCompleted, state.Status)

	exit := state.Output.(agent.ExitReason)
	assert.Equal(t, agent.ExitExit, exit.Kind)
	assert.Equal(t, "all done", exit.Message)

	var sawToolUse, sawToolReply bool
	for _, ev := range events {
		if ev.Kind == agent.EventToolUse {
			sawToolUse = true
		}
		if ev.Kind == agent.EventToolReply {
			sawToolReply = true
			assert.Equal(t, "echo", ev.Tool)
		}
	}
	assert.True(t, sawToolUse)
	assert.True(t, sawToolReply)
	assert.Equal(t, 2, prov.calls, "tool call turn and final text turn are separate model requests")
}

func TestWorkflow_ToolCallTakesPrecedenceOverFinalText(t *testing.T) {
	catalog := tool.NewCatalog()
	catalog.Register(echoTool())

	toolCallInput, _ := json.Marshal(map[string]any{"value": "hi"})
	prov := &scriptedProvider{turns: [][]model.Delta{
		{
			{Type: model.DeltaText, Text: "ignored final text"},
			{Type: model.DeltaToolCall, ToolCall: &model.ToolCallPart{ID: "c1", Name: "echo", Input: toolCallInput}},
			{Type: model.DeltaFinish, FinalObject: json.RawMessage(`{"should":"not be parsed"}`)},
		},
		{
			{Type: model.DeltaText, Text: "second turn text"},
			{Type: model.DeltaFinish},
		},
	}}

	runner := &agent.Runner{
		Provider: prov,
		Bundle:   &provider.Bundle{},
		Usage:    agent.NewUsageMeter(0, 0),
		Global:   stats.NewGlobal(),
	}
	input := agent.Input{SystemPrompt: "sp", Catalog: catalog}
	state := workflow.Run(context.Background(), runner.Workflow, input, nil)
	require.Equal(t, workflow.StatusCompleted, state.Status)

	exit := state.Output.(agent.ExitReason)
	assert.Equal(t, agent.ExitExit, exit.Kind)
	assert.Equal(t, "second turn text", exit.Message)
	assert.Equal(t, 2, prov.calls)
}

func TestWorkflow_ValidationFailureEmitsToolErrorAndContinues(t *testing.T) {
	catalog := tool.NewCatalog()
	catalog.Register(echoTool())

	badInput, _ := json.Marshal(map[string]any{})
	prov := &scriptedProvider{turns: [][]model.Delta{
		{
			{Type: model.DeltaToolCall, ToolCall: &model.ToolCallPart{ID: "c1", Name: "echo", Input: badInput}},
			{Type: model.DeltaFinish},
		},
		{
			{Type: model.DeltaText, Text: "recovered"},
			{Type: model.DeltaFinish},
		},
	}}

	var events []agent.Event
	runner := &agent.Runner{
		Provider: prov,
		Bundle:   &provider.Bundle{},
		Observer: func(ev agent.Event) { events = append(events, ev) },
		Usage:    agent.NewUsageMeter(0, 0),
		Global:   stats.NewGlobal(),
	}
	input := agent.Input{SystemPrompt: "sp", Catalog: catalog}
	state := workflow.Run(context.Background(), runner.Workflow, input, nil)
	require.Equal(t, workflow.StatusCompleted, state.Status)

	var sawError bool
	for _, ev := range events {
		if ev.Kind == agent.EventToolError {
			sawError = true
		}
	}
	assert.True(t, sawError)
}

func TestWorkflow_UsageExceededStopsTheLoop(t *testing.T) {
	prov := &scriptedProvider{turns: [][]model.Delta{
		{{Type: model.DeltaText, Text: "x"}, {Type: model.DeltaFinish}},
	}}
	runner := &agent.Runner{
		Provider: prov,
		Bundle:   &provider.Bundle{},
		Usage:    agent.NewUsageMeter(0, 0),
		Global:   stats.NewGlobal(),
	}
	input := agent.Input{SystemPrompt: "sp", MaxSteps: 1}
	// maxSteps=1 with OutputSchema nil completes on first non-tool turn, so
	// drive a schema'd run instead to force UsageExceeded via the step cap.
	input.OutputSchema = schema.Object(map[string]*schema.Schema{"done": schema.Boolean()}, "done")
	state := workflow.Run(context.Background(), runner.Workflow, input, nil)
	require.Equal(t, workflow.StatusCompleted, state.Status)
	exit := state.Output.(agent.ExitReason)
	assert.Equal(t, agent.ExitUsageExceeded, exit.Kind)
}
