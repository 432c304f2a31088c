package epic_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polka-codes/agentflow/agent"
	"github.com/polka-codes/agentflow/epic"
	"github.com/polka-codes/agentflow/model"
	"github.com/polka-codes/agentflow/provider"
	"github.com/polka-codes/agentflow/workflow"
)

// scriptedStream and scriptedProvider mirror the agent package's test
// doubles: a fixed sequence of deltas per call to Stream, enough to drive
// the planner/coder/reviewer agents deterministically.
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

type scriptedProvider struct {
	turns [][]model.Delta
	calls int
}

func (p *scriptedProvider) Stream(ctx context.Context, req model.Request) (model.Stream, error) {
	turn := p.turns[p.calls]
	p.calls++
	return &scriptedStream{deltas: turn}, nil
}

func finishWithObject(obj string) model.Delta {
	return model.Delta{Type: model.DeltaFinish, FinalObject: []byte(obj)}
}

// fakeShellScript answers ExecuteCommand by matching the joined command
// line against a fixed script; a missing match fails the test immediately.
type fakeShellScript struct {
	t        *testing.T
	byArgs   map[string]provider.CommandResult
	commands []string
}

func (f *fakeShellScript) ExecuteCommand(ctx context.Context, req provider.CommandRequest, sink provider.OutputSink) (provider.CommandResult, error) {
	key := strings.Join(req.Args, " ")
	f.commands = append(f.commands, key)
	res, ok := f.byArgs[key]
	if !ok {
		// Errorf, not Fatalf: this runs on the workflow goroutine, where
		// Fatalf would stop the procedure without ever completing the run.
		f.t.Errorf("unscripted git command: %q", key)
		return provider.CommandResult{ExitCode: 127, Stderr: "unscripted git command"}, nil
	}
	return res, nil
}

type noopMemoryStore struct{}

func (noopMemoryStore) Load(ctx context.Context) (epic.Context, bool, error) {
	return epic.Context{}, false, nil
}
func (noopMemoryStore) Save(ctx context.Context, c epic.Context) error { return nil }

func TestEpic_ValidateRejectsEmptyTask(t *testing.T) {
	o := &epic.Orchestrator{Store: noopMemoryStore{}}
	state := workflow.Run(context.Background(), o.Workflow, epic.Input{Task: "   "}, nil)
	require.Equal(t, workflow.StatusCompleted, state.Status)
	result := state.Output.(epic.Result)
	assert.Equal(t, epic.PhaseValidate, result.Phase)
	assert.Contains(t, result.Error, "empty")
}

func TestEpic_PreflightFailsOnUncommittedChangesWithoutInvokingPlanner(t *testing.T) {
	shell := &fakeShellScript{t: t, byArgs: map[string]provider.CommandResult{
		"rev-parse --git-dir":    {ExitCode: 0, Stdout: ".git"},
		"status --porcelain":     {ExitCode: 0, Stdout: "M file.ts\n"},
	}}
	planner := &scriptedProvider{turns: [][]model.Delta{{finishWithObject(`{"type":"error","reason":"unreachable"}`)}}}

	o := &epic.Orchestrator{
		Agent:  &agent.Runner{Provider: planner, Bundle: &provider.Bundle{}},
		Bundle: &provider.Bundle{Shell: shell},
		Store:  noopMemoryStore{},
	}

	state := workflow.Run(context.Background(), o.Workflow, epic.Input{Task: "build a thing"}, nil)
	require.Equal(t, workflow.StatusCompleted, state.Status)
	result := state.Output.(epic.Result)

	assert.Equal(t, epic.PhasePreflight, result.Phase)
	assert.Contains(t, result.Error, "not clean")
	assert.Equal(t, 0, planner.calls, "planner must not be invoked when preflight fails")
}

func TestEpic_PreflightFailsWhenGitNotInitialized(t *testing.T) {
	shell := &fakeShellScript{t: t, byArgs: map[string]provider.CommandResult{
		"rev-parse --git-dir": {ExitCode: 128, Stderr: "not a git repository"},
	}}
	o := &epic.Orchestrator{
		Bundle: &provider.Bundle{Shell: shell},
		Store:  noopMemoryStore{},
	}

	state := workflow.Run(context.Background(), o.Workflow, epic.Input{Task: "build a thing"}, nil)
	require.Equal(t, workflow.StatusCompleted, state.Status)
	result := state.Output.(epic.Result)
	assert.Equal(t, epic.PhasePreflight, result.Phase)
	assert.Contains(t, result.Error, "Git not initialized")
}
