package builtin_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polka-codes/agentflow/provider"
	"github.com/polka-codes/agentflow/tool"
	"github.com/polka-codes/agentflow/tool/builtin"
)

type fakeShell struct {
	result provider.CommandResult
	err    error
	calls  []provider.CommandRequest
}

func (f *fakeShell) ExecuteCommand(ctx context.Context, req provider.CommandRequest, sink provider.OutputSink) (provider.CommandResult, error) {
	f.calls = append(f.calls, req)
	if sink != nil {
		sink.WriteStdout(f.result.Stdout)
	}
	return f.result, f.err
}

func TestExecuteCommand_ReturnsExitCodeAndOutput(t *testing.T) {
	shell := &fakeShell{result: provider.CommandResult{ExitCode: 0, Stdout: "ok\n"}}
	c := tool.NewCatalog()
	c.Register(builtin.ExecuteCommand(nil, nil))
	bundle := &provider.Bundle{Shell: shell}

	result, err := c.Invoke(context.Background(), "executeCommand", bundle, map[string]any{"command": "echo ok"})
	require.NoError(t, err)
	require.True(t, result.Success)
	out := result.Message.Value.(map[string]any)
	assert.Equal(t, 0, out["exitCode"])
}

func TestExecuteCommand_StreamsOutputLines(t *testing.T) {
	shell := &fakeShell{result: provider.CommandResult{ExitCode: 0, Stdout: "line1"}}
	var streamed []string
	c := tool.NewCatalog()
	c.Register(builtin.ExecuteCommand(nil, func(stream, line string) {
		streamed = append(streamed, stream+":"+line)
	}))
	bundle := &provider.Bundle{Shell: shell}

	_, err := c.Invoke(context.Background(), "executeCommand", bundle, map[string]any{"command": "echo line1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"stdout:line1"}, streamed)
}

func TestGitDiff_ReturnsStdoutOnSuccess(t *testing.T) {
	shell := &fakeShell{result: provider.CommandResult{ExitCode: 0, Stdout: "diff --git a b\n"}}
	c := tool.NewCatalog()
	c.Register(builtin.GitDiff())
	bundle := &provider.Bundle{Shell: shell}

	result, err := c.Invoke(context.Background(), "gitDiff", bundle, map[string]any{})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, "diff --git a b\n", result.Message.Value)
	require.Len(t, shell.calls, 1)
	assert.Equal(t, []string{"diff"}, shell.calls[0].Args)
}

func TestGitDiff_NonZeroExitReturnsErrorResult(t *testing.T) {
	shell := &fakeShell{result: provider.CommandResult{ExitCode: 1, Stderr: "not a git repository"}}
	c := tool.NewCatalog()
	c.Register(builtin.GitDiff())
	bundle := &provider.Bundle{Shell: shell}

	result, err := c.Invoke(context.Background(), "gitDiff", bundle, map[string]any{"path": "a.go"})
	require.NoError(t, err)
	assert.False(t, result.Success)
	require.Len(t, shell.calls, 1)
	assert.Equal(t, []string{"diff", "--", "a.go"}, shell.calls[0].Args)
}
