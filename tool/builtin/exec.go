package builtin

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/polka-codes/agentflow/provider"
	"github.com/polka-codes/agentflow/schema"
	"github.com/polka-codes/agentflow/tool"
)

// sinkFunc adapts a pair of line callbacks to provider.OutputSink.
type sinkFunc struct {
	onStdout func(string)
	onStderr func(string)
}

func (s sinkFunc) WriteStdout(line string) {
	if s.onStdout != nil {
		s.onStdout(line)
	}
}

func (s sinkFunc) WriteStderr(line string) {
	if s.onStderr != nil {
		s.onStderr(line)
	}
}

// ExecuteCommand runs a host command via the shell capability, streaming
// stdout/stderr lines to onOutput as they arrive. limiter, when non-nil,
// throttles how often a command may be launched (the "shell command
// throttling" use of golang.org/x/time/rate named in the domain stack).
func ExecuteCommand(limiter *rate.Limiter, onOutput func(stream, line string)) tool.Descriptor {
	return tool.Descriptor{
		Name:        "executeCommand",
		Description: "Executes a shell command, streaming stdout/stderr, and returns its exit code and captured output.",
		InputSchema: schema.Object(map[string]*schema.Schema{
			"command":          schema.String(),
			"requiresApproval": schema.Nullish(schema.Boolean()),
		}, "command"),
		Capabilities: []provider.Capability{provider.CapabilityShell},
		Handler: func(ctx context.Context, b *provider.Bundle, input any) (tool.Result, error) {
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					return tool.Error("executeCommand: throttled: %v", err), nil
				}
			}
			m := input.(map[string]any)
			command := m["command"].(string)

			sink := sinkFunc{
				onStdout: func(line string) {
					if onOutput != nil {
						onOutput("stdout", line)
					}
				},
				onStderr: func(line string) {
					if onOutput != nil {
						onOutput("stderr", line)
					}
				},
			}

			res, err := b.Shell.ExecuteCommand(ctx, provider.CommandRequest{Command: command}, sink)
			if err != nil {
				return tool.Error("executeCommand: %v", err), nil
			}
			return tool.JSON(map[string]any{
				"exitCode": res.ExitCode,
				"stdout":   res.Stdout,
				"stderr":   res.Stderr,
			}), nil
		},
	}
}
