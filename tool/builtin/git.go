package builtin

import (
	"context"
	"strings"

	"github.com/polka-codes/agentflow/provider"
	"github.com/polka-codes/agentflow/schema"
	"github.com/polka-codes/agentflow/tool"
)

// GitDiff returns the unified diff for a path (or the whole workspace when
// path is omitted) by shelling out to `git diff`. All git access goes
// through provider.ShellProvider — this package never touches a .git
// directory directly.
func GitDiff() tool.Descriptor {
	return tool.Descriptor{
		Name:        "gitDiff",
		Description: "Returns the unified git diff for a path, or the whole workspace when path is omitted.",
		InputSchema: schema.Object(map[string]*schema.Schema{
			"path":   schema.Nullish(schema.String()),
			"staged": schema.Nullish(schema.Boolean()),
		}),
		Capabilities: []provider.Capability{provider.CapabilityShell},
		Handler: func(ctx context.Context, b *provider.Bundle, input any) (tool.Result, error) {
			m, _ := input.(map[string]any)
			path, _ := m["path"].(string)
			staged, _ := m["staged"].(bool)

			args := []string{"diff"}
			if staged {
				args = append(args, "--staged")
			}
			if path != "" {
				args = append(args, "--", path)
			}

			res, err := b.Shell.ExecuteCommand(ctx, provider.CommandRequest{
				Command: "git",
				Args:    args,
			}, nil)
			if err != nil {
				return tool.Error("gitDiff: %v", err), nil
			}
			if res.ExitCode != 0 {
				return tool.Error("gitDiff: git exited %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr)), nil
			}
			return tool.Text(res.Stdout), nil
		},
	}
}
