package builtin

import (
	"fmt"

	"golang.org/x/time/rate"

	"github.com/polka-codes/agentflow/schema"
	"github.com/polka-codes/agentflow/tool"
)

// Options configures the behavior-affecting built-ins (executeCommand's
// throttling and output streaming) when building a full catalog.
type Options struct {
	// CommandLimiter, when non-nil, throttles executeCommand invocations.
	CommandLimiter *rate.Limiter
	// OnCommandOutput, when non-nil, receives streamed stdout/stderr lines
	// from executeCommand as they arrive.
	OnCommandOutput func(stream, line string)
}

// NewCatalog registers every built-in tool descriptor named in spec.md §4.3
// into a fresh catalog, ready for a host to bind alongside its provider.Bundle.
func NewCatalog(opts Options) *tool.Catalog {
	c := tool.NewCatalog()
	for _, d := range []tool.Descriptor{
		ReadFile(),
		WriteToFile(),
		ReplaceInFile(),
		SearchFiles(),
		ListFiles(),
		ReadBinaryFile(),
		RemoveFile(),
		RenameFile(),
		FetchURL(),
		ExecuteCommand(opts.CommandLimiter, opts.OnCommandOutput),
		AskFollowupQuestion(),
		UpdateMemory(),
		ReadMemory(),
		ListMemoryTopics(),
		UpdateTodoItem(),
		GetTodoItem(),
		ListTodoItems(),
		GitDiff(),
	} {
		if err := schema.CheckRendered(d.Name, d.InputSchema); err != nil {
			panic(fmt.Sprintf("builtin: %v", err))
		}
		c.Register(d)
	}
	return c
}
