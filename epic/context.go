// Package epic implements the epic orchestrator (spec.md §4.4): a top-level
// workflow composing planning, git branching, an iterative code/review/
// plan-update loop, and persistence of progress across crashes.
package epic

import "context"

// Context is the persistable record the orchestrator saves after planning
// and after the iteration loop (spec.md §3 Epic Context, §6 Epic context
// persistence). On start the orchestrator loads it but keeps only the new
// task: a loaded plan or branch name is not reused, so every run plans again.
type Context struct {
	Task       string            `yaml:"task,omitempty"`
	Plan       string            `yaml:"plan,omitempty"`
	BranchName string            `yaml:"branchName,omitempty"`
	Todos      []TodoRef         `yaml:"todos,omitempty"`
	Memory     map[string]string `yaml:"memory,omitempty"`
}

// TodoRef is a lightweight checklist reference persisted alongside the plan;
// the full to-do CRUD surface lives in provider.TodoProvider, this is just
// the orchestrator's own bookkeeping of plan-derived items.
type TodoRef struct {
	ID     string `yaml:"id"`
	Title  string `yaml:"title"`
	Status string `yaml:"status"`
}

// Store persists and retrieves an epic Context. The engine owns the schema
// (this struct) but never touches the filesystem directly — read/write is
// always delegated to a Store implementation (spec.md §6).
type Store interface {
	Load(ctx context.Context) (Context, bool, error)
	Save(ctx context.Context, c Context) error
}
