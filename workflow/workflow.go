// Package workflow implements the resumable workflow runtime: a step-replay
// scheduler that drives a workflow procedure to completion, suspending at
// tool-call boundaries and memoizing completed steps.
//
// A procedure runs on its own goroutine and communicates with the driving
// Execution over a pair of unbuffered channels — one tool-call suspension at
// a time, never concurrently — so a single workflow instance never observes
// concurrent state mutation even though the host executor may drive many
// workflow instances in parallel.
package workflow

import (
	"context"
	"fmt"
)

// Procedure is a workflow body: given an input and a Context exposing
// Step/Tool, it eventually returns an output or an error. It may suspend any
// number of times by calling ctx.Tool or ctx.Step (whose body calls ctx.Tool).
type Procedure func(ctx context.Context, input any, wf *Context) (any, error)

type event struct {
	done   bool
	call   ToolCall
	output any
	err    error
}

type resumeMsg struct {
	result any
	err    error
}

// Execution drives one running (or completed) workflow instance.
type Execution struct {
	toHost chan event
	toProc chan resumeMsg
	done   <-chan struct{}
}

// Run starts proc on its own goroutine and drives it to its first
// suspension, completion, or failure. store memoizes Step calls; pass nil
// for a fresh in-memory store, or a store seeded from a prior Snapshot to
// resume/replay.
func Run(ctx context.Context, proc Procedure, input any, store StepStore) State {
	if store == nil {
		store = NewMemStore()
	}
	e := &Execution{
		toHost: make(chan event),
		toProc: make(chan resumeMsg),
		done:   ctx.Done(),
	}
	go e.start(ctx, proc, input, store)
	return e.awaitHost()
}

func (e *Execution) start(ctx context.Context, proc Procedure, input any, store StepStore) {
	defer func() {
		if r := recover(); r != nil {
			e.toHost <- event{done: true, err: fmt.Errorf("workflow: panic: %v", r)}
		}
	}()
	wf := &Context{ctx: ctx, toHost: e.toHost, toProc: e.toProc, store: store, ordinals: make(map[string]int)}
	out, err := proc(ctx, input, wf)
	e.toHost <- event{done: true, output: out, err: err}
}

func (e *Execution) resume(msg resumeMsg) State {
	e.toProc <- msg
	return e.awaitHost()
}

func (e *Execution) awaitHost() State {
	ev := <-e.toHost
	if ev.done {
		if ev.err != nil {
			return State{Status: StatusFailed, Err: ev.err, exec: e}
		}
		return State{Status: StatusCompleted, Output: ev.output, exec: e}
	}
	call := ev.call
	return State{Status: StatusPending, Call: &call, exec: e}
}

// Context is the handle a running Procedure uses to perform memoized steps
// and tool-call suspensions. It is only valid for use by the goroutine
// running the procedure that owns it.
type Context struct {
	ctx      context.Context
	toHost   chan event
	toProc   chan resumeMsg
	store    StepStore
	ordinals map[string]int
}

// Ctx returns the context.Context the workflow was started with.
func (c *Context) Ctx() context.Context { return c.ctx }

// Tool suspends the workflow, yielding a ToolCall{name, input} to the host,
// and blocks until the host supplies a result via Next or injects an error
// via Throw.
func (c *Context) Tool(name string, input any) (any, error) {
	select {
	case c.toHost <- event{call: ToolCall{Name: name, Input: input}}:
	case <-c.ctx.Done():
		return nil, c.ctx.Err()
	}
	select {
	case msg := <-c.toProc:
		if msg.err != nil {
			return nil, msg.err
		}
		return msg.result, nil
	case <-c.ctx.Done():
		return nil, c.ctx.Err()
	}
}

// Step marks body as a memoized unit of work keyed by "{name}#{ordinal}",
// where ordinal is the count of prior calls to Step with this name within
// this workflow invocation. On replay (the key already present in the
// store), body is not invoked and the persisted value is returned directly;
// this is what makes tool calls wrapped in Step skip re-invoking their
// handler when resumed from a recorded store. Only a successful body's
// return value is persisted — an error propagates without being memoized,
// so a failed step re-runs body on the next attempt.
func (c *Context) Step(name string, body func() (any, error)) (any, error) {
	ordinal := c.ordinals[name]
	c.ordinals[name] = ordinal + 1
	key := fmt.Sprintf("%s#%d", name, ordinal)

	if val, ok := c.store.Get(key); ok {
		return val, nil
	}
	val, err := body()
	if err != nil {
		return nil, err
	}
	c.store.Set(key, val)
	return val, nil
}
