package epic

import (
	"fmt"

	"github.com/polka-codes/agentflow/agent"
	"github.com/polka-codes/agentflow/model"
	"github.com/polka-codes/agentflow/provider"
	"github.com/polka-codes/agentflow/schema"
	"github.com/polka-codes/agentflow/toolerr"
	"github.com/polka-codes/agentflow/workflow"
)

// runAgent drives one agent sub-workflow (planner, coder, reviewer, or
// plan-updater — spec.md §4.4's "code sub-workflow, review sub-workflow,
// fix sub-workflow, plan-update sub-workflow") to completion, forwarding
// every tool-call suspension it raises out through wf so the real host
// sees one flat suspension stream regardless of nesting depth.
func (o *Orchestrator) runAgent(wf *workflow.Context, systemPrompt string, userMsg *model.Message, outputSchema *schema.Schema) (*agent.ExitReason, error) {
	out, err := runSub(wf, o.Agent.Workflow, agent.Input{
		SystemPrompt: systemPrompt,
		UserMessage:  userMsg,
		Catalog:      o.Catalog,
		OutputSchema: outputSchema,
	})
	if err != nil {
		return nil, err
	}
	exit, ok := out.(agent.ExitReason)
	if !ok {
		return nil, fmt.Errorf("epic: agent sub-workflow returned %T, expected agent.ExitReason", out)
	}
	return &exit, nil
}

// runSub drives proc to completion inside the current procedure's goroutine,
// forwarding each of its tool-call suspensions to the host via wf.Tool. This
// is how the orchestrator composes agent sub-workflows without the host ever
// observing more than one suspension stream (spec.md §4.1's suspension model
// generalizes to nested procedures this way).
func runSub(wf *workflow.Context, proc workflow.Procedure, input any) (any, error) {
	state := workflow.Run(wf.Ctx(), proc, input, nil)
	for state.Status == workflow.StatusPending {
		result, err := wf.Tool(state.Call.Name, state.Call.Input)
		if err != nil {
			state = state.Throw(err)
			continue
		}
		state = state.Next(result)
	}
	if state.Status == workflow.StatusFailed {
		return nil, state.Err
	}
	return state.Output, nil
}

// prompt asks the user a question through the bound InputProvider directly
// (not via the askFollowupQuestion tool — the orchestrator's own phases are
// not model turns, so there is no catalog/model round-trip here).
func (o *Orchestrator) prompt(wf *workflow.Context, question, defaultAnswer string) (string, error) {
	if !o.Bundle.Supports(provider.CapabilityInput) {
		return "", toolerr.New(toolerr.KindFatal, "epic: interactive input required but not available")
	}
	return o.Bundle.Input.Input(wf.Ctx(), question, defaultAnswer)
}

// git runs a git subcommand through the shell capability, memoizing the
// result under stepName so a resumed run does not repeat a side-effecting
// command (spec.md §4.1's step protocol, applied to the orchestrator's own
// git plumbing rather than a model-invoked tool).
func (o *Orchestrator) git(wf *workflow.Context, stepName string, args ...string) (provider.CommandResult, error) {
	val, err := wf.Step(stepName, func() (any, error) {
		return o.Bundle.Shell.ExecuteCommand(wf.Ctx(), provider.CommandRequest{Command: "git", Args: args}, nil)
	})
	if err != nil {
		return provider.CommandResult{}, err
	}
	return val.(provider.CommandResult), nil
}
