package epic

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/polka-codes/agentflow/agent"
	"github.com/polka-codes/agentflow/model"
	"github.com/polka-codes/agentflow/provider"
	"github.com/polka-codes/agentflow/schema"
	"github.com/polka-codes/agentflow/telemetry"
	"github.com/polka-codes/agentflow/tool"
	"github.com/polka-codes/agentflow/toolerr"
	"github.com/polka-codes/agentflow/workflow"
)

// Phase names a state in the orchestrator's state machine (spec.md §4.4).
type Phase string

const (
	PhaseValidate  Phase = "validate"
	PhasePreflight Phase = "preflight"
	PhasePlan      Phase = "plan"
	PhaseBranch    Phase = "branch"
	PhaseIterLoop  Phase = "iter_loop"
	PhaseDone      Phase = "done"
)

// maxReviewRetries bounds the review-and-fix loop within one iteration.
const maxReviewRetries = 5

// branchNamePattern matches spec.md §4.4's branch-name validation.
var branchNamePattern = regexp.MustCompile(`^[a-zA-Z0-9/_-]+$`)

// reviewableExtensions is the fixed set of file extensions that trigger a
// review pass after a commit (spec.md §4.4 step 5.d).
var reviewableExtensions = map[string]bool{
	".ts": true, ".tsx": true, ".js": true, ".jsx": true,
	".py": true, ".java": true, ".go": true, ".rs": true,
	".c": true, ".cpp": true, ".h": true,
	".css": true, ".scss": true, ".html": true, ".vue": true, ".svelte": true,
}

// Input is the argument to Orchestrator.Workflow.
type Input struct {
	// Task is the user's epic description. Empty is rejected at Validate.
	Task string
	// Files are optional attachments (image/file parts) forwarded to the planner.
	Files []model.Part
}

// Result is the outcome of a completed (or cleanly terminated) epic run.
// The orchestrator never returns a bare Go error for business-level
// termination (validation failure, preflight failure, planner error,
// cancellation) — those are reported here, matching spec.md §3's Exit
// Reason union style of structured, not exceptional, termination.
type Result struct {
	Phase     Phase
	Error     string
	Cancelled bool
	Summary   *Summary
}

// Summary is emitted on the Done phase (spec.md §4.4 step 6).
type Summary struct {
	Iterations     int
	CommitMessages []string
	Branch         string
	Elapsed        time.Duration
	NextStepHints  string
}

// Prompts carries the system prompts for each agent sub-workflow the
// orchestrator drives. The orchestrator itself owns no prompt text (spec.md
// §1 Non-goals: no config ownership) — the host supplies these.
type Prompts struct {
	Planner    string
	Code       string
	Review     string
	PlanUpdate string
}

// Orchestrator drives the epic state machine described in spec.md §4.4. All
// git plumbing goes through Bundle.Shell, never the host filesystem
// directly (spec.md §5's "never touches the filesystem/host directly" rule
// applies to the engine as a whole, not just tool handlers).
type Orchestrator struct {
	Agent   *agent.Runner
	Catalog *tool.Catalog
	Bundle  *provider.Bundle
	Store   Store
	Logger  telemetry.Logger
	Prompts Prompts
}

func (o *Orchestrator) log() telemetry.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return telemetry.NoopLogger{}
}

// Workflow is a workflow.Procedure implementing the epic state machine. It
// is intended to be driven via workflow.Run(ctx, orchestrator.Workflow,
// input, store).
func (o *Orchestrator) Workflow(ctx context.Context, rawInput any, wf *workflow.Context) (any, error) {
	input, ok := rawInput.(Input)
	if !ok {
		return nil, fmt.Errorf("epic: Workflow expects epic.Input, got %T", rawInput)
	}

	start := time.Now()

	// 1. Validate.
	if strings.TrimSpace(input.Task) == "" {
		o.log().Error(ctx, "epic: empty task rejected")
		return Result{Phase: PhaseValidate, Error: "task must not be empty"}, nil
	}

	ec, _, err := o.Store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("epic: load context: %w", err)
	}
	ec.Task = input.Task

	// 2. Preflight.
	if res, err := o.preflight(wf); err != nil {
		return nil, err
	} else if res != nil {
		return *res, nil
	}

	// 3. Plan.
	planResult, res, err := o.plan(wf, &ec, input.Files)
	if err != nil {
		return nil, err
	}
	if res != nil {
		return *res, nil
	}
	ec.Plan = planResult.Plan
	ec.BranchName = planResult.BranchName
	if err := o.Store.Save(wf.Ctx(), ec); err != nil {
		return nil, fmt.Errorf("epic: save context: %w", err)
	}

	// 4. Branch.
	if res, err := o.branch(wf, ec.BranchName); err != nil {
		return nil, err
	} else if res != nil {
		return *res, nil
	}

	// 5. IterLoop.
	summary, res, err := o.iterLoop(wf, &ec)
	if err != nil {
		return nil, err
	}
	if res != nil {
		return *res, nil
	}
	summary.Branch = ec.BranchName
	summary.Elapsed = time.Since(start)

	if err := o.Store.Save(wf.Ctx(), ec); err != nil {
		return nil, fmt.Errorf("epic: save context: %w", err)
	}

	return Result{Phase: PhaseDone, Summary: summary}, nil
}

// preflight runs the two git sanity checks of spec.md §4.4 step 2. A
// non-nil *Result means the workflow should terminate immediately with it.
func (o *Orchestrator) preflight(wf *workflow.Context) (*Result, error) {
	res, err := o.git(wf, "preflight-git-dir", "rev-parse", "--git-dir")
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		o.log().Error(wf.Ctx(), "epic: git not initialized")
		return &Result{Phase: PhasePreflight, Error: "Git not initialized"}, nil
	}

	res, err = o.git(wf, "preflight-status", "status", "--porcelain")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(res.Stdout) != "" {
		o.log().Error(wf.Ctx(), "epic: working directory not clean", "status", res.Stdout)
		return &Result{Phase: PhasePreflight, Error: "working directory not clean"}, nil
	}
	return nil, nil
}

// plannerOutput is the discriminated union the planner agent returns,
// flattened per spec.md §4.4 step 3's three shapes.
type plannerOutput struct {
	Type       string `json:"type"`
	Plan       string `json:"plan,omitempty"`
	BranchName string `json:"branchName,omitempty"`
	Question   *struct {
		Question      string `json:"question"`
		DefaultAnswer string `json:"defaultAnswer,omitempty"`
	} `json:"question,omitempty"`
	Reason string `json:"reason,omitempty"`
}

var plannerOutputSchema = schema.Object(map[string]*schema.Schema{
	"type":       schema.Enum("plan-generated", "question", "error"),
	"plan":       schema.Nullish(schema.String()),
	"branchName": schema.Nullish(schema.String()),
	"question": schema.Nullish(schema.Object(map[string]*schema.Schema{
		"question":      schema.String(),
		"defaultAnswer": schema.Nullish(schema.String()),
	}, "question")),
	"reason": schema.Nullish(schema.String()),
}, "type")

// plan drives spec.md §4.4 step 3's plan ⇄ feedback loop. A non-nil *Result
// means terminate the workflow immediately with it.
func (o *Orchestrator) plan(wf *workflow.Context, ec *Context, files []model.Part) (plannerOutput, *Result, error) {
	feedback := ""
	for {
		prompt := map[string]any{"task": ec.Task}
		if feedback != "" {
			prompt["feedback"] = feedback
		}
		raw, err := json.Marshal(prompt)
		if err != nil {
			return plannerOutput{}, nil, fmt.Errorf("epic: marshal planner prompt: %w", err)
		}
		parts := append([]model.Part{model.TextPart{Text: string(raw)}}, files...)
		userMsg := &model.Message{Role: model.RoleUser, Parts: parts}

		exit, err := o.runAgent(wf, o.Prompts.Planner, userMsg, plannerOutputSchema)
		if err != nil {
			if toolerr.IsUserCancelled(err) {
				return plannerOutput{}, &Result{Phase: PhasePlan, Cancelled: true}, nil
			}
			return plannerOutput{}, nil, err
		}
		if exit.Kind != agent.ExitExit {
			return plannerOutput{}, &Result{Phase: PhasePlan, Error: exitMessage(exit)}, nil
		}

		var out plannerOutput
		if err := json.Unmarshal([]byte(exit.Message), &out); err != nil {
			return plannerOutput{}, nil, fmt.Errorf("epic: decode planner output: %w", err)
		}

		switch out.Type {
		case "question":
			if out.Question == nil {
				return plannerOutput{}, nil, fmt.Errorf("epic: planner question missing payload")
			}
			answer, err := o.prompt(wf, out.Question.Question, out.Question.DefaultAnswer)
			if err != nil {
				if toolerr.IsUserCancelled(err) {
					return plannerOutput{}, &Result{Phase: PhasePlan, Cancelled: true}, nil
				}
				return plannerOutput{}, nil, err
			}
			feedback = answer
			continue
		case "error":
			o.log().Error(wf.Ctx(), "epic: planner error", "reason", out.Reason)
			return plannerOutput{}, &Result{Phase: PhasePlan, Error: out.Reason}, nil
		case "plan-generated":
			o.log().Info(wf.Ctx(), "epic: plan generated", "branch", out.BranchName)
			answer, err := o.prompt(wf, "Approve this plan? Leave blank to approve, or describe changes.", "")
			if err != nil {
				if toolerr.IsUserCancelled(err) {
					return plannerOutput{}, &Result{Phase: PhasePlan, Cancelled: true}, nil
				}
				return plannerOutput{}, nil, err
			}
			if strings.TrimSpace(answer) == "" {
				return out, nil, nil
			}
			feedback = answer
			continue
		default:
			return plannerOutput{}, nil, fmt.Errorf("epic: planner returned unknown type %q", out.Type)
		}
	}
}

// branch validates and creates the feature branch (spec.md §4.4 step 4).
func (o *Orchestrator) branch(wf *workflow.Context, name string) (*Result, error) {
	if len(name) < 3 || len(name) > 255 || !branchNamePattern.MatchString(name) {
		return &Result{Phase: PhaseBranch, Error: fmt.Sprintf("invalid branch name %q", name)}, nil
	}

	res, err := o.git(wf, "branch-verify", "rev-parse", "--verify", name)
	if err != nil {
		return nil, err
	}
	if res.ExitCode == 0 {
		return &Result{Phase: PhaseBranch, Error: fmt.Sprintf("branch %q already exists", name)}, nil
	}

	res, err = o.git(wf, "branch-create", "checkout", "-b", name)
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return &Result{Phase: PhaseBranch, Error: strings.TrimSpace(res.Stderr)}, nil
	}
	return nil, nil
}

func exitMessage(exit *agent.ExitReason) string {
	if exit.Message != "" {
		return exit.Message
	}
	return string(exit.Kind)
}
