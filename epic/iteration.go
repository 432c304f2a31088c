package epic

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/polka-codes/agentflow/agent"
	"github.com/polka-codes/agentflow/model"
	"github.com/polka-codes/agentflow/schema"
	"github.com/polka-codes/agentflow/toolerr"
	"github.com/polka-codes/agentflow/workflow"
)

// incompleteChecklistItem matches a single unchecked Markdown checklist line
// ("- [ ] do the thing"), per spec.md §4.4 step 5.a.
var incompleteChecklistItem = regexp.MustCompile(`(?m)^- \[ \] (.+)$`)

var checkedItem = regexp.MustCompile(`(?m)^- \[x\] `)
var anyChecklistItem = regexp.MustCompile(`(?m)^- \[[ x]\] `)

type reviewOutput struct {
	SpecificReviews []struct {
		File  string `json:"file"`
		Issue string `json:"issue"`
	} `json:"specificReviews"`
}

var reviewOutputSchema = schema.Object(map[string]*schema.Schema{
	"specificReviews": schema.Array(schema.Object(map[string]*schema.Schema{
		"file":  schema.String(),
		"issue": schema.String(),
	}, "file", "issue")),
}, "specificReviews")

type planUpdateOutput struct {
	UpdatedPlan string `json:"updatedPlan"`
	IsComplete  bool   `json:"isComplete"`
	NextTask    string `json:"nextTask,omitempty"`
}

var planUpdateOutputSchema = schema.Object(map[string]*schema.Schema{
	"updatedPlan": schema.String(),
	"isComplete":  schema.Boolean(),
	"nextTask":    schema.Nullish(schema.String()),
}, "updatedPlan", "isComplete")

// iterLoop drives spec.md §4.4 step 5 to completion. A non-nil *Result means
// terminate the workflow immediately with it.
func (o *Orchestrator) iterLoop(wf *workflow.Context, ec *Context) (*Summary, *Result, error) {
	summary := &Summary{}

	for {
		match := incompleteChecklistItem.FindStringSubmatch(ec.Plan)
		if match == nil {
			if !strings.Contains(ec.Plan, "- [ ]") {
				break
			}
			o.log().Error(wf.Ctx(), "epic: could not extract incomplete checklist item", "plan", ec.Plan)
			break
		}
		item := strings.TrimSpace(match[1])

		implSummary, res, err := o.implement(wf, ec, item, "")
		if err != nil {
			return nil, nil, err
		}
		if res != nil {
			return nil, res, nil
		}

		commitMsg := fmt.Sprintf("feat: %s", item)
		if res, err := o.commit(wf, commitMsg, fmt.Sprintf("commit-%d", summary.Iterations)); err != nil {
			return nil, nil, err
		} else if res != nil {
			return nil, res, nil
		}
		summary.CommitMessages = append(summary.CommitMessages, commitMsg)

		if res, err := o.reviewLoop(wf, ec, item, summary.Iterations); err != nil {
			return nil, nil, err
		} else if res != nil {
			return nil, res, nil
		}

		updated, res, err := o.updatePlan(wf, ec, implSummary, item)
		if err != nil {
			return nil, nil, err
		}
		if res != nil {
			return nil, res, nil
		}

		ec.Plan = updated.UpdatedPlan
		summary.Iterations++
		completed, total := checklistProgress(ec.Plan)
		o.log().Info(wf.Ctx(), "epic: plan progress", "completed", completed, "total", total)

		if updated.IsComplete {
			summary.NextStepHints = updated.NextTask
			break
		}
	}

	return summary, nil, nil
}

// implement invokes the code sub-workflow (spec.md §4.4 step 5.b, and the
// review loop's "fix these issues" re-invocation) and returns its text
// summary.
func (o *Orchestrator) implement(wf *workflow.Context, ec *Context, item, fixContext string) (string, *Result, error) {
	task := map[string]any{"plan": ec.Plan, "task": item}
	if fixContext != "" {
		task["fix"] = fixContext
	}
	raw, err := json.Marshal(task)
	if err != nil {
		return "", nil, fmt.Errorf("epic: marshal code task: %w", err)
	}

	exit, err := o.runAgent(wf, o.Prompts.Code, model.Text(model.RoleUser, string(raw)), nil)
	if err != nil {
		if toolerr.IsUserCancelled(err) {
			return "", &Result{Phase: PhaseIterLoop, Cancelled: true}, nil
		}
		return "", nil, err
	}
	if exit.Kind != agent.ExitExit {
		return "", &Result{Phase: PhaseIterLoop, Error: exitMessage(exit)}, nil
	}
	return exit.Message, nil, nil
}

func (o *Orchestrator) commit(wf *workflow.Context, message, stepPrefix string) (*Result, error) {
	if _, err := o.git(wf, stepPrefix+"-add", "add", "."); err != nil {
		return nil, err
	}
	res, err := o.git(wf, stepPrefix+"-commit", "commit", "-m", message)
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return &Result{Phase: PhaseIterLoop, Error: strings.TrimSpace(res.Stderr)}, nil
	}
	return nil, nil
}

// reviewLoop runs spec.md §4.4 step 5.d: up to maxReviewRetries review-and-
// fix passes, skipping entirely when the commit touched no reviewable file.
func (o *Orchestrator) reviewLoop(wf *workflow.Context, ec *Context, item string, iteration int) (*Result, error) {
	for attempt := 0; attempt < maxReviewRetries; attempt++ {
		diffRes, err := o.git(wf, fmt.Sprintf("review-%d-%d-diff-names", iteration, attempt), "diff", "--name-status", "HEAD~1", "HEAD")
		if err != nil {
			return nil, err
		}
		files := reviewableFilesChanged(diffRes.Stdout)
		if len(files) == 0 {
			return nil, nil
		}

		diffRes, err = o.git(wf, fmt.Sprintf("review-%d-%d-diff", iteration, attempt), "diff", "HEAD~1", "HEAD")
		if err != nil {
			return nil, err
		}

		prompt := map[string]any{"files": files, "diff": diffRes.Stdout, "memory": ec.Memory}
		raw, err := json.Marshal(prompt)
		if err != nil {
			return nil, fmt.Errorf("epic: marshal review prompt: %w", err)
		}

		exit, err := o.runAgent(wf, o.Prompts.Review, model.Text(model.RoleUser, string(raw)), reviewOutputSchema)
		if err != nil {
			if toolerr.IsUserCancelled(err) {
				return &Result{Phase: PhaseIterLoop, Cancelled: true}, nil
			}
			return nil, err
		}
		if exit.Kind != agent.ExitExit {
			// Review agent terminating for a non-Exit reason breaks the review
			// loop but continues to plan-update (spec.md §4.4 failure semantics).
			o.log().Warn(wf.Ctx(), "epic: review agent did not exit cleanly", "reason", exitMessage(exit))
			return nil, nil
		}

		var review reviewOutput
		if err := json.Unmarshal([]byte(exit.Message), &review); err != nil {
			return nil, fmt.Errorf("epic: decode review output: %w", err)
		}
		if len(review.SpecificReviews) == 0 {
			return nil, nil
		}

		var issues strings.Builder
		for _, r := range review.SpecificReviews {
			fmt.Fprintf(&issues, "%s: %s\n", r.File, r.Issue)
		}

		if _, res, err := o.implement(wf, ec, item, issues.String()); err != nil {
			return nil, err
		} else if res != nil {
			return res, nil
		}

		if _, err := o.git(wf, fmt.Sprintf("review-%d-%d-add", iteration, attempt), "add", "."); err != nil {
			return nil, err
		}
		res, err := o.git(wf, fmt.Sprintf("review-%d-%d-amend", iteration, attempt), "commit", "--amend", "--no-edit")
		if err != nil {
			return nil, err
		}
		if res.ExitCode != 0 {
			return &Result{Phase: PhaseIterLoop, Error: strings.TrimSpace(res.Stderr)}, nil
		}

		if attempt == maxReviewRetries-1 {
			o.log().Warn(wf.Ctx(), "epic: review retries exhausted, issues may remain", "item", item)
		}
	}
	return nil, nil
}

// reviewableFilesChanged parses `git diff --name-status` output and returns
// the subset of changed files whose extension is in the fixed reviewable set.
func reviewableFilesChanged(nameStatus string) []string {
	var out []string
	for _, line := range strings.Split(strings.TrimSpace(nameStatus), "\n") {
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		path := fields[len(fields)-1]
		if reviewableExtensions[strings.ToLower(filepath.Ext(path))] {
			out = append(out, path)
		}
	}
	return out
}

func (o *Orchestrator) updatePlan(wf *workflow.Context, ec *Context, implementationSummary, completedTask string) (planUpdateOutput, *Result, error) {
	prompt := map[string]any{
		"currentPlan":           ec.Plan,
		"implementationSummary": implementationSummary,
		"completedTask":         completedTask,
	}
	raw, err := json.Marshal(prompt)
	if err != nil {
		return planUpdateOutput{}, nil, fmt.Errorf("epic: marshal plan-update prompt: %w", err)
	}

	exit, err := o.runAgent(wf, o.Prompts.PlanUpdate, model.Text(model.RoleUser, string(raw)), planUpdateOutputSchema)
	if err != nil {
		if toolerr.IsUserCancelled(err) {
			return planUpdateOutput{}, &Result{Phase: PhaseIterLoop, Cancelled: true}, nil
		}
		return planUpdateOutput{}, nil, err
	}
	if exit.Kind != agent.ExitExit {
		return planUpdateOutput{}, &Result{Phase: PhaseIterLoop, Error: exitMessage(exit)}, nil
	}

	var out planUpdateOutput
	if err := json.Unmarshal([]byte(exit.Message), &out); err != nil {
		return planUpdateOutput{}, nil, fmt.Errorf("epic: decode plan-update output: %w", err)
	}
	return out, nil, nil
}

// checklistProgress reports how many checklist items are complete out of the
// total, used for progress counters (spec.md §4.4 step 5.e).
func checklistProgress(plan string) (completed, total int) {
	total = len(anyChecklistItem.FindAllString(plan, -1))
	completed = len(checkedItem.FindAllString(plan, -1))
	return
}
