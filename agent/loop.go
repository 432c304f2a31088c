package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/polka-codes/agentflow/model"
	"github.com/polka-codes/agentflow/provider"
	"github.com/polka-codes/agentflow/schema"
	"github.com/polka-codes/agentflow/stats"
	"github.com/polka-codes/agentflow/telemetry"
	"github.com/polka-codes/agentflow/tool"
	"github.com/polka-codes/agentflow/toolerr"
	"github.com/polka-codes/agentflow/workflow"
)

// defaultMaxSteps bounds the request loop when Input.MaxSteps is unset.
const defaultMaxSteps = 50

// Input is the argument to Runner.Workflow: a system prompt, the initial
// user message, the tool catalogue available this task, and an optional
// final output schema, per spec.md §4.2's agentWorkflow contract.
type Input struct {
	SystemPrompt string
	UserMessage  *model.Message
	Catalog      *tool.Catalog
	OutputSchema *schema.Schema
	MaxSteps     int
	Policy       Policy
}

// Runner wires the pieces an agent task needs that are not part of the
// replayable workflow state: the model provider, the injected capability
// bundle, an event observer, a usage meter, and the global statistics sink.
type Runner struct {
	Provider model.Provider
	Bundle   *provider.Bundle
	Observer Observer
	Usage    *UsageMeter
	Global   *stats.Global

	// Metrics and Tracer are injected telemetry sinks, following the same
	// host-supplied-or-Noop pattern as Logger elsewhere in the engine.
	Metrics telemetry.Metrics
	Tracer  telemetry.Tracer

	// Verbose controls whether Reasoning events are emitted to the observer.
	// Reasoning token counts are always tallied for usage purposes regardless
	// of this flag (spec.md §4.2).
	Verbose bool
}

func (r *Runner) emit(ev Event) {
	if r.Observer != nil {
		r.Observer(ev)
	}
}

func (r *Runner) metrics() telemetry.Metrics {
	if r.Metrics != nil {
		return r.Metrics
	}
	return telemetry.NoopMetrics{}
}

func (r *Runner) tracer() telemetry.Tracer {
	if r.Tracer != nil {
		return r.Tracer
	}
	return telemetry.NoopTracer{}
}

// Workflow is a workflow.Procedure implementing the request loop of spec.md
// §4.2. It is intended to be driven via workflow.Run(ctx, runner.Workflow,
// input, store).
func (r *Runner) Workflow(ctx context.Context, rawInput any, wf *workflow.Context) (any, error) {
	input, ok := rawInput.(Input)
	if !ok {
		return nil, fmt.Errorf("agent: Workflow expects agent.Input, got %T", rawInput)
	}

	taskStats := stats.NewTaskStats()
	defer func() {
		if r.Global != nil {
			r.Global.Merge(taskStats)
		}
	}()

	r.emit(Event{Kind: EventStartTask, SystemPrompt: input.SystemPrompt})

	conversation := []*model.Message{model.Text(model.RoleSystem, input.SystemPrompt)}
	if input.UserMessage != nil {
		conversation = append(conversation, input.UserMessage)
	}

	maxSteps := input.MaxSteps
	if maxSteps <= 0 {
		maxSteps = defaultMaxSteps
	}

	start := time.Now()
	retriedProtocolError := false

	for turn := 1; ; turn++ {
		if turn > maxSteps {
			r.emit(Event{Kind: EventUsageExceeded})
			exit := ExitReason{Kind: ExitUsageExceeded}
			r.emit(Event{Kind: EventEndTask, ExitReason: exit})
			return exit, nil
		}
		if input.Policy.TimeBudget > 0 && time.Since(start) > input.Policy.TimeBudget {
			exit := ExitReason{Kind: ExitInterrupted, Message: "time budget exceeded"}
			r.emit(Event{Kind: EventEndTask, ExitReason: exit})
			return exit, nil
		}
		// AddTokens(0) adds nothing and reports whether the tokens spent so far
		// are still within the token budget.
		if !r.Usage.AddTokens(0) || !r.Usage.AllowRequest() {
			r.emit(Event{Kind: EventUsageExceeded})
			exit := ExitReason{Kind: ExitUsageExceeded}
			r.emit(Event{Kind: EventEndTask, ExitReason: exit})
			return exit, nil
		}

		result, err := r.runRequest(ctx, wf, &input, conversation, taskStats, turn)
		if err != nil {
			exit := ExitReason{Kind: ExitError, Message: err.Error()}
			r.emit(Event{Kind: EventEndTask, ExitReason: exit})
			return exit, nil
		}

		conversation = result.conversation

		switch {
		case result.cancelled:
			exit := ExitReason{Kind: ExitInterrupted, Message: "cancelled"}
			r.emit(Event{Kind: EventEndTask, ExitReason: exit})
			return exit, nil
		case result.hadToolCall:
			continue
		case result.validObject:
			exit := ExitReason{Kind: ExitExit, Message: result.text, Messages: conversation}
			r.emit(Event{Kind: EventEndTask, ExitReason: exit})
			return exit, nil
		case result.invalidObject && !retriedProtocolError:
			retriedProtocolError = true
			conversation = append(conversation, model.Text(model.RoleUser, "Your previous response did not match the required output schema: "+result.validationMessage+". Please respond again with a conforming object."))
			continue
		case result.invalidObject:
			exit := ExitReason{Kind: ExitError, Message: "model failed to produce a schema-conformant final object after one retry"}
			r.emit(Event{Kind: EventEndTask, ExitReason: exit})
			return exit, nil
		default:
			// No tool call, no output schema configured: plain text exit.
			exit := ExitReason{Kind: ExitExit, Message: result.text, Messages: conversation}
			r.emit(Event{Kind: EventEndTask, ExitReason: exit})
			return exit, nil
		}
	}
}

type requestOutcome struct {
	conversation      []*model.Message
	hadToolCall       bool
	validObject       bool
	invalidObject     bool
	validationMessage string
	cancelled         bool
	text              string
}

func (r *Runner) runRequest(ctx context.Context, wf *workflow.Context, input *Input, conversation []*model.Message, taskStats *stats.TaskStats, turn int) (outcome requestOutcome, err error) {
	r.emit(Event{Kind: EventStartRequest})
	defer r.emit(Event{Kind: EventEndRequest})

	ctx, span := r.tracer().Start(ctx, "agent.request")
	requestStart := time.Now()
	defer func() {
		r.metrics().RecordTimer("agent.request.duration", time.Since(requestStart))
		span.End(err)
	}()

	defs := visibleTools(input.Catalog, input.Policy)

	var outputSchemaJSON any
	if input.OutputSchema != nil {
		outputSchemaJSON = input.OutputSchema.RenderJSON()
	}

	stream, err := r.Provider.Stream(ctx, model.Request{
		SystemPrompt: input.SystemPrompt,
		Messages:     conversation,
		Tools:        defs,
		OutputSchema: outputSchemaJSON,
	})
	if err != nil {
		return requestOutcome{}, fmt.Errorf("agent: model stream: %w", err)
	}
	defer stream.Close()

	var (
		textBuilder      strings.Builder
		reasoningOpen    bool
		toolCallsThisReq int
		finalObject      json.RawMessage
	)

	assistantParts := []model.Part{}

	for {
		delta, ok, err := stream.Next(ctx)
		if err != nil {
			return requestOutcome{}, fmt.Errorf("agent: model stream: %w", err)
		}
		if !ok {
			break
		}

		switch delta.Type {
		case model.DeltaReasoning:
			reasoningOpen = true
			if r.Verbose && delta.Text != "" {
				r.emit(Event{Kind: EventReasoning, NewText: delta.Text})
			}
		case model.DeltaText:
			if strings.TrimSpace(delta.Text) == "" {
				continue
			}
			if reasoningOpen {
				textBuilder.WriteString("\n\n")
				reasoningOpen = false
			}
			textBuilder.WriteString(delta.Text)
			r.emit(Event{Kind: EventText, NewText: delta.Text})
		case model.DeltaToolCall:
			if delta.ToolCall == nil {
				continue
			}
			toolCallsThisReq++
			assistantParts = append(assistantParts, *delta.ToolCall)
			if input.Policy.MaxToolCallsPerTurn > 0 && toolCallsThisReq > input.Policy.MaxToolCallsPerTurn {
				return requestOutcome{}, fmt.Errorf("agent: model exceeded max tool calls per turn (%d)", input.Policy.MaxToolCallsPerTurn)
			}
			resultPart, err := r.handleToolCall(ctx, wf, input.Catalog, *delta.ToolCall, taskStats, turn, toolCallsThisReq)
			if err != nil {
				if toolerr.IsUserCancelled(err) {
					return requestOutcome{cancelled: true}, nil
				}
				return requestOutcome{}, err
			}
			assistantParts = append(assistantParts, resultPart)
		case model.DeltaFinish:
			r.Usage.AddTokens(delta.Usage.InputTokens + delta.Usage.OutputTokens + delta.Usage.ReasoningTokens)
			finalObject = delta.FinalObject
		}
	}

	if textBuilder.Len() > 0 {
		assistantParts = append([]model.Part{model.TextPart{Text: textBuilder.String()}}, assistantParts...)
	}
	if len(assistantParts) > 0 {
		conversation = append(conversation, &model.Message{Role: model.RoleAssistant, Parts: assistantParts})
	}

	if toolCallsThisReq > 0 {
		return requestOutcome{conversation: conversation, hadToolCall: true}, nil
	}

	if input.OutputSchema == nil {
		return requestOutcome{conversation: conversation, text: textBuilder.String()}, nil
	}

	if len(finalObject) == 0 {
		return requestOutcome{conversation: conversation, invalidObject: true, validationMessage: "model did not return a final object"}, nil
	}

	var decoded any
	if err := json.Unmarshal(finalObject, &decoded); err != nil {
		return requestOutcome{conversation: conversation, invalidObject: true, validationMessage: err.Error()}, nil
	}
	if errs := input.OutputSchema.Validate(decoded); len(errs) > 0 {
		return requestOutcome{conversation: conversation, invalidObject: true, validationMessage: errs[0].Error()}, nil
	}

	return requestOutcome{conversation: conversation, validObject: true, text: string(finalObject)}, nil
}

func (r *Runner) handleToolCall(ctx context.Context, wf *workflow.Context, catalog *tool.Catalog, call model.ToolCallPart, taskStats *stats.TaskStats, turn, ordinalInTurn int) (part model.Part, err error) {
	r.emit(Event{Kind: EventToolUse, Tool: call.Name, Params: call.Input})
	taskStats.RecordCall(call.Name)
	r.metrics().IncCounter("agent.tool.calls", 1, "tool", call.Name)

	tracedCtx, span := r.tracer().Start(ctx, "agent.tool_call")
	span.SetAttribute("tool", call.Name)
	toolStart := time.Now()
	defer func() {
		r.metrics().RecordTimer("agent.tool.duration", time.Since(toolStart), "tool", call.Name)
		span.End(err)
	}()

	var rawInput any
	if len(call.Input) > 0 {
		if jsonErr := json.Unmarshal(call.Input, &rawInput); jsonErr != nil {
			taskStats.RecordError(call.Name)
			r.metrics().IncCounter("agent.tool.errors", 1, "tool", call.Name)
			msg := fmt.Sprintf("invalid JSON input: %v", jsonErr)
			r.emit(Event{Kind: EventToolError, Tool: call.Name, Error: msg})
			return model.ToolResultPart{ToolCallID: call.ID, Output: jsonString(msg), IsError: true}, nil
		}
	}

	validated, violations := catalog.Validate(call.Name, rawInput)
	if len(violations) > 0 {
		taskStats.RecordError(call.Name)
		r.metrics().IncCounter("agent.tool.errors", 1, "tool", call.Name)
		msg := violations[0].Error()
		r.emit(Event{Kind: EventToolError, Tool: call.Name, Error: msg})
		return model.ToolResultPart{ToolCallID: call.ID, Output: jsonString(msg), IsError: true}, nil
	}

	stepName := fmt.Sprintf("tool-%s-%d-%d", call.Name, turn, ordinalInTurn)
	raw, stepErr := wf.Step(stepName, func() (any, error) {
		result, err := catalog.Invoke(tracedCtx, call.Name, r.Bundle, validated)
		if err != nil {
			return nil, err
		}
		if result.Success {
			return result, nil
		}
		return nil, toolerr.Newf(toolerr.KindTool, "%s: %v", call.Name, result.Message.Value)
	})

	if stepErr != nil {
		if toolerr.IsUserCancelled(stepErr) {
			err = stepErr
			return model.Part(nil), err
		}
		taskStats.RecordError(call.Name)
		r.metrics().IncCounter("agent.tool.errors", 1, "tool", call.Name)
		r.emit(Event{Kind: EventToolError, Tool: call.Name, Error: stepErr.Error()})
		return model.ToolResultPart{ToolCallID: call.ID, Output: jsonString(stepErr.Error()), IsError: true}, nil
	}

	result := raw.(tool.Result)
	taskStats.RecordSuccess(call.Name)
	r.metrics().IncCounter("agent.tool.success", 1, "tool", call.Name)
	outputJSON, _ := json.Marshal(result.Message.Value)
	r.emit(Event{Kind: EventToolReply, Tool: call.Name, Output: outputJSON})
	return model.ToolResultPart{ToolCallID: call.ID, Output: outputJSON}, nil
}

func visibleTools(catalog *tool.Catalog, policy Policy) []model.ToolDefinition {
	if catalog == nil {
		return nil
	}
	allow := toSet(policy.AllowTools)
	deny := toSet(policy.DenyTools)
	descriptors := catalog.Descriptors()
	out := make([]model.ToolDefinition, 0, len(descriptors))
	for _, d := range descriptors {
		if len(allow) > 0 && !allow[d.Name] {
			continue
		}
		if deny[d.Name] {
			continue
		}
		out = append(out, model.ToolDefinition{
			Name:        d.Name,
			Description: d.Description,
			InputSchema: d.InputSchema.RenderJSON(),
		})
	}
	return out
}

func jsonString(s string) json.RawMessage {
	raw, _ := json.Marshal(s)
	return raw
}
