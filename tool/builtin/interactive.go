package builtin

import (
	"context"

	"github.com/polka-codes/agentflow/provider"
	"github.com/polka-codes/agentflow/schema"
	"github.com/polka-codes/agentflow/tool"
	"github.com/polka-codes/agentflow/toolerr"
)

// AskFollowupQuestion prompts the user for clarification. It is only
// available when the bound bundle is running in interactive mode
// (provider.Bundle.Interactive), enforced by the catalog's capability gate
// on provider.CapabilityInput.
func AskFollowupQuestion() tool.Descriptor {
	return tool.Descriptor{
		Name:        "askFollowupQuestion",
		Description: "Asks the user a clarifying question and returns their answer. Only available in interactive mode.",
		InputSchema: schema.Object(map[string]*schema.Schema{
			"question":      schema.String(),
			"defaultAnswer": schema.Nullish(schema.String()),
		}, "question"),
		Capabilities: []provider.Capability{provider.CapabilityInput},
		Handler: func(ctx context.Context, b *provider.Bundle, input any) (tool.Result, error) {
			m := input.(map[string]any)
			defaultAnswer, _ := m["defaultAnswer"].(string)
			answer, err := b.Input.Input(ctx, m["question"].(string), defaultAnswer)
			if err != nil {
				if toolerr.IsUserCancelled(err) {
					return tool.Result{}, err
				}
				return tool.Error("askFollowupQuestion: %v", err), nil
			}
			return tool.Text(answer), nil
		},
	}
}
