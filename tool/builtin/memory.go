package builtin

import (
	"context"
	"fmt"

	"github.com/polka-codes/agentflow/provider"
	"github.com/polka-codes/agentflow/schema"
	"github.com/polka-codes/agentflow/tool"
)

// emptyMemoryMarker is returned by readMemory for a topic with no stored
// content, per spec.md §8's memory round-trip property.
const emptyMemoryMarker = "(empty)"

// UpdateMemory appends, replaces, or removes the content of a memory topic.
// content is required for append/replace and forbidden for remove; topic
// defaults to provider.DefaultMemoryTopic.
func UpdateMemory() tool.Descriptor {
	return tool.Descriptor{
		Name:        "updateMemory",
		Description: "Appends to, replaces, or removes a named memory topic.",
		InputSchema: &schema.Schema{
			Kind: schema.KindObject,
			Properties: map[string]*schema.Schema{
				"operation": schema.Enum("append", "replace", "remove"),
				"topic":     schema.Nullish(schema.String()),
				"content":   schema.Nullish(schema.String()),
			},
			Required: []string{"operation"},
		},
		Capabilities: []provider.Capability{provider.CapabilityMemory},
		Handler: func(ctx context.Context, b *provider.Bundle, input any) (tool.Result, error) {
			m := input.(map[string]any)
			op := provider.MemoryOp(m["operation"].(string))
			topic, _ := m["topic"].(string)
			if topic == "" {
				topic = provider.DefaultMemoryTopic
			}
			content, hasContent := m["content"].(string)

			switch op {
			case provider.MemoryOpAppend, provider.MemoryOpReplace:
				if !hasContent {
					return tool.Error("content is required for operation %q", op), nil
				}
			case provider.MemoryOpRemove:
				if hasContent {
					return tool.Error("content must not be provided for operation %q", op), nil
				}
			}

			if err := b.Memory.UpdateMemory(ctx, op, topic, content); err != nil {
				return tool.Error("updateMemory: %v", err), nil
			}

			switch op {
			case provider.MemoryOpAppend:
				return tool.Text(fmt.Sprintf("Content appended to memory topic '%s'", topic)), nil
			case provider.MemoryOpReplace:
				return tool.Text(fmt.Sprintf("Memory topic '%s' replaced", topic)), nil
			default:
				return tool.Text(fmt.Sprintf("Memory topic '%s' removed", topic)), nil
			}
		},
	}
}

// ReadMemory reads a memory topic's stored content, or the empty marker if
// nothing has been stored there.
func ReadMemory() tool.Descriptor {
	return tool.Descriptor{
		Name:        "readMemory",
		Description: "Reads the stored content of a memory topic.",
		InputSchema: schema.Object(map[string]*schema.Schema{
			"topic": schema.Nullish(schema.String()),
		}),
		Capabilities: []provider.Capability{provider.CapabilityMemory},
		Handler: func(ctx context.Context, b *provider.Bundle, input any) (tool.Result, error) {
			m, _ := input.(map[string]any)
			topic, _ := m["topic"].(string)
			if topic == "" {
				topic = provider.DefaultMemoryTopic
			}
			content, found, err := b.Memory.ReadMemory(ctx, topic)
			if err != nil {
				return tool.Error("readMemory: %v", err), nil
			}
			if !found {
				return tool.Text(emptyMemoryMarker), nil
			}
			return tool.Text(content), nil
		},
	}
}

// ListMemoryTopics lists every memory topic with stored content.
func ListMemoryTopics() tool.Descriptor {
	return tool.Descriptor{
		Name:         "listMemoryTopics",
		Description:  "Lists every memory topic that has stored content.",
		InputSchema:  schema.Object(map[string]*schema.Schema{}),
		Capabilities: []provider.Capability{provider.CapabilityMemory},
		Handler: func(ctx context.Context, b *provider.Bundle, input any) (tool.Result, error) {
			topics, err := b.Memory.ListMemoryTopics(ctx)
			if err != nil {
				return tool.Error("listMemoryTopics: %v", err), nil
			}
			return tool.JSON(topics), nil
		},
	}
}
