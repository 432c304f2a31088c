package builtin

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/polka-codes/agentflow/provider"
	"github.com/polka-codes/agentflow/schema"
	"github.com/polka-codes/agentflow/tool"
)

// CompareIDs orders two dotted numeric to-do ids such as "1", "1.1", "10"
// the way a human reading a checklist expects: segment-by-segment numeric
// comparison rather than lexicographic string comparison, so "1.1" sorts
// before "2" and "2" sorts before "10" (spec.md §4.3, §8).
func CompareIDs(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		an, aErr := strconv.Atoi(as[i])
		bn, bErr := strconv.Atoi(bs[i])
		if aErr != nil || bErr != nil {
			if as[i] != bs[i] {
				if as[i] < bs[i] {
					return -1
				}
				return 1
			}
			continue
		}
		if an != bn {
			if an < bn {
				return -1
			}
			return 1
		}
	}
	return len(as) - len(bs)
}

func sortItemsByID(items []provider.TodoItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return CompareIDs(items[i].ID, items[j].ID) < 0
	})
}

// UpdateTodoItem creates or updates a to-do entry.
func UpdateTodoItem() tool.Descriptor {
	return tool.Descriptor{
		Name:        "updateTodoItem",
		Description: "Creates or updates a to-do item.",
		InputSchema: schema.Object(map[string]*schema.Schema{
			"id":       schema.String(),
			"parentId": schema.Nullish(schema.String()),
			"title":    schema.Nullish(schema.String()),
			"status":   schema.Nullish(schema.String()),
		}, "id"),
		Capabilities: []provider.Capability{provider.CapabilityTodo},
		Handler: func(ctx context.Context, b *provider.Bundle, input any) (tool.Result, error) {
			m := input.(map[string]any)
			item := provider.TodoItem{ID: m["id"].(string)}
			item.ParentID, _ = m["parentId"].(string)
			item.Title, _ = m["title"].(string)
			item.Status, _ = m["status"].(string)
			if err := b.Todo.UpdateTodoItem(ctx, item); err != nil {
				return tool.Error("updateTodoItem: %v", err), nil
			}
			return tool.Text("ok"), nil
		},
	}
}

// GetTodoItem fetches a single to-do item by id.
func GetTodoItem() tool.Descriptor {
	return tool.Descriptor{
		Name:        "getTodoItem",
		Description: "Fetches a single to-do item by id.",
		InputSchema: schema.Object(map[string]*schema.Schema{"id": schema.String()}, "id"),
		Capabilities: []provider.Capability{provider.CapabilityTodo},
		Handler: func(ctx context.Context, b *provider.Bundle, input any) (tool.Result, error) {
			m := input.(map[string]any)
			item, found, err := b.Todo.GetTodoItem(ctx, m["id"].(string))
			if err != nil {
				return tool.Error("getTodoItem: %v", err), nil
			}
			if !found {
				return tool.Error("to-do item %q not found", m["id"].(string)), nil
			}
			return tool.JSON(item), nil
		},
	}
}

// ListTodoItems lists to-do items, optionally filtered by parent id and
// status, sorted by id under CompareIDs.
func ListTodoItems() tool.Descriptor {
	return tool.Descriptor{
		Name:        "listTodoItems",
		Description: "Lists to-do items, optionally filtered by parent id and status, sorted numerically by id.",
		InputSchema: schema.Object(map[string]*schema.Schema{
			"id":     schema.Nullish(schema.String()),
			"status": schema.Nullish(schema.String()),
		}),
		Capabilities: []provider.Capability{provider.CapabilityTodo},
		Handler: func(ctx context.Context, b *provider.Bundle, input any) (tool.Result, error) {
			m, _ := input.(map[string]any)
			parentID, _ := m["id"].(string)
			status, _ := m["status"].(string)
			items, err := b.Todo.ListTodoItems(ctx, parentID, status)
			if err != nil {
				return tool.Error("listTodoItems: %v", err), nil
			}
			sortItemsByID(items)
			return tool.JSON(items), nil
		},
	}
}
