// Package builtin implements every built-in tool named in spec.md §4.3,
// each declaring the provider capabilities it needs and delegating to the
// injected capability bundle rather than touching the host directly.
package builtin

import (
	"context"
	"encoding/base64"

	"github.com/polka-codes/agentflow/provider"
	"github.com/polka-codes/agentflow/schema"
	"github.com/polka-codes/agentflow/tool"
)

const defaultSearchContextLines = 5
const defaultListFilesMaxCount = 2000

// ReadFile reads a text file.
func ReadFile() tool.Descriptor {
	return tool.Descriptor{
		Name:        "readFile",
		Description: "Reads the full contents of a text file at the given path.",
		InputSchema: schema.Object(map[string]*schema.Schema{
			"path":           schema.String(),
			"includeIgnored": schema.Nullish(schema.Boolean()),
		}, "path"),
		Capabilities: []provider.Capability{provider.CapabilityFileSystem},
		Handler: func(ctx context.Context, b *provider.Bundle, input any) (tool.Result, error) {
			m := input.(map[string]any)
			path := m["path"].(string)
			includeIgnored, _ := m["includeIgnored"].(bool)
			content, err := b.FileSystem.ReadFile(ctx, path, includeIgnored)
			if err != nil {
				return tool.Error("readFile %s: %v", path, err), nil
			}
			return tool.Text(content), nil
		},
	}
}

// WriteToFile overwrites a file with new content.
func WriteToFile() tool.Descriptor {
	return tool.Descriptor{
		Name:        "writeToFile",
		Description: "Writes content to a file, overwriting any existing content.",
		InputSchema: schema.Object(map[string]*schema.Schema{
			"path":    schema.String(),
			"content": schema.String(),
		}, "path", "content"),
		Capabilities: []provider.Capability{provider.CapabilityFileSystem},
		Handler: func(ctx context.Context, b *provider.Bundle, input any) (tool.Result, error) {
			m := input.(map[string]any)
			path := m["path"].(string)
			if err := b.FileSystem.WriteFile(ctx, path, m["content"].(string)); err != nil {
				return tool.Error("writeToFile %s: %v", path, err), nil
			}
			return tool.Text("ok"), nil
		},
	}
}

// ReplaceInFile applies a list of string substitutions to a file.
func ReplaceInFile() tool.Descriptor {
	return tool.Descriptor{
		Name:        "replaceInFile",
		Description: "Applies one or more search/replace substitutions to an existing file.",
		InputSchema: schema.Object(map[string]*schema.Schema{
			"path": schema.String(),
			"replacements": schema.Array(schema.Object(map[string]*schema.Schema{
				"search":  schema.String(),
				"replace": schema.String(),
			}, "search", "replace")),
		}, "path", "replacements"),
		Capabilities: []provider.Capability{provider.CapabilityFileSystem},
		Handler: func(ctx context.Context, b *provider.Bundle, input any) (tool.Result, error) {
			m := input.(map[string]any)
			path := m["path"].(string)
			raw, _ := m["replacements"].([]any)
			replacements := make([]provider.Replacement, 0, len(raw))
			for _, r := range raw {
				rm := r.(map[string]any)
				replacements = append(replacements, provider.Replacement{
					Search:  rm["search"].(string),
					Replace: rm["replace"].(string),
				})
			}
			if err := b.FileSystem.ReplaceInFile(ctx, path, replacements); err != nil {
				return tool.Error("replaceInFile %s: %v", path, err), nil
			}
			return tool.Text("ok"), nil
		},
	}
}

// SearchFiles searches file contents for a pattern, returning ranked matches
// with a configurable number of context lines (default 5).
func SearchFiles() tool.Descriptor {
	return tool.Descriptor{
		Name:        "searchFiles",
		Description: "Searches files under a path for a pattern, returning matches with surrounding context lines.",
		InputSchema: schema.Object(map[string]*schema.Schema{
			"path":         schema.String(),
			"pattern":      schema.String(),
			"contextLines": schema.Nullish(schema.Integer()),
		}, "path", "pattern"),
		Capabilities: []provider.Capability{provider.CapabilityFileSystem},
		Handler: func(ctx context.Context, b *provider.Bundle, input any) (tool.Result, error) {
			m := input.(map[string]any)
			contextLines := defaultSearchContextLines
			if v, ok := m["contextLines"].(float64); ok {
				contextLines = int(v)
			}
			matches, err := b.FileSystem.SearchFiles(ctx, m["path"].(string), m["pattern"].(string), contextLines)
			if err != nil {
				return tool.Error("searchFiles: %v", err), nil
			}
			return tool.JSON(matches), nil
		},
	}
}

// ListFiles lists paths under a directory, truncated to maxCount (default
// 2000). Per spec.md §8's simplifier boundary behavior, callers should omit
// maxCount from the serialized params entirely when it equals the default —
// that simplification is the caller's/model-facing concern, not this
// handler's; the handler itself always applies whatever value it receives
// (or the default, if omitted).
func ListFiles() tool.Descriptor {
	return tool.Descriptor{
		Name:        "listFiles",
		Description: "Lists file paths under a directory, optionally recursive, truncated to maxCount entries (default 2000).",
		InputSchema: schema.Object(map[string]*schema.Schema{
			"path":      schema.String(),
			"recursive": schema.Nullish(schema.Boolean()),
			"maxCount":  schema.Nullish(schema.Integer()),
		}, "path"),
		Capabilities: []provider.Capability{provider.CapabilityFileSystem},
		Handler: func(ctx context.Context, b *provider.Bundle, input any) (tool.Result, error) {
			m := input.(map[string]any)
			recursive, _ := m["recursive"].(bool)
			maxCount := defaultListFilesMaxCount
			if v, ok := m["maxCount"].(float64); ok {
				maxCount = int(v)
			}
			paths, err := b.FileSystem.ListFiles(ctx, m["path"].(string), recursive, maxCount)
			if err != nil {
				return tool.Error("listFiles: %v", err), nil
			}
			if len(paths) > maxCount {
				paths = paths[:maxCount]
			}
			return tool.JSON(paths), nil
		},
	}
}

// ReadBinaryFile reads a file and returns its content base64-encoded.
func ReadBinaryFile() tool.Descriptor {
	return tool.Descriptor{
		Name:        "readBinaryFile",
		Description: "Reads a file and returns its content base64-encoded.",
		InputSchema: schema.Object(map[string]*schema.Schema{"path": schema.String()}, "path"),
		Capabilities: []provider.Capability{provider.CapabilityFileSystem},
		Handler: func(ctx context.Context, b *provider.Bundle, input any) (tool.Result, error) {
			m := input.(map[string]any)
			path := m["path"].(string)
			data, err := b.FileSystem.ReadBinaryFile(ctx, path)
			if err != nil {
				return tool.Error("readBinaryFile %s: %v", path, err), nil
			}
			return tool.Text(base64.StdEncoding.EncodeToString(data)), nil
		},
	}
}

// RemoveFile deletes a file.
func RemoveFile() tool.Descriptor {
	return tool.Descriptor{
		Name:        "removeFile",
		Description: "Deletes a file.",
		InputSchema: schema.Object(map[string]*schema.Schema{"path": schema.String()}, "path"),
		Capabilities: []provider.Capability{provider.CapabilityFileSystem},
		Handler: func(ctx context.Context, b *provider.Bundle, input any) (tool.Result, error) {
			m := input.(map[string]any)
			path := m["path"].(string)
			if err := b.FileSystem.RemoveFile(ctx, path); err != nil {
				return tool.Error("removeFile %s: %v", path, err), nil
			}
			return tool.Text("ok"), nil
		},
	}
}

// RenameFile renames/moves a file.
func RenameFile() tool.Descriptor {
	return tool.Descriptor{
		Name:        "renameFile",
		Description: "Renames or moves a file.",
		InputSchema: schema.Object(map[string]*schema.Schema{
			"from": schema.String(),
			"to":   schema.String(),
		}, "from", "to"),
		Capabilities: []provider.Capability{provider.CapabilityFileSystem},
		Handler: func(ctx context.Context, b *provider.Bundle, input any) (tool.Result, error) {
			m := input.(map[string]any)
			from, to := m["from"].(string), m["to"].(string)
			if err := b.FileSystem.RenameFile(ctx, from, to); err != nil {
				return tool.Error("renameFile %s -> %s: %v", from, to, err), nil
			}
			return tool.Text("ok"), nil
		},
	}
}
