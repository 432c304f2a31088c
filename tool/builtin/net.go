package builtin

import (
	"context"

	"github.com/polka-codes/agentflow/provider"
	"github.com/polka-codes/agentflow/schema"
	"github.com/polka-codes/agentflow/tool"
)

// FetchURL fetches the text body of an HTTP URL.
func FetchURL() tool.Descriptor {
	return tool.Descriptor{
		Name:        "fetchUrl",
		Description: "Fetches the text content of an HTTP(S) URL.",
		InputSchema: schema.Object(map[string]*schema.Schema{"url": schema.String()}, "url"),
		Capabilities: []provider.Capability{provider.CapabilityHTTP},
		Handler: func(ctx context.Context, b *provider.Bundle, input any) (tool.Result, error) {
			m := input.(map[string]any)
			url := m["url"].(string)
			body, err := b.HTTP.FetchURL(ctx, url)
			if err != nil {
				return tool.Error("fetchUrl %s: %v", url, err), nil
			}
			return tool.Text(body), nil
		},
	}
}
