package tool_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polka-codes/agentflow/provider"
	"github.com/polka-codes/agentflow/schema"
	"github.com/polka-codes/agentflow/tool"
)

func echoDescriptor() tool.Descriptor {
	return tool.Descriptor{
		Name:        "echo",
		Description: "echoes its input",
		InputSchema: schema.Object(map[string]*schema.Schema{
			"value": schema.String(),
		}, "value"),
		Handler: func(ctx context.Context, bundle *provider.Bundle, input any) (tool.Result, error) {
			m := input.(map[string]any)
			return tool.Text(m["value"].(string)), nil
		},
	}
}

func gatedDescriptor() tool.Descriptor {
	return tool.Descriptor{
		Name:         "readFile",
		Capabilities: []provider.Capability{provider.CapabilityFileSystem},
		Handler: func(ctx context.Context, bundle *provider.Bundle, input any) (tool.Result, error) {
			return tool.Text("contents"), nil
		},
	}
}

func TestCatalog_RegisterLookupDescriptors(t *testing.T) {
	c := tool.NewCatalog()
	c.Register(echoDescriptor())

	d, ok := c.Lookup("echo")
	require.True(t, ok)
	assert.Equal(t, "echo", d.Name)

	_, ok = c.Lookup("missing")
	assert.False(t, ok)

	assert.Len(t, c.Descriptors(), 1)
}

func TestCatalog_ValidateRejectsMissingRequiredField(t *testing.T) {
	c := tool.NewCatalog()
	c.Register(echoDescriptor())

	_, errs := c.Validate("echo", map[string]any{})
	require.NotEmpty(t, errs)
}

func TestCatalog_InvokeRunsHandlerOnValidInput(t *testing.T) {
	c := tool.NewCatalog()
	c.Register(echoDescriptor())

	result, err := c.Invoke(context.Background(), "echo", &provider.Bundle{}, map[string]any{"value": "hi"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "hi", result.Message.Value)
}

func TestCatalog_InvokeRefusesUnsupportedCapability(t *testing.T) {
	c := tool.NewCatalog()
	c.Register(gatedDescriptor())

	result, err := c.Invoke(context.Background(), "readFile", &provider.Bundle{}, nil)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, tool.MessageErrorText, result.Message.Type)
	assert.Equal(t, "not supported", result.Message.Value)
}

func TestCatalog_InvokeUnknownToolReturnsErrorResult(t *testing.T) {
	c := tool.NewCatalog()
	result, err := c.Invoke(context.Background(), "nope", &provider.Bundle{}, nil)
	require.NoError(t, err)
	assert.False(t, result.Success)
}
