package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polka-codes/agentflow/schema"
)

func TestValidate_ObjectRequired(t *testing.T) {
	s := schema.Object(map[string]*schema.Schema{
		"path": schema.String(),
	}, "path")

	errs := s.Validate(map[string]any{})
	require.Len(t, errs, 1)
	assert.Equal(t, "missing_field", errs[0].Constraint)

	errs = s.Validate(map[string]any{"path": "a.txt"})
	assert.Empty(t, errs)
}

func TestValidate_Enum(t *testing.T) {
	s := schema.Enum("append", "replace", "remove")
	assert.Empty(t, s.Validate("append"))
	errs := s.Validate("delete")
	require.Len(t, errs, 1)
	assert.Equal(t, "invalid_enum_value", errs[0].Constraint)
}

func TestValidate_Nullish(t *testing.T) {
	s := schema.Nullish(schema.String())
	assert.Empty(t, s.Validate(nil))
	assert.Empty(t, s.Validate("x"))
	assert.NotEmpty(t, s.Validate(42.0))
}

func TestValidate_NumberRange(t *testing.T) {
	min := 1.0
	max := 10.0
	s := &schema.Schema{Kind: schema.KindInteger, Minimum: &min, Maximum: &max}
	assert.Empty(t, s.Validate(5.0))
	assert.NotEmpty(t, s.Validate(0.0))
	assert.NotEmpty(t, s.Validate(11.0))
}

func TestRenderJSON_RoundTripsShape(t *testing.T) {
	s := schema.Object(map[string]*schema.Schema{
		"operation": schema.Enum("append", "replace", "remove").WithDescription("memory op"),
		"content":   schema.Nullish(schema.String()),
	}, "operation")

	rendered := s.RenderJSON()
	assert.Equal(t, "object", rendered["type"])
	assert.Equal(t, []string{"operation"}, rendered["required"])

	props, ok := rendered["properties"].(map[string]any)
	require.True(t, ok)
	op, ok := props["operation"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "memory op", op["description"])
}

func TestCheckRendered_ValidSchemaCompiles(t *testing.T) {
	s := schema.Object(map[string]*schema.Schema{
		"topic": schema.Nullish(schema.String()),
	})
	require.NoError(t, schema.CheckRendered("readMemory", s))
}
