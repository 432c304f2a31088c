package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// CheckRendered compiles s's RenderJSON output through a real JSON Schema
// implementation and reports an error if the provider-facing shape is not
// well-formed JSON Schema. The engine's own Validate/RenderJSON stay
// dependency-free (see package doc); this is only an auxiliary sanity check,
// run by tool/builtin.NewCatalog for each descriptor it registers, not on the
// hot validation path.
func CheckRendered(name string, s *Schema) error {
	rendered := s.RenderJSON()
	rendered["$schema"] = "https://json-schema.org/draft/2020-12/schema"
	raw, err := json.Marshal(rendered)
	if err != nil {
		return fmt.Errorf("schema %q: marshal rendered schema: %w", name, err)
	}

	compiler := jsonschema.NewCompiler()
	resourceName := name + ".json"
	unmarshalled, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("schema %q: unmarshal rendered schema: %w", name, err)
	}
	if err := compiler.AddResource(resourceName, unmarshalled); err != nil {
		return fmt.Errorf("schema %q: add resource: %w", name, err)
	}
	if _, err := compiler.Compile(resourceName); err != nil {
		return fmt.Errorf("schema %q: invalid JSON Schema: %w", name, err)
	}
	return nil
}
