package tools

import (
	"bytes"
	"encoding/json"
	"fmt"

	invopop "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// SchemaFor reflects a Go input struct into a JSON schema map.
// Fields without `omitempty` are required; descriptions come from
// `jsonschema:"description=..."` tags.
func SchemaFor(v any) map[string]any {
	r := &invopop.Reflector{
		ExpandedStruct:            true,
		DoNotReference:            true,
		AllowAdditionalProperties: true,
	}
	data, err := json.Marshal(r.Reflect(v))
	if err != nil {
		return EmptySchema()
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return EmptySchema()
	}
	delete(m, "$schema")
	delete(m, "$id")
	if _, ok := m["properties"]; !ok {
		m["properties"] = map[string]any{}
	}
	if _, ok := m["required"]; !ok {
		m["required"] = []any{}
	}
	return m
}

// CompileSchema compiles a tool's input schema for validation.
func CompileSchema(name string, schema map[string]any) (InputValidator, error) {
	if len(schema) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("schema for %s is not serializable: %w", name, err)
	}

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	url := fmt.Sprintf("https://toolforge.local/tools/%s.schema.json", name)
	if err := c.AddResource(url, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("schema load failed for %s: %w", name, err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("schema compile failed for %s: %w", name, err)
	}
	return compiled, nil
}
