package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BooleanValues are the only storage values of a boolean property. Booleans
// are persisted as strings so the table keeps to string and number attributes.
var BooleanValues = []string{"true", "false"}

// ValueSchema returns the JSON-Schema of a coerced property map, i.e. the
// storage representation rather than the model's answer.
func (d *Definition) ValueSchema() map[string]any {
	props := make(map[string]any, len(d.properties))
	for _, p := range d.properties {
		switch p.Type {
		case TypeNumber:
			props[p.Name] = map[string]any{"type": "number"}
		case TypeInteger:
			props[p.Name] = map[string]any{"type": "integer"}
		case TypeBoolean:
			props[p.Name] = map[string]any{"type": "string", "enum": BooleanValues}
		default:
			props[p.Name] = map[string]any{"type": "string"}
		}
	}
	required := d.Required()
	if required == nil {
		required = []string{}
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}

func compileValueSchema(d *Definition) (*jsonschema.Schema, error) {
	b, err := json.Marshal(d.ValueSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal value schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("values.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add value schema: %w", err)
	}
	s, err := compiler.Compile("values.json")
	if err != nil {
		return nil, fmt.Errorf("compile value schema: %w", err)
	}
	return s, nil
}

// CheckValues validates coerced property values against ValueSchema.
func (d *Definition) CheckValues(values map[string]interface{}) error {
	b, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("marshal values: %w", err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("unmarshal values: %w", err)
	}
	if err := d.values.Validate(v); err != nil {
		return fmt.Errorf("values do not match schema: %w", err)
	}
	return nil
}
