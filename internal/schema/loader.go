package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/Lllllllleong/documentextraction/internal/models"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed contract.json
var contractJSON []byte

var (
	contractOnce   sync.Once
	contractSchema *jsonschema.Schema
	contractErr    error
)

// contract compiles the JSON-Schema every schema document must satisfy.
func contract() (*jsonschema.Schema, error) {
	contractOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("contract.json", bytes.NewReader(contractJSON)); err != nil {
			contractErr = fmt.Errorf("add contract: %w", err)
			return
		}
		contractSchema, contractErr = compiler.Compile("contract.json")
	})
	return contractSchema, contractErr
}

// propertySpec is the on-disk shape of one property.
type propertySpec struct {
	Type          Type   `json:"type"`
	Description   string `json:"description"`
	Required      bool   `json:"required"`
	AlwaysInclude bool   `json:"alwaysInclude"`
}

// Load reads and parses the schema document at path.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file %s: %w", path, err)
	}
	def, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// Parse validates a schema document and returns its Definition. Property
// order follows the order of keys in the document.
func Parse(data []byte) (*Definition, error) {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidSchema, err)
	}
	c, err := contract()
	if err != nil {
		return nil, err
	}
	if err := c.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}

	names, err := orderedKeys(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	var specs map[string]propertySpec
	if err := json.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("%w: decode properties: %v", ErrInvalidSchema, err)
	}

	def := &Definition{index: make(map[string]int, len(names))}
	for _, name := range names {
		if models.IsSystemField(name) {
			return nil, fmt.Errorf("%w: property %q collides with a system field", ErrInvalidSchema, name)
		}
		if strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__") {
			return nil, fmt.Errorf("%w: property %q uses a reserved name", ErrInvalidSchema, name)
		}
		spec := specs[name]
		def.index[name] = len(def.properties)
		def.properties = append(def.properties, Property{
			Name:          name,
			Type:          spec.Type,
			Description:   strings.TrimSpace(spec.Description),
			Required:      spec.Required,
			AlwaysInclude: spec.AlwaysInclude,
		})
	}

	def.values, err = compileValueSchema(def)
	if err != nil {
		return nil, err
	}
	return def, nil
}

// orderedKeys returns the top-level keys of a JSON object in document order.
func orderedKeys(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("schema must be a JSON object")
	}

	seen := make(map[string]bool)
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		if seen[key] {
			return nil, fmt.Errorf("duplicate property %q", key)
		}
		seen[key] = true
		keys = append(keys, key)

		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}
