// Package schema loads the declarative description of the properties the
// model is asked to extract from each document.
//
// A Definition is parsed once per process and never modified afterwards, so
// it can be shared by concurrent invocations without locking.
package schema

import (
	"errors"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalidSchema is returned for any schema document that cannot be used.
var ErrInvalidSchema = errors.New("invalid schema")

// Type is the declared JSON type of a property.
type Type string

const (
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeInteger Type = "integer"
	TypeBoolean Type = "boolean"
)

// Property describes one extractable property.
type Property struct {
	Name          string
	Type          Type
	Description   string
	Required      bool
	AlwaysInclude bool
}

// Definition is the ordered, immutable set of properties.
type Definition struct {
	properties []Property
	index      map[string]int
	values     *jsonschema.Schema
}

// Properties returns the properties in document order.
func (d *Definition) Properties() []Property {
	out := make([]Property, len(d.properties))
	copy(out, d.properties)
	return out
}

// Lookup returns the property with the given name.
func (d *Definition) Lookup(name string) (Property, bool) {
	i, ok := d.index[name]
	if !ok {
		return Property{}, false
	}
	return d.properties[i], true
}

// Required returns the names of required properties in document order.
func (d *Definition) Required() []string {
	var names []string
	for _, p := range d.properties {
		if p.Required {
			names = append(names, p.Name)
		}
	}
	return names
}

// Len returns the number of properties.
func (d *Definition) Len() int {
	return len(d.properties)
}
