package schema

import (
	"bytes"
	"encoding/json"
)

type renderedProperty struct {
	Type          Type   `json:"type"`
	Description   string `json:"description"`
	Required      bool   `json:"required"`
	AlwaysInclude bool   `json:"alwaysInclude"`
}

// Render returns the definition as indented JSON in document order. The
// output is deterministic and is what gets substituted into the prompt.
func (d *Definition) Render() string {
	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, p := range d.properties {
		key, _ := json.Marshal(p.Name)
		body, _ := json.MarshalIndent(renderedProperty{
			Type:          p.Type,
			Description:   p.Description,
			Required:      p.Required,
			AlwaysInclude: p.AlwaysInclude,
		}, "  ", "  ")
		buf.WriteString("  ")
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(body)
		if i < len(d.properties)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}")
	return buf.String()
}
