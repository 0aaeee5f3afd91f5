package services

import (
	"fmt"
	"strings"

	"github.com/Lllllllleong/documentextraction/internal/schema"
)

// SchemaPlaceholder marks where the rendered property definitions go.
const SchemaPlaceholder = "{schema}"

// ComposePrompt substitutes every placeholder in template with the rendered
// definition. A template without the placeholder is an ErrTemplate.
func ComposePrompt(template string, def *schema.Definition) (string, error) {
	if !strings.Contains(template, SchemaPlaceholder) {
		return "", fmt.Errorf("%w: template does not contain %s", ErrTemplate, SchemaPlaceholder)
	}
	return strings.ReplaceAll(template, SchemaPlaceholder, def.Render()), nil
}
