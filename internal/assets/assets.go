// Package assets bundles the default extraction schema and prompt template
// with the function binary. Deployments override them with SCHEMA_FILE and
// PROMPT_FILE.
package assets

import _ "embed"

//go:embed schema.json
var DefaultSchema []byte

//go:embed prompt.txt
var DefaultPrompt string
