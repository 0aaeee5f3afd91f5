// Command index-manifest prints the Firestore index definitions and the
// record data contract derived from a schema file.
//
//	index-manifest -collection documents > firestore.indexes.json
//	index-manifest -format contract -schema schema.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Lllllllleong/documentextraction/internal/assets"
	"github.com/Lllllllleong/documentextraction/internal/gcp"
	"github.com/Lllllllleong/documentextraction/internal/models"
	"github.com/Lllllllleong/documentextraction/internal/schema"
)

// contract is the record layout published to downstream consumers.
type contract struct {
	SystemFieldsVersion int                      `json:"systemFieldsVersion"`
	SystemFields        []models.FieldSpec       `json:"systemFields"`
	Properties          []contractProperty       `json:"properties"`
	Indexes             []schema.IndexDescriptor `json:"indexes"`
}

type contractProperty struct {
	Name     string      `json:"name"`
	Type     schema.Type `json:"type"`
	Stored   string      `json:"storedAs"`
	Required bool        `json:"required"`
}

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	schemaFile := flag.String("schema", gcp.GetEnv("SCHEMA_FILE", ""), "schema file (defaults to the bundled schema)")
	collection := flag.String("collection", gcp.GetEnv("RECORDS_COLLECTION", "documents"), "Firestore collection holding the records")
	format := flag.String("format", "firestore", "output format: firestore or contract")
	flag.Parse()

	if err := run(os.Stdout, *schemaFile, *collection, *format); err != nil {
		slog.Error("index-manifest failed", "error", err)
		os.Exit(1)
	}
}

func run(w io.Writer, schemaFile, collection, format string) error {
	var def *schema.Definition
	var err error
	if schemaFile != "" {
		def, err = schema.Load(schemaFile)
	} else {
		def, err = schema.Parse(assets.DefaultSchema)
	}
	if err != nil {
		return err
	}

	var out interface{}
	switch format {
	case "firestore":
		out = schema.Manifest(collection, schema.Indexes(def))
	case "contract":
		out = buildContract(def)
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func buildContract(def *schema.Definition) contract {
	c := contract{
		SystemFieldsVersion: models.SystemFieldsVersion,
		SystemFields:        models.SystemFields,
		Indexes:             schema.Indexes(def),
	}
	for _, p := range def.Properties() {
		c.Properties = append(c.Properties, contractProperty{
			Name:     p.Name,
			Type:     p.Type,
			Stored:   storedAs(p.Type),
			Required: p.Required,
		})
	}
	return c
}

func storedAs(t schema.Type) string {
	switch t {
	case schema.TypeNumber, schema.TypeInteger:
		return string(t)
	default:
		return string(schema.TypeString)
	}
}
