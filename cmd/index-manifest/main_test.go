package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/Lllllllleong/documentextraction/internal/models"
	"github.com/Lllllllleong/documentextraction/internal/schema"
)

func TestRunFirestore(t *testing.T) {
	var out bytes.Buffer
	if err := run(&out, "", "records", "firestore"); err != nil {
		t.Fatalf("run: %v", err)
	}
	var m schema.FirestoreIndexManifest
	if err := json.Unmarshal(out.Bytes(), &m); err != nil {
		t.Fatalf("output is not a manifest: %v\n%s", err, out.String())
	}
	if len(m.Indexes) == 0 {
		t.Fatal("no indexes")
	}
	for _, idx := range m.Indexes {
		if idx.CollectionGroup != "records" {
			t.Errorf("collection group = %s", idx.CollectionGroup)
		}
	}
}

func TestRunContract(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.json")
	doc := `{"amount": {"type": "number", "description": "a", "required": true}, "flag": {"type": "boolean", "description": "f"}}`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := run(&out, path, "records", "contract"); err != nil {
		t.Fatalf("run: %v", err)
	}
	var c contract
	if err := json.Unmarshal(out.Bytes(), &c); err != nil {
		t.Fatalf("output is not a contract: %v", err)
	}
	if c.SystemFieldsVersion != models.SystemFieldsVersion || len(c.SystemFields) != len(models.SystemFields) {
		t.Errorf("system fields = v%d, %d fields", c.SystemFieldsVersion, len(c.SystemFields))
	}
	if len(c.Properties) != 2 || c.Properties[1].Stored != "string" || !c.Properties[0].Required {
		t.Errorf("properties = %+v", c.Properties)
	}
	if last := c.Indexes[len(c.Indexes)-1]; last.Field != "amount" {
		t.Errorf("last index = %+v, want the required property", last)
	}
}

func TestRunRejectsUnknownFormat(t *testing.T) {
	if err := run(&bytes.Buffer{}, "", "records", "yaml"); err == nil {
		t.Error("unknown format accepted")
	}
}
