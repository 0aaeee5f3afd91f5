package schema

import (
	"reflect"
	"testing"

	"github.com/Lllllllleong/documentextraction/internal/models"
)

func TestIndexes(t *testing.T) {
	def, err := Parse([]byte(invoiceSchema))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	got := Indexes(def)
	want := []IndexDescriptor{
		{Name: "by_document_name", Field: models.FieldDocumentName, Source: IndexSourceSystem},
		{Name: "by_upload_time", Field: models.FieldUploadTime, Source: IndexSourceSystem},
		{Name: "by_file_hash", Field: models.FieldFileHash, Source: IndexSourceSystem},
		{Name: "by_vendor", Field: "vendor", Source: IndexSourceSchema},
		{Name: "by_total", Field: "total", Source: IndexSourceSchema},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Indexes() =\n%+v\nwant\n%+v", got, want)
	}
}

func TestManifest(t *testing.T) {
	def, err := Parse([]byte(invoiceSchema))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	m := Manifest("records", Indexes(def))
	if len(m.Indexes) != 4 {
		t.Fatalf("got %d composite indexes, want 4 (upload_time needs none)", len(m.Indexes))
	}
	if m.FieldOverrides == nil {
		t.Error("FieldOverrides must encode as an empty array, not null")
	}
	for _, idx := range m.Indexes {
		if idx.CollectionGroup != "records" || idx.QueryScope != "COLLECTION" {
			t.Errorf("index scope = %s/%s", idx.CollectionGroup, idx.QueryScope)
		}
		if len(idx.Fields) != 2 {
			t.Fatalf("index has %d fields, want 2", len(idx.Fields))
		}
		last := idx.Fields[1]
		if last.FieldPath != models.FieldUploadTime || last.Order != "DESCENDING" {
			t.Errorf("second field = %+v, want upload_time DESCENDING", last)
		}
	}
	if first := m.Indexes[0].Fields[0]; first.FieldPath != models.FieldDocumentName {
		t.Errorf("first index on %s, want %s", first.FieldPath, models.FieldDocumentName)
	}
}
