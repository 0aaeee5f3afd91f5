package schema

import "github.com/Lllllllleong/documentextraction/internal/models"

// IndexDescriptor is a secondary access path over the records table. It is a
// read-path concern only; nothing is enforced at write time.
type IndexDescriptor struct {
	Name   string `json:"name"`
	Field  string `json:"field"`
	Source string `json:"source"`
}

const (
	IndexSourceSystem = "system"
	IndexSourceSchema = "schema"
)

var systemIndexFields = []string{
	models.FieldDocumentName,
	models.FieldUploadTime,
	models.FieldFileHash,
}

// Indexes returns the access paths the infrastructure should provision:
// document name, upload time, file hash (duplicate discovery), and one per
// required schema property.
func Indexes(d *Definition) []IndexDescriptor {
	out := make([]IndexDescriptor, 0, len(systemIndexFields)+d.Len())
	for _, f := range systemIndexFields {
		out = append(out, IndexDescriptor{Name: "by_" + f, Field: f, Source: IndexSourceSystem})
	}
	for _, name := range d.Required() {
		out = append(out, IndexDescriptor{Name: "by_" + name, Field: name, Source: IndexSourceSchema})
	}
	return out
}

// FirestoreIndexField is one field of a composite index.
type FirestoreIndexField struct {
	FieldPath string `json:"fieldPath"`
	Order     string `json:"order"`
}

// FirestoreIndex mirrors an entry of firestore.indexes.json.
type FirestoreIndex struct {
	CollectionGroup string                `json:"collectionGroup"`
	QueryScope      string                `json:"queryScope"`
	Fields          []FirestoreIndexField `json:"fields"`
}

// FirestoreIndexManifest is the document consumed by `firebase deploy
// --only firestore:indexes` and similar tooling.
type FirestoreIndexManifest struct {
	Indexes        []FirestoreIndex `json:"indexes"`
	FieldOverrides []interface{}    `json:"fieldOverrides"`
}

// Manifest turns index descriptors into composite indexes on collection.
// Each access path is paired with upload_time descending so lookups return
// the newest records first. Single-field indexes are automatic in Firestore,
// so upload_time on its own needs no entry.
func Manifest(collection string, descriptors []IndexDescriptor) FirestoreIndexManifest {
	m := FirestoreIndexManifest{
		Indexes:        []FirestoreIndex{},
		FieldOverrides: []interface{}{},
	}
	for _, d := range descriptors {
		if d.Field == models.FieldUploadTime {
			continue
		}
		m.Indexes = append(m.Indexes, FirestoreIndex{
			CollectionGroup: collection,
			QueryScope:      "COLLECTION",
			Fields: []FirestoreIndexField{
				{FieldPath: d.Field, Order: "ASCENDING"},
				{FieldPath: models.FieldUploadTime, Order: "DESCENDING"},
			},
		})
	}
	return m
}
