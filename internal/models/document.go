package models

import "time"

// Names of the system attributes written on every record. Schema properties
// may not reuse any of them.
const (
	FieldID             = "id"
	FieldDocumentName   = "document_name"
	FieldDocumentURL    = "document_url"
	FieldBucket         = "bucket"
	FieldUploadTime     = "upload_time"
	FieldProcessingTime = "processing_time"
	FieldFileHash       = "file_hash"
	FieldFileSize       = "file_size"
	FieldContentType    = "content_type"
	FieldPageCount      = "page_count"
)

// SystemFieldsVersion is bumped whenever SystemFields changes shape.
const SystemFieldsVersion = 1

// FieldSpec describes one system attribute of the persisted record.
type FieldSpec struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Optional bool   `json:"optional,omitempty"`
}

// SystemFields is the data contract for the attributes the pipeline writes
// besides the extracted properties. Tooling reads this instead of the source.
var SystemFields = []FieldSpec{
	{Name: FieldID, Type: "string"},
	{Name: FieldDocumentName, Type: "string"},
	{Name: FieldDocumentURL, Type: "string"},
	{Name: FieldBucket, Type: "string"},
	{Name: FieldUploadTime, Type: "timestamp"},
	{Name: FieldProcessingTime, Type: "timestamp"},
	{Name: FieldFileHash, Type: "string"},
	{Name: FieldFileSize, Type: "integer"},
	{Name: FieldContentType, Type: "string"},
	{Name: FieldPageCount, Type: "integer", Optional: true},
}

// IsSystemField reports whether name is reserved for a system attribute.
func IsSystemField(name string) bool {
	for _, f := range SystemFields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// DocumentRecord is one extraction result as stored in Firestore.
// A new record (with a new ID) is created for every successful attempt.
type DocumentRecord struct {
	ID             string
	DocumentName   string
	DocumentURL    string
	Bucket         string
	UploadTime     time.Time
	ProcessingTime time.Time
	FileHash       string
	FileSize       int64
	ContentType    string
	PageCount      *int

	// Properties holds the validated schema properties, already coerced to
	// their storage representation.
	Properties map[string]interface{}
}

// Fields flattens the record into the attribute map written to the table.
// page_count is only present when known.
func (r DocumentRecord) Fields() map[string]interface{} {
	fields := make(map[string]interface{}, len(SystemFields)+len(r.Properties))
	for name, value := range r.Properties {
		fields[name] = value
	}
	fields[FieldID] = r.ID
	fields[FieldDocumentName] = r.DocumentName
	fields[FieldDocumentURL] = r.DocumentURL
	fields[FieldBucket] = r.Bucket
	fields[FieldUploadTime] = r.UploadTime
	fields[FieldProcessingTime] = r.ProcessingTime
	fields[FieldFileHash] = r.FileHash
	fields[FieldFileSize] = r.FileSize
	fields[FieldContentType] = r.ContentType
	if r.PageCount != nil {
		fields[FieldPageCount] = int64(*r.PageCount)
	}
	return fields
}
