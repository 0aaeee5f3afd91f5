package services

import (
	"fmt"
	"time"

	"github.com/Lllllllleong/documentextraction/internal/models"
)

// BuildRecord assembles the stored record from the event, the fetched
// document and the validated values. Without an event time the processing
// time is used as upload time.
func BuildRecord(evt models.DocumentEvent, doc *FetchedDocument, result *ExtractionResult, id string, processedAt time.Time) models.DocumentRecord {
	uploadTime := evt.EventTime
	if uploadTime.IsZero() {
		uploadTime = processedAt
	}
	props := make(map[string]interface{}, len(result.Values))
	for name, value := range result.Values {
		props[name] = value
	}
	return models.DocumentRecord{
		ID:             id,
		DocumentName:   evt.ObjectKey,
		DocumentURL:    DocumentURL(evt.Bucket, evt.ObjectKey),
		Bucket:         evt.Bucket,
		UploadTime:     uploadTime.UTC(),
		ProcessingTime: processedAt.UTC(),
		FileHash:       doc.SHA256Hash,
		FileSize:       doc.SizeBytes,
		ContentType:    doc.ContentType,
		PageCount:      doc.PageCount,
		Properties:     props,
	}
}

// DocumentURL is the gs:// URI of an object.
func DocumentURL(bucket, key string) string {
	return fmt.Sprintf("gs://%s/%s", bucket, key)
}
