package services

import (
	"testing"
	"time"

	"github.com/Lllllllleong/documentextraction/internal/models"
)

func TestBuildRecord(t *testing.T) {
	uploaded := time.Date(2024, 3, 1, 9, 30, 0, 0, time.FixedZone("CET", 3600))
	processed := time.Date(2024, 3, 1, 9, 31, 0, 0, time.UTC)
	pages := 4

	evt := models.DocumentEvent{Bucket: "inbox", ObjectKey: "2024/contract.pdf", EventTime: uploaded}
	doc := &FetchedDocument{ContentType: "application/pdf", SizeBytes: 1200, SHA256Hash: "h", PageCount: &pages}
	result := &ExtractionResult{Values: map[string]interface{}{"summary": "s", "is_signed": "false"}, Status: StatusValid}

	rec := BuildRecord(evt, doc, result, "rec-1", processed)

	if rec.ID != "rec-1" || rec.DocumentName != "2024/contract.pdf" || rec.Bucket != "inbox" {
		t.Errorf("identity fields = %+v", rec)
	}
	if rec.DocumentURL != "gs://inbox/2024/contract.pdf" {
		t.Errorf("DocumentURL = %s", rec.DocumentURL)
	}
	if !rec.UploadTime.Equal(uploaded) || rec.UploadTime.Location() != time.UTC {
		t.Errorf("UploadTime = %v, want %v in UTC", rec.UploadTime, uploaded)
	}
	if !rec.ProcessingTime.Equal(processed) {
		t.Errorf("ProcessingTime = %v", rec.ProcessingTime)
	}
	if rec.FileHash != "h" || rec.FileSize != 1200 || rec.ContentType != "application/pdf" {
		t.Errorf("document fields = %+v", rec)
	}
	if rec.PageCount == nil || *rec.PageCount != 4 {
		t.Errorf("PageCount = %v", rec.PageCount)
	}

	fields := rec.Fields()
	if fields["is_signed"] != "false" || fields["summary"] != "s" {
		t.Errorf("properties not merged: %v", fields)
	}

	result.Values["summary"] = "changed"
	if rec.Properties["summary"] != "s" {
		t.Error("record shares its property map with the result")
	}
}

func TestBuildRecordWithoutEventTime(t *testing.T) {
	processed := time.Date(2024, 3, 1, 9, 31, 0, 0, time.UTC)
	rec := BuildRecord(
		models.DocumentEvent{Bucket: "b", ObjectKey: "k.txt"},
		&FetchedDocument{ContentType: "text/plain"},
		&ExtractionResult{Values: map[string]interface{}{}},
		"id", processed,
	)
	if !rec.UploadTime.Equal(processed) {
		t.Errorf("UploadTime = %v, want processing time", rec.UploadTime)
	}
	if _, ok := rec.Fields()[models.FieldPageCount]; ok {
		t.Error("page_count present for a document without pages")
	}
}
