package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/Lllllllleong/documentextraction/internal/gcp"
	"github.com/Lllllllleong/documentextraction/internal/models"
	"github.com/Lllllllleong/documentextraction/internal/schema"
)

const testSchema = `{
  "document_type": {"type": "string",  "description": "Kind of document", "required": true, "alwaysInclude": true},
  "total_amount":  {"type": "number",  "description": "Total amount"},
  "line_items":    {"type": "integer", "description": "Number of line items"},
  "is_signed":     {"type": "boolean", "description": "Whether the document is signed"},
  "summary":       {"type": "string",  "description": "One sentence summary", "required": true}
}`

func testDefinition(t *testing.T) *schema.Definition {
	t.Helper()
	def, err := schema.Parse([]byte(testSchema))
	if err != nil {
		t.Fatalf("schema.Parse: %v", err)
	}
	return def
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

type fakeReader struct {
	objects map[string]*gcp.Object
	err     error
}

func (r *fakeReader) ReadObject(_ context.Context, bucket, name string, maxBytes int64) (*gcp.Object, error) {
	if r.err != nil {
		return nil, r.err
	}
	obj, ok := r.objects[bucket+"/"+name]
	if !ok {
		return nil, fmt.Errorf("gs://%s/%s: %w", bucket, name, gcp.ErrObjectNotFound)
	}
	if maxBytes > 0 && int64(len(obj.Data)) > maxBytes {
		return nil, gcp.ErrObjectTooLarge
	}
	return obj, nil
}

type fakeExtractor struct {
	mu       sync.Mutex
	answer   string
	err      error
	block    bool
	requests []ExtractionRequest
}

func (x *fakeExtractor) Extract(ctx context.Context, _ *slog.Logger, req ExtractionRequest) (string, error) {
	x.mu.Lock()
	x.requests = append(x.requests, req)
	x.mu.Unlock()
	if x.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return x.answer, x.err
}

type fakeStore struct {
	mu        sync.Mutex
	records   []models.DocumentRecord
	insertErr error
	findErr   error
	findCalls int
}

func (s *fakeStore) Insert(_ context.Context, rec models.DocumentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	for _, r := range s.records {
		if r.ID == rec.ID {
			return fmt.Errorf("record %s already exists", rec.ID)
		}
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *fakeStore) FindByHash(_ context.Context, fileHash string, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findCalls++
	if s.findErr != nil {
		return nil, s.findErr
	}
	var ids []string
	for _, r := range s.records {
		if r.FileHash == fileHash && len(ids) < limit {
			ids = append(ids, r.ID)
		}
	}
	return ids, nil
}

// buildPDF returns a well-formed PDF with the given number of empty pages.
func buildPDF(pages int) []byte {
	var objects []string
	kids := ""
	for i := 0; i < pages; i++ {
		kids += fmt.Sprintf("%d 0 R ", 4+i)
	}
	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, pages),
		"<< /Length 0 >>\nstream\n\nendstream",
	)
	for i := 0; i < pages; i++ {
		objects = append(objects, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> /Contents 3 0 R >>")
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, body := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f\r\n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n\r\n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}
