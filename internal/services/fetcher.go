package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strings"
	"sync"

	"github.com/Lllllllleong/documentextraction/internal/gcp"
	"github.com/Lllllllleong/documentextraction/internal/models"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/sync/errgroup"
)

const genericContentType = "application/octet-stream"

var pdfMagic = []byte("%PDF-")

// ObjectReader reads a whole object from the bucket.
type ObjectReader interface {
	ReadObject(ctx context.Context, bucket, name string, maxBytes int64) (*gcp.Object, error)
}

// FetchedDocument is the uploaded object plus the facts derived from its bytes.
type FetchedDocument struct {
	Bytes       []byte
	ContentType string
	SizeBytes   int64
	SHA256Hash  string
	// Generation is the object generation that was read, 0 when unknown.
	Generation int64
	// PageCount is nil unless the document is a PDF whose pages could be counted.
	PageCount *int
}

// Fetcher downloads uploaded documents and describes them.
type Fetcher struct {
	reader   ObjectReader
	maxBytes int64
}

func NewFetcher(reader ObjectReader, maxBytes int64) *Fetcher {
	return &Fetcher{reader: reader, maxBytes: maxBytes}
}

// Fetch reads the object named by evt. Any read failure is an ErrFetch.
func (f *Fetcher) Fetch(ctx context.Context, logCtx *slog.Logger, evt models.DocumentEvent) (*FetchedDocument, error) {
	obj, err := f.reader.ReadObject(ctx, evt.Bucket, evt.ObjectKey, f.maxBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	doc := describeDocument(logCtx, evt.ObjectKey, obj.Data, obj.ContentType)
	doc.Generation = obj.Generation
	return doc, nil
}

// describeDocument hashes the bytes and, for PDFs, counts pages. Both run
// concurrently; a page count failure is logged and leaves PageCount nil.
func describeDocument(logCtx *slog.Logger, name string, data []byte, declaredType string) *FetchedDocument {
	doc := &FetchedDocument{
		Bytes:       data,
		SizeBytes:   int64(len(data)),
		ContentType: resolveContentType(name, declaredType, data),
	}

	var (
		eg    errgroup.Group
		pages int
	)
	eg.Go(func() error {
		doc.SHA256Hash = calculateHash(data)
		return nil
	})
	if isPDF(doc.ContentType, data) {
		eg.Go(func() error {
			var err error
			pages, err = countPages(data)
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		logCtx.Warn("Could not determine page count. Omitting it.", "error", err)
	} else if pages > 0 {
		doc.PageCount = &pages
	}
	return doc
}

func calculateHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// resolveContentType prefers the declared type, then the file extension,
// then content sniffing.
func resolveContentType(name, declared string, data []byte) string {
	if ct := strings.TrimSpace(declared); ct != "" && !strings.EqualFold(ct, genericContentType) {
		return ct
	}
	if byExt := mediaType(mime.TypeByExtension(strings.ToLower(path.Ext(name)))); byExt != "" && byExt != genericContentType {
		return byExt
	}
	if len(data) > 0 {
		if sniffed := mediaType(http.DetectContentType(data)); sniffed != genericContentType {
			return sniffed
		}
	}
	return genericContentType
}

// mediaType strips parameters such as charset from a content type.
func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	}
	return mt
}

func isPDF(contentType string, data []byte) bool {
	return strings.Contains(strings.ToLower(contentType), "pdf") || bytes.HasPrefix(data, pdfMagic)
}

var disablePDFConfigDir sync.Once

// countPages parses the PDF in relaxed mode. The parser can panic on
// malformed input, so panics become errors.
func countPages(data []byte) (pages int, err error) {
	disablePDFConfigDir.Do(api.DisableConfigDir)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parser panicked: %v", r)
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	pages, err = api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		return 0, fmt.Errorf("api.PageCount: %w", err)
	}
	if pages <= 0 {
		return 0, fmt.Errorf("document reports %d pages", pages)
	}
	return pages, nil
}
