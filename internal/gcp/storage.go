package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

var (
	// ErrObjectNotFound is returned when the referenced object does not exist.
	ErrObjectNotFound = errors.New("object not found")
	// ErrObjectTooLarge is returned when the object exceeds the read limit.
	ErrObjectTooLarge = errors.New("object too large")
)

// Object is a fully read Cloud Storage object.
type Object struct {
	Data        []byte
	ContentType string
	Generation  int64
}

// GCSReader reads whole objects from Cloud Storage.
type GCSReader struct {
	client *storage.Client
}

// NewGCSReader creates a reader with its own storage client.
func NewGCSReader(ctx context.Context) (*GCSReader, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSReader{client: client}, nil
}

// ReadObject returns the bytes and content type of gs://bucket/name. Objects
// larger than maxBytes are rejected before their body is read.
func (r *GCSReader) ReadObject(ctx context.Context, bucket, name string, maxBytes int64) (*Object, error) {
	gcsReader, err := r.client.Bucket(bucket).Object(name).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			return nil, fmt.Errorf("gs://%s/%s: %w", bucket, name, ErrObjectNotFound)
		}
		return nil, fmt.Errorf("failed to get GCS object reader for gs://%s/%s: %w", bucket, name, err)
	}
	defer gcsReader.Close()

	if maxBytes > 0 && gcsReader.Attrs.Size > maxBytes {
		return nil, fmt.Errorf("gs://%s/%s is %d bytes, limit is %d: %w", bucket, name, gcsReader.Attrs.Size, maxBytes, ErrObjectTooLarge)
	}

	var body io.Reader = gcsReader
	if maxBytes > 0 {
		body = io.LimitReader(gcsReader, maxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read GCS object gs://%s/%s: %w", bucket, name, err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("gs://%s/%s exceeds %d bytes: %w", bucket, name, maxBytes, ErrObjectTooLarge)
	}

	return &Object{
		Data:        data,
		ContentType: gcsReader.Attrs.ContentType,
		Generation:  gcsReader.Attrs.Generation,
	}, nil
}

// Close releases the storage client.
func (r *GCSReader) Close() error {
	return r.client.Close()
}

// HTTPStatus returns the HTTP status code carried by a Google API error, or 0.
func HTTPStatus(err error) int {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	return 0
}
