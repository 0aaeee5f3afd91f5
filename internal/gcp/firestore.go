package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/Lllllllleong/documentextraction/internal/models"
	"google.golang.org/api/iterator"
)

// NewFirestoreClient creates and returns a new Firestore client for the given project ID.
func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return client, nil
}

// FirestoreRecords stores document records as flat documents in one collection.
type FirestoreRecords struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreRecords wraps client for the given collection.
func NewFirestoreRecords(client *firestore.Client, collection string) *FirestoreRecords {
	return &FirestoreRecords{client: client, collection: collection}
}

// Insert creates a new document keyed by the record ID. It never overwrites:
// every call is expected to carry a fresh ID.
func (s *FirestoreRecords) Insert(ctx context.Context, rec models.DocumentRecord) error {
	_, err := s.client.Collection(s.collection).Doc(rec.ID).Create(ctx, rec.Fields())
	if err != nil {
		return fmt.Errorf("failed to create record %s in %s: %w", rec.ID, s.collection, err)
	}
	return nil
}

// FindByHash returns the IDs of up to limit records with the given file hash.
func (s *FirestoreRecords) FindByHash(ctx context.Context, fileHash string, limit int) ([]string, error) {
	it := s.client.Collection(s.collection).
		Where(models.FieldFileHash, "==", fileHash).
		Limit(limit).
		Documents(ctx)
	defer it.Stop()

	var ids []string
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query for duplicates: %w", err)
		}
		ids = append(ids, doc.Ref.ID)
	}
	return ids, nil
}

// Close releases the Firestore client.
func (s *FirestoreRecords) Close() error {
	return s.client.Close()
}
