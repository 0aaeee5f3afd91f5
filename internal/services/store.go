package services

import (
	"context"

	"github.com/Lllllllleong/documentextraction/internal/models"
)

// duplicateLookupLimit caps how many earlier records with the same hash are logged.
const duplicateLookupLimit = 5

// RecordStore persists document records.
type RecordStore interface {
	// Insert creates rec. It must fail rather than overwrite an existing record.
	Insert(ctx context.Context, rec models.DocumentRecord) error
	// FindByHash returns the IDs of up to limit records with the given file hash.
	FindByHash(ctx context.Context, fileHash string, limit int) ([]string, error)
}
