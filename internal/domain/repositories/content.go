package repositories

import (
	"context"

	"postvault/internal/domain/models"
)

// PutRequest is a conditional write of a whole object
type PutRequest struct {
	Path    string
	Content []byte
	Message string // commit message for versioned backends
	// Version is the version the writer last observed. NoVersion means the
	// object must not exist yet.
	Version models.Version
}

// ContentStore is a version-controlled object store addressed by path.
// Implementations must never silently overwrite: a Put whose Version does not
// match the stored one fails with an error matching domain.ErrVersionConflict.
type ContentStore interface {
	// Get returns the object at path, or domain.ErrObjectNotFound
	Get(ctx context.Context, path string) (*models.DocumentState, error)

	// Put writes the object if its version still matches and returns the new version
	Put(ctx context.Context, req PutRequest) (models.Version, error)
}
