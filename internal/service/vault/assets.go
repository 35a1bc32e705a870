package vault

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"postvault/internal/domain"
	"postvault/internal/domain/models"
	"postvault/internal/domain/repositories"
)

// AssetStore writes binary assets at deterministic paths. Writing the same
// path twice is a no-op, so a retried request never duplicates an upload.
type AssetStore struct {
	store       repositories.ContentStore
	callTimeout time.Duration
	log         *slog.Logger
}

// NewAssetStore wraps store
func NewAssetStore(store repositories.ContentStore, callTimeout time.Duration, logger *slog.Logger) *AssetStore {
	return &AssetStore{
		store:       store,
		callTimeout: callTimeout,
		log:         logger.With("component", "assets"),
	}
}

// Loader produces the bytes of an asset. It is only called when the asset is
// not stored yet.
type Loader func(ctx context.Context) ([]byte, error)

// Put stores the asset loaded by load at path unless something is already
// there. uploaded is false when the object existed or a concurrent writer
// created it first.
func (a *AssetStore) Put(ctx context.Context, path string, load Loader, message string) (uploaded bool, err error) {
	exists, err := a.Exists(ctx, path)
	if err != nil {
		return false, err
	}
	if exists {
		a.log.DebugContext(ctx, "asset already stored, skipping download", slog.String("path", path))
		return false, nil
	}

	data, err := load(ctx)
	if err != nil {
		return false, err
	}
	return a.Create(ctx, path, data, message)
}

// Create writes data at path only if the path is still free. Losing the
// create race to another writer is not an error: the path is deterministic,
// so the winner stored the same asset.
func (a *AssetStore) Create(ctx context.Context, path string, data []byte, message string) (bool, error) {
	if path == "" {
		return false, &domain.ValidationError{Field: "path", Message: "empty asset path"}
	}

	callCtx, cancel := context.WithTimeout(ctx, a.callTimeout)
	defer cancel()

	_, err := a.store.Put(callCtx, repositories.PutRequest{
		Path:    path,
		Content: data,
		Message: message,
		Version: models.NoVersion,
	})
	if errors.Is(err, domain.ErrVersionConflict) {
		a.log.InfoContext(ctx, "asset created concurrently", slog.String("path", path))
		return false, nil
	}
	if err != nil {
		return false, err
	}

	a.log.InfoContext(ctx, "asset stored", slog.String("path", path), slog.Int("bytes", len(data)))
	return true, nil
}

// Exists reports whether an object is stored at path
func (a *AssetStore) Exists(ctx context.Context, path string) (bool, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.callTimeout)
	defer cancel()

	_, err := a.store.Get(callCtx, path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrObjectNotFound):
		return false, nil
	default:
		return false, err
	}
}
