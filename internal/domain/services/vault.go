package services

import (
	"context"

	"postvault/internal/domain/models"
)

// PostResolver looks a post up by its URL through a read-only external service
type PostResolver interface {
	// Resolve fails with ErrInvalidInput for URLs it does not recognise,
	// ErrPostUnavailable when the post is gone or private and
	// ErrUpstreamUnreachable for transport failures.
	Resolve(ctx context.Context, rawURL string) (*models.Post, error)
}

// MediaFetcher downloads the bytes of a media item
type MediaFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Committer records a post into the vault
type Committer interface {
	Commit(ctx context.Context, req *models.AddEntryRequest) (*models.CommitResult, error)
}

// CommitterProvider hands out a Committer bound to the credentials of the
// request carried by ctx
type CommitterProvider interface {
	Committer(ctx context.Context) (Committer, error)
}
