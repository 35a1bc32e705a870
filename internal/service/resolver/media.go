package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"postvault/internal/domain/services"
)

const (
	// DefaultMaxMediaBytes caps a single download
	DefaultMaxMediaBytes = 20 << 20
	// DefaultMediaTimeout bounds a single download
	DefaultMediaTimeout = 30 * time.Second
)

// MediaFetcher downloads media over plain HTTP GET
type MediaFetcher struct {
	httpClient *http.Client
	maxBytes   int64
	log        *slog.Logger
}

var _ services.MediaFetcher = (*MediaFetcher)(nil)

// NewMediaFetcher creates a fetcher. Zero values select the defaults.
func NewMediaFetcher(maxBytes int64, timeout time.Duration, logger *slog.Logger) *MediaFetcher {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxMediaBytes
	}
	if timeout <= 0 {
		timeout = DefaultMediaTimeout
	}
	return &MediaFetcher{
		httpClient: &http.Client{Timeout: timeout},
		maxBytes:   maxBytes,
		log:        logger.With("adapter", "media"),
	}
}

// Fetch returns the body of url. Non-2xx answers, empty bodies and bodies
// above the size cap are errors.
func (f *MediaFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("media: create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("media: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("media: unexpected status %d", resp.StatusCode)
	}
	if resp.ContentLength > f.maxBytes {
		return nil, fmt.Errorf("media: %d bytes exceeds limit of %d", resp.ContentLength, f.maxBytes)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("media: read body: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("media: body exceeds limit of %d bytes", f.maxBytes)
	}
	if len(data) == 0 {
		return nil, errors.New("media: empty body")
	}

	f.log.DebugContext(ctx, "media downloaded",
		slog.String("content_type", resp.Header.Get("Content-Type")),
		slog.Int("bytes", len(data)),
	)
	return data, nil
}
