// Package resolver turns post URLs into resolved posts through a read-only
// lookup service and downloads their media.
package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"postvault/internal/domain"
	"postvault/internal/domain/models"
	"postvault/internal/domain/services"
)

const (
	// DefaultBaseURL is the public vxtwitter API
	DefaultBaseURL = "https://api.vxtwitter.com"
	// DefaultTimeout bounds one lookup
	DefaultTimeout = 10 * time.Second

	maxLookupBytes = 4 << 20
)

// Client resolves posts through the vxtwitter JSON API. It never retries:
// retry policy belongs to the caller.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

var _ services.PostResolver = (*Client)(nil)

// NewClient creates a Client with the default API URL
func NewClient(logger *slog.Logger) *Client {
	return NewClientWithURL(DefaultBaseURL, DefaultTimeout, logger)
}

// NewClientWithURL creates a Client with a custom base URL (self-hosted instance, tests)
func NewClientWithURL(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.With("adapter", "vxtwitter"),
	}
}

// Resolve looks the post up
func (c *Client) Resolve(ctx context.Context, rawURL string) (*models.Post, error) {
	postURL, err := ParsePostURL(rawURL)
	if err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/%s/status/%s", c.baseURL, url.PathEscape(postURL.Handle), postURL.ID)

	c.log.DebugContext(ctx, "vxtwitter request", slog.String("post_id", postURL.ID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("vxtwitter: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.ErrorContext(ctx, "vxtwitter request failed",
			slog.String("post_id", postURL.ID),
			slog.String("error", err.Error()),
		)
		return nil, upstreamError(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusGone, http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("%w: post %s: lookup returned %d", domain.ErrPostUnavailable, postURL.ID, resp.StatusCode)
	default:
		return nil, fmt.Errorf("%w: vxtwitter: unexpected status %d", domain.ErrUpstreamUnreachable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxLookupBytes))
	if err != nil {
		return nil, upstreamError(ctx, err)
	}

	var payload apiPost
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: vxtwitter: decode json: %v", domain.ErrUpstreamUnreachable, err)
	}

	post := mapAPIPost(postURL, &payload)

	c.log.DebugContext(ctx, "vxtwitter response",
		slog.String("post_id", post.ID),
		slog.Int("text_len", len(post.Text)),
		slog.Int("media", len(post.Media)),
	)

	return post, nil
}

// upstreamError keeps the context error visible so callers can tell a
// cancelled request apart from a dead upstream.
func upstreamError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		err = fmt.Errorf("%w (%v)", ctxErr, err)
	}
	return fmt.Errorf("%w: vxtwitter: %w", domain.ErrUpstreamUnreachable, err)
}

func mapAPIPost(postURL PostURL, p *apiPost) *models.Post {
	post := &models.Post{
		ID:           postURL.ID,
		AuthorName:   p.UserName,
		AuthorHandle: p.UserScreenName,
		Text:         p.Text,
		Permalink:    p.TweetURL,
		Media:        extractMedia(p),
	}
	if post.AuthorHandle == "" && postURL.Handle != "i" {
		post.AuthorHandle = postURL.Handle
	}
	if post.Permalink == "" {
		post.Permalink = postURL.Canonical()
	}
	if p.DateEpoch > 0 {
		post.CreatedAt = time.Unix(p.DateEpoch, 0).UTC()
	}
	return post
}

// extractMedia prefers media_extended and falls back to the flat mediaURLs.
// Videos and gifs contribute their still thumbnail.
func extractMedia(p *apiPost) []models.Media {
	media := make([]models.Media, 0, len(p.MediaExtended))

	if len(p.MediaExtended) > 0 {
		for _, m := range p.MediaExtended {
			switch models.MediaKind(m.Type) {
			case models.MediaVideo, models.MediaGIF:
				if m.ThumbnailURL == "" {
					continue
				}
				media = append(media, models.Media{URL: m.ThumbnailURL, Kind: models.MediaKind(m.Type), AltText: m.AltText})
			default:
				if m.URL == "" {
					continue
				}
				media = append(media, models.Media{URL: OriginalQuality(m.URL), Kind: models.MediaImage, AltText: m.AltText})
			}
		}
		return media
	}

	for _, u := range p.MediaURLs {
		if u == "" || isVideoURL(u) {
			continue
		}
		media = append(media, models.Media{URL: OriginalQuality(u), Kind: models.MediaImage})
	}
	return media
}

// OriginalQuality rewrites the size selector of an image URL to the original
// resolution. Other URLs are returned unchanged.
func OriginalQuality(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	switch q.Get("name") {
	case "small", "medium", "large", "thumb", "900x900", "4096x4096":
		q.Set("name", "orig")
		u.RawQuery = q.Encode()
		return u.String()
	}
	return raw
}

func isVideoURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	p := strings.ToLower(u.Path)
	return strings.HasSuffix(p, ".mp4") || strings.HasSuffix(p, ".mov") || strings.HasSuffix(p, ".m3u8")
}
