// Package github implements repositories.ContentStore on top of the GitHub
// repository contents API.
package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"postvault/internal/domain"
	"postvault/internal/domain/models"
	"postvault/internal/domain/repositories"
)

const (
	// DefaultBaseURL is the public GitHub REST endpoint
	DefaultBaseURL = "https://api.github.com"
	// DefaultTimeout bounds a single API round trip
	DefaultTimeout = 15 * time.Second

	apiVersion = "2022-11-28"
	// responses larger than this are treated as a broken upstream
	maxResponseBytes = 64 << 20
)

// Repository addresses a branch of a GitHub repository
type Repository struct {
	Owner  string
	Name   string
	Branch string
}

// Store talks to /repos/{owner}/{repo}/contents/{path}
type Store struct {
	baseURL    string
	token      string
	repo       Repository
	httpClient *http.Client
	log        *slog.Logger

	mu            sync.Mutex
	repoConfirmed bool
}

var _ repositories.ContentStore = (*Store)(nil)

// NewStore creates a store against the public GitHub API
func NewStore(token string, repo Repository, logger *slog.Logger) *Store {
	return NewStoreWithURL(DefaultBaseURL, token, repo, DefaultTimeout, logger)
}

// NewStoreWithURL creates a store with a custom API base URL (GitHub Enterprise, tests)
func NewStoreWithURL(baseURL, token string, repo Repository, timeout time.Duration, logger *slog.Logger) *Store {
	if repo.Branch == "" {
		repo.Branch = "main"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Store{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		repo:       repo,
		httpClient: &http.Client{Timeout: timeout},
		log: logger.With(
			"adapter", "github",
			"repo", repo.Owner+"/"+repo.Name,
			"branch", repo.Branch,
		),
	}
}

// Get fetches the object at path on the configured branch
func (s *Store) Get(ctx context.Context, path string) (*models.DocumentState, error) {
	endpoint := s.contentsURL(path) + "?ref=" + url.QueryEscape(s.repo.Branch)

	s.log.DebugContext(ctx, "github get", slog.String("path", path))

	req, err := s.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, body, err := s.do(req)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		if err := s.confirmRepository(ctx); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", path, domain.ErrObjectNotFound)
	default:
		return nil, s.statusError(resp, body, path)
	}

	var file contentsFile
	if err := json.Unmarshal(body, &file); err != nil {
		return nil, fmt.Errorf("%w: decode contents of %s: %v", domain.ErrStoreUnavailable, path, err)
	}
	if file.Type != "" && file.Type != "file" {
		return nil, fmt.Errorf("%w: %s is a %s, not a file", domain.ErrStoreUnavailable, path, file.Type)
	}

	content, err := s.decodeContent(ctx, path, &file)
	if err != nil {
		return nil, err
	}

	return &models.DocumentState{
		Path:    path,
		Content: content,
		Version: models.NewVersion(file.SHA),
	}, nil
}

// Put creates or updates the object. The blob sha of req.Version is sent so
// GitHub rejects the write when the branch moved underneath us.
func (s *Store) Put(ctx context.Context, req repositories.PutRequest) (models.Version, error) {
	payload := putRequest{
		Message: req.Message,
		Content: base64.StdEncoding.EncodeToString(req.Content),
		Branch:  s.repo.Branch,
		SHA:     req.Version.Token(),
	}
	if payload.Message == "" {
		payload.Message = "update " + req.Path
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return models.NoVersion, fmt.Errorf("github: marshal request: %w", err)
	}

	httpReq, err := s.newRequest(ctx, http.MethodPut, s.contentsURL(req.Path), bytes.NewReader(data))
	if err != nil {
		return models.NoVersion, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	s.log.DebugContext(ctx, "github put",
		slog.String("path", req.Path),
		slog.String("expected", req.Version.String()),
		slog.Int("bytes", len(req.Content)),
	)

	resp, body, err := s.do(httpReq)
	if err != nil {
		return models.NoVersion, err
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
	case http.StatusConflict:
		return models.NoVersion, &domain.ConflictError{Path: req.Path, Expected: req.Version.Token()}
	case http.StatusUnprocessableEntity:
		// GitHub answers 422 both for "sha wasn't supplied" (object appeared
		// after we read it) and for genuinely malformed requests.
		if strings.Contains(strings.ToLower(apiMessage(body)), "sha") {
			return models.NoVersion, &domain.ConflictError{Path: req.Path, Expected: req.Version.Token()}
		}
		return models.NoVersion, s.statusError(resp, body, req.Path)
	default:
		return models.NoVersion, s.statusError(resp, body, req.Path)
	}

	var result putResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return models.NoVersion, fmt.Errorf("%w: decode put response for %s: %v", domain.ErrStoreUnavailable, req.Path, err)
	}
	return models.NewVersion(result.Content.SHA), nil
}

// decodeContent returns the file bytes. The contents API omits inline content
// for files above 1MB, in which case the raw media type is requested.
func (s *Store) decodeContent(ctx context.Context, path string, file *contentsFile) ([]byte, error) {
	if file.Encoding == "base64" {
		// GitHub wraps the payload at 60 columns
		decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(file.Content, "\n", ""))
		if err != nil {
			return nil, fmt.Errorf("%w: decode base64 of %s: %v", domain.ErrStoreUnavailable, path, err)
		}
		return decoded, nil
	}
	if file.Size == 0 {
		return []byte{}, nil
	}

	s.log.DebugContext(ctx, "github raw fetch", slog.String("path", path), slog.Int64("size", file.Size))

	endpoint := s.contentsURL(path) + "?ref=" + url.QueryEscape(s.repo.Branch)
	req, err := s.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github.raw+json")

	resp, body, err := s.do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, s.statusError(resp, body, path)
	}
	return body, nil
}

func (s *Store) contentsURL(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s",
		s.baseURL,
		url.PathEscape(s.repo.Owner),
		url.PathEscape(s.repo.Name),
		strings.Join(segments, "/"),
	)
}

func (s *Store) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("github: create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	return req, nil
}

// do executes the request and drains the body. Transport failures map to
// ErrStoreUnavailable unless the caller's context ended first.
func (s *Store) do(req *http.Request) (*http.Response, []byte, error) {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, nil, fmt.Errorf("github: %w", ctxErr)
		}
		s.log.ErrorContext(req.Context(), "github request failed",
			slog.String("method", req.Method),
			slog.String("error", err.Error()),
		)
		return nil, nil, fmt.Errorf("%w: github request failed: %v", domain.ErrStoreUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, nil, fmt.Errorf("github: %w", ctxErr)
		}
		return nil, nil, fmt.Errorf("%w: read github response: %v", domain.ErrStoreUnavailable, err)
	}
	return resp, body, nil
}

// confirmRepository tells "no such file" apart from "no such repository" (or
// a token without access), which GitHub reports with the same 404. The answer
// is cached for the lifetime of the store.
func (s *Store) confirmRepository(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.repoConfirmed {
		return nil
	}

	endpoint := fmt.Sprintf("%s/repos/%s/%s", s.baseURL, url.PathEscape(s.repo.Owner), url.PathEscape(s.repo.Name))
	req, err := s.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, body, err := s.do(req)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return s.statusError(resp, body, "/")
	}
	s.repoConfirmed = true
	return nil
}

func (s *Store) statusError(resp *http.Response, body []byte, path string) error {
	msg := apiMessage(body)
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	err := &StatusError{Status: resp.StatusCode, Path: path, Message: msg}

	if IsRateLimited(err) {
		s.log.Warn("github rate limit exhausted",
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
			slog.String("reset", resp.Header.Get("X-RateLimit-Reset")),
			slog.String("retry_after", resp.Header.Get("Retry-After")),
		)
		return err
	}
	s.log.Warn("github unexpected status",
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.String("message", msg),
	)
	return err
}

// StatusError is a non-success GitHub response that is not a version conflict.
// It always matches domain.ErrStoreUnavailable.
type StatusError struct {
	Status  int
	Path    string
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("github %s: status %d: %s", e.Path, e.Status, e.Message)
}

func (e *StatusError) Is(target error) bool {
	return target == domain.ErrStoreUnavailable
}

// IsRateLimited reports whether GitHub throttled the request
func IsRateLimited(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.Status == http.StatusTooManyRequests ||
		(se.Status == http.StatusForbidden && strings.Contains(strings.ToLower(se.Message), "rate limit"))
}

func apiMessage(body []byte) string {
	var e apiError
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	return e.Message
}
