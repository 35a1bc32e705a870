package vault

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"postvault/internal/domain"
	"postvault/internal/domain/models"
	"postvault/internal/domain/repositories"
	"postvault/internal/repository/memory"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var fixedNow = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

// noJitter makes backoff delays deterministic
func noJitter(int64) int64 { return 0 }

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Retry = RetryPolicy{MaxAttempts: 5, Base: time.Millisecond, Cap: 4 * time.Millisecond}
	cfg.CallTimeout = time.Second
	cfg.Now = func() time.Time { return fixedNow }
	cfg.Rand = noJitter
	return cfg
}

// stubResolver returns a fixed post and counts calls
type stubResolver struct {
	mu    sync.Mutex
	post  *models.Post
	err   error
	calls int
}

func (r *stubResolver) Resolve(ctx context.Context, rawURL string) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	p := *r.post
	return &p, nil
}

// stubFetcher serves media bytes by URL
type stubFetcher struct {
	mu    sync.Mutex
	data  map[string][]byte
	fail  map[string]error
	calls int
}

func (f *stubFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err, ok := f.fail[url]; ok {
		return nil, err
	}
	if b, ok := f.data[url]; ok {
		return b, nil
	}
	return []byte("bytes of " + url), nil
}

// recordingStore wraps a ContentStore, counting writes and letting tests
// inject behaviour before each Put.
type recordingStore struct {
	repositories.ContentStore

	mu        sync.Mutex
	puts      map[string]int
	beforePut func(req repositories.PutRequest) error
}

func newRecordingStore(inner repositories.ContentStore) *recordingStore {
	return &recordingStore{ContentStore: inner, puts: make(map[string]int)}
}

func (s *recordingStore) Put(ctx context.Context, req repositories.PutRequest) (models.Version, error) {
	s.mu.Lock()
	s.puts[req.Path]++
	hook := s.beforePut
	s.mu.Unlock()

	if hook != nil {
		if err := hook(req); err != nil {
			return models.NoVersion, err
		}
	}
	return s.ContentStore.Put(ctx, req)
}

func (s *recordingStore) putCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts[path]
}

// seed writes content directly into the in-memory store
func seed(t *testing.T, store *memory.Store, path, content string) {
	t.Helper()
	ctx := context.Background()
	version := models.NoVersion
	if state, err := store.Get(ctx, path); err == nil {
		version = state.Version
	} else if !errors.Is(err, domain.ErrObjectNotFound) {
		t.Fatalf("seed %s: %v", path, err)
	}
	if _, err := store.Put(ctx, repositories.PutRequest{Path: path, Content: []byte(content), Version: version}); err != nil {
		t.Fatalf("seed %s: %v", path, err)
	}
}

func read(t *testing.T, store repositories.ContentStore, path string) string {
	t.Helper()
	state, err := store.Get(context.Background(), path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(state.Content)
}
