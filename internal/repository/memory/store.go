// Package memory is an in-process ContentStore used for dry runs and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"postvault/internal/domain"
	"postvault/internal/domain/models"
	"postvault/internal/domain/repositories"
)

type object struct {
	content  []byte
	revision string
	message  string
}

// Store keeps objects in a map guarded by a mutex. Revisions come from a
// store-wide counter so a rewrite with identical bytes still gets a new one.
type Store struct {
	mu         sync.Mutex
	objects    map[string]object
	revCounter int64
}

var _ repositories.ContentStore = (*Store)(nil)

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{objects: make(map[string]object)}
}

// Get returns a copy of the object at path
func (s *Store) Get(ctx context.Context, path string) (*models.DocumentState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.objects[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, domain.ErrObjectNotFound)
	}
	return &models.DocumentState{
		Path:    path,
		Content: append([]byte(nil), obj.content...),
		Version: models.NewVersion(obj.revision),
	}, nil
}

// Put writes the object when req.Version matches the stored revision
func (s *Store) Put(ctx context.Context, req repositories.PutRequest) (models.Version, error) {
	if err := ctx.Err(); err != nil {
		return models.NoVersion, err
	}
	if req.Path == "" {
		return models.NoVersion, fmt.Errorf("%w: empty path", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.objects[req.Path]
	if exists != req.Version.Exists() || (exists && existing.revision != req.Version.Token()) {
		return models.NoVersion, &domain.ConflictError{
			Path:     req.Path,
			Expected: req.Version.Token(),
			Current:  existing.revision,
		}
	}

	revision := s.nextRevisionLocked()
	s.objects[req.Path] = object{
		content:  append([]byte(nil), req.Content...),
		revision: revision,
		message:  req.Message,
	}
	return models.NewVersion(revision), nil
}

// Paths lists stored paths in lexical order
func (s *Store) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths := make([]string, 0, len(s.objects))
	for p := range s.objects {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Message returns the commit message of the last write to path
func (s *Store) Message(path string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.objects[path].message
}

func (s *Store) nextRevisionLocked() string {
	s.revCounter++
	return fmt.Sprintf("rev_%d", s.revCounter)
}
