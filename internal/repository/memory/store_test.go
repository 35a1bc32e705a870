package memory

import (
	"context"
	"sync"
	"testing"

	"postvault/internal/domain"
	"postvault/internal/domain/models"
	"postvault/internal/domain/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_GetMissing(t *testing.T) {
	s := NewStore()

	_, err := s.Get(context.Background(), "wishlist.md")
	require.ErrorIs(t, err, domain.ErrObjectNotFound)
}

func TestStore_CreateThenUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	v1, err := s.Put(ctx, repositories.PutRequest{Path: "a.md", Content: []byte("one\n"), Version: models.NoVersion})
	require.NoError(t, err)
	assert.True(t, v1.Exists())

	got, err := s.Get(ctx, "a.md")
	require.NoError(t, err)
	assert.Equal(t, "one\n", string(got.Content))
	assert.Equal(t, v1, got.Version)

	v2, err := s.Put(ctx, repositories.PutRequest{Path: "a.md", Content: []byte("one\ntwo\n"), Version: v1})
	require.NoError(t, err)
	assert.NotEqual(t, v1, v2)
}

func TestStore_Conflicts(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	v1, err := s.Put(ctx, repositories.PutRequest{Path: "a.md", Content: []byte("x"), Version: models.NoVersion})
	require.NoError(t, err)

	tests := []struct {
		name    string
		version models.Version
	}{
		{"create over existing", models.NoVersion},
		{"stale version", models.NewVersion("rev_999")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Put(ctx, repositories.PutRequest{Path: "a.md", Content: []byte("y"), Version: tt.version})
			require.ErrorIs(t, err, domain.ErrVersionConflict)

			var conflict *domain.ConflictError
			require.ErrorAs(t, err, &conflict)
			assert.Equal(t, v1.Token(), conflict.Current)
		})
	}

	_, err = s.Put(ctx, repositories.PutRequest{Path: "b.md", Content: []byte("y"), Version: v1})
	require.ErrorIs(t, err, domain.ErrVersionConflict, "update of a missing object must not create it")
}

func TestStore_SameContentGetsNewRevision(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	v1, err := s.Put(ctx, repositories.PutRequest{Path: "a.md", Content: []byte("x"), Version: models.NoVersion})
	require.NoError(t, err)
	v2, err := s.Put(ctx, repositories.PutRequest{Path: "a.md", Content: []byte("x"), Version: v1})
	require.NoError(t, err)

	assert.NotEqual(t, v1, v2)
}

func TestStore_ConcurrentCreateHasOneWinner(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	const writers = 16
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Put(ctx, repositories.PutRequest{Path: "a.md", Content: []byte("x"), Version: models.NoVersion})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, []string{"a.md"}, s.Paths())
}
