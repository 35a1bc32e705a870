package vault

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postvault/internal/domain"
	"postvault/internal/domain/models"
	"postvault/internal/domain/repositories"
	"postvault/internal/repository/memory"
)

const (
	imageA = "https://pbs.twimg.com/media/A?format=jpg&name=orig"
	imageB = "https://pbs.twimg.com/media/B.png"
)

func bookPost() *models.Post {
	return &models.Post{
		ID:           "123",
		AuthorName:   "Jack",
		AuthorHandle: "jack",
		Text:         "Great book\nMust read",
		Permalink:    "https://x.com/jack/status/123",
		Media: []models.Media{
			{URL: imageA, Kind: models.MediaImage},
			{URL: imageB, Kind: models.MediaImage},
		},
	}
}

type controllerFixture struct {
	inner    *memory.Store
	store    *recordingStore
	resolver *stubResolver
	fetcher  *stubFetcher
	ctrl     *Controller
}

func newControllerFixture(t *testing.T, post *models.Post) *controllerFixture {
	t.Helper()
	inner := memory.NewStore()
	f := &controllerFixture{
		inner:    inner,
		store:    newRecordingStore(inner),
		resolver: &stubResolver{post: post},
		fetcher:  &stubFetcher{data: map[string][]byte{}, fail: map[string]error{}},
	}
	f.ctrl = NewController(f.resolver, f.fetcher, f.store, testConfig(), newTestLogger())
	return f
}

func wishlistRequest() *models.AddEntryRequest {
	return &models.AddEntryRequest{
		Category: models.CategoryWishlist,
		URL:      "https://x.com/jack/status/123?s=20",
		Note:     "gift idea",
	}
}

func TestController_Commit(t *testing.T) {
	f := newControllerFixture(t, bookPost())
	seed(t, f.inner, "wishlist.md", "# Wishlist")

	res, err := f.ctrl.Commit(context.Background(), wishlistRequest())
	require.NoError(t, err)

	assert.Equal(t, "123", res.PostID)
	assert.Equal(t, models.CategoryWishlist, res.Category)
	assert.Equal(t, models.StageDone, res.Stage)
	assert.Equal(t, 2, res.Uploaded)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, []string{"assets/2024-01/123_1.jpg", "assets/2024-01/123_2.png", "wishlist.md"}, res.Paths)

	assert.Equal(t, "# Wishlist\n"+
		"- 2024-01-15 [@jack](https://x.com/jack/status/123)\n"+
		"  - note: gift idea\n"+
		"  - text:\n"+
		"    > Great book\n"+
		"    > Must read\n"+
		"  - original: https://x.com/jack/status/123\n"+
		"  - images:\n"+
		"    - ![[assets/2024-01/123_1.jpg]]\n"+
		"    - ![[assets/2024-01/123_2.png]]\n",
		read(t, f.inner, "wishlist.md"))

	assert.Equal(t, "bytes of "+imageA, read(t, f.inner, "assets/2024-01/123_1.jpg"))
	assert.Equal(t, "chore: add post images 123", f.inner.Message("assets/2024-01/123_1.jpg"))
	assert.Equal(t, "chore: append wishlist 2024-01-15 (123)", f.inner.Message("wishlist.md"))
}

func TestController_AssetPathsFollowPublicationDate(t *testing.T) {
	post := bookPost()
	post.CreatedAt = time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC)
	f := newControllerFixture(t, post)

	first, err := f.ctrl.Commit(context.Background(), wishlistRequest())
	require.NoError(t, err)
	assert.Equal(t, []string{"assets/2023-12/123_1.jpg", "assets/2023-12/123_2.png", "wishlist.md"}, first.Paths)
	fetches := f.fetcher.calls

	// the retry runs in the following month
	f.ctrl.cfg.Now = func() time.Time { return fixedNow.AddDate(0, 1, 0) }
	again, err := f.ctrl.Commit(context.Background(), wishlistRequest())
	require.NoError(t, err)

	assert.Equal(t, first.Paths, again.Paths)
	assert.Zero(t, again.Uploaded)
	assert.Equal(t, fetches, f.fetcher.calls)
	assert.Contains(t, read(t, f.inner, "wishlist.md"), "- 2024-02-15 [@jack]")
}

func TestController_LikedCategoryRouting(t *testing.T) {
	f := newControllerFixture(t, bookPost())

	req := wishlistRequest()
	req.Category = models.CategoryLiked
	res, err := f.ctrl.Commit(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "Liked/tweets.md", res.DocumentPath)
	assert.Equal(t, []string{"Liked/assets/2024-01/123_1.jpg", "Liked/assets/2024-01/123_2.png", "Liked/tweets.md"}, res.Paths)
	assert.Equal(t, "chore: append liked post 2024-01-15 (123)", f.inner.Message("Liked/tweets.md"))
}

func TestController_RetriedRequestDoesNotReupload(t *testing.T) {
	f := newControllerFixture(t, bookPost())

	_, err := f.ctrl.Commit(context.Background(), wishlistRequest())
	require.NoError(t, err)
	fetchesAfterFirst := f.fetcher.calls

	res, err := f.ctrl.Commit(context.Background(), wishlistRequest())
	require.NoError(t, err)

	assert.Equal(t, 0, res.Uploaded)
	assert.Equal(t, fetchesAfterFirst, f.fetcher.calls, "stored assets are not downloaded again")
	assert.Equal(t, 1, f.store.putCount("assets/2024-01/123_1.jpg"))
	assert.Equal(t, 1, f.store.putCount("assets/2024-01/123_2.png"))
	assert.Equal(t, 2, f.store.putCount("wishlist.md"))
}

func TestController_SecondImageFailureLeavesDocumentUntouched(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *controllerFixture)
	}{
		{
			name: "download fails",
			setup: func(f *controllerFixture) {
				f.fetcher.fail[imageB] = errors.New("media: unexpected status 404")
			},
		},
		{
			name: "store rejects upload",
			setup: func(f *controllerFixture) {
				f.store.beforePut = func(req repositories.PutRequest) error {
					if req.Path == "assets/2024-01/123_2.png" {
						return fmt.Errorf("%w: 500", domain.ErrStoreUnavailable)
					}
					return nil
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newControllerFixture(t, bookPost())
			tt.setup(f)

			_, err := f.ctrl.Commit(context.Background(), wishlistRequest())
			require.ErrorIs(t, err, domain.ErrAssetUploadFailed)

			var uploadErr *domain.AssetUploadError
			require.ErrorAs(t, err, &uploadErr)
			assert.Equal(t, 2, uploadErr.Index)
			assert.Equal(t, "assets/2024-01/123_2.png", uploadErr.Path)

			var commitErr *domain.CommitError
			require.ErrorAs(t, err, &commitErr)
			assert.Equal(t, string(models.StageUploadingAssets), commitErr.Stage)
			assert.Equal(t, "123", commitErr.PostID)

			assert.Zero(t, f.store.putCount("wishlist.md"))
			_, getErr := f.inner.Get(context.Background(), "wishlist.md")
			assert.ErrorIs(t, getErr, domain.ErrObjectNotFound)
		})
	}
}

func TestController_RecoversFromDocumentConflict(t *testing.T) {
	f := newControllerFixture(t, bookPost())
	seed(t, f.inner, "wishlist.md", "- older\n")

	raced := false
	f.store.beforePut = func(req repositories.PutRequest) error {
		if req.Path == "wishlist.md" && !raced {
			raced = true
			seed(t, f.inner, "wishlist.md", "- older\n- concurrent\n")
		}
		return nil
	}

	res, err := f.ctrl.Commit(context.Background(), wishlistRequest())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Attempts)

	content := read(t, f.inner, "wishlist.md")
	assert.Contains(t, content, "- older\n- concurrent\n- 2024-01-15 [@jack]")
}

func TestController_AppendConflictExhausted(t *testing.T) {
	f := newControllerFixture(t, bookPost())
	f.store.beforePut = func(req repositories.PutRequest) error {
		if req.Path == "wishlist.md" {
			return &domain.ConflictError{Path: req.Path}
		}
		return nil
	}

	_, err := f.ctrl.Commit(context.Background(), wishlistRequest())
	require.ErrorIs(t, err, domain.ErrAppendConflict)
	assert.Equal(t, testConfig().Retry.MaxAttempts, f.store.putCount("wishlist.md"))

	var commitErr *domain.CommitError
	require.ErrorAs(t, err, &commitErr)
	assert.Equal(t, string(models.StageAppending), commitErr.Stage)
}

func TestController_RejectsBeforeNetwork(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *models.AddEntryRequest)
	}{
		{"bad url", func(r *models.AddEntryRequest) { r.URL = "https://example.com/post/1" }},
		{"empty url", func(r *models.AddEntryRequest) { r.URL = "" }},
		{"unknown category", func(r *models.AddEntryRequest) { r.Category = "books" }},
		{"multi-line note", func(r *models.AddEntryRequest) { r.Note = "line one\nline two" }},
		{"note too long", func(r *models.AddEntryRequest) { r.Note = strings.Repeat("é", 501) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newControllerFixture(t, bookPost())
			req := wishlistRequest()
			tt.mutate(req)

			_, err := f.ctrl.Commit(context.Background(), req)
			require.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Zero(t, f.resolver.calls)
		})
	}
}

func TestController_NoteIsVerbatim(t *testing.T) {
	tests := []struct {
		name string
		note string
		want string
	}{
		{"comparison", "x<y and y>z", "x<y and y>z"},
		{"angle bracketed titles", "compare <Dune> and <Foundation>", "compare <Dune> and <Foundation>"},
		{"bracketed isbn", "<ISBN 978-0441013593>", "<ISBN 978-0441013593>"},
		{"heart", "love it <3", "love it <3"},
		{"ampersand and entity", "books &amp; coffee & tea", "books &amp; coffee & tea"},
		{"tag-like text", "<b>gift</b> for mum", "<b>gift</b> for mum"},
		{"surrounding space trimmed", "  x<y  ", "x<y"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newControllerFixture(t, bookPost())
			req := wishlistRequest()
			req.Note = tt.note

			_, err := f.ctrl.Commit(context.Background(), req)
			require.NoError(t, err)
			assert.Contains(t, read(t, f.inner, "wishlist.md"), "  - note: "+tt.want+"\n")
			assert.Equal(t, tt.note, req.Note, "caller's request is not modified")
		})
	}
}

func TestController_ResolverFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unavailable", fmt.Errorf("%w: 404", domain.ErrPostUnavailable), domain.ErrPostUnavailable},
		{"unreachable", fmt.Errorf("%w: 503", domain.ErrUpstreamUnreachable), domain.ErrUpstreamUnreachable},
		{"unclassified", errors.New("boom"), domain.ErrUpstreamUnreachable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newControllerFixture(t, nil)
			f.resolver.err = tt.err

			_, err := f.ctrl.Commit(context.Background(), wishlistRequest())
			require.ErrorIs(t, err, tt.want)
			assert.Empty(t, f.inner.Paths())
		})
	}
}

func TestController_EmptyPostIsUnavailable(t *testing.T) {
	f := newControllerFixture(t, &models.Post{ID: "123", AuthorHandle: "jack", Permalink: "https://x.com/jack/status/123"})

	_, err := f.ctrl.Commit(context.Background(), wishlistRequest())
	require.ErrorIs(t, err, domain.ErrPostUnavailable)
	assert.Empty(t, f.inner.Paths())
}

func TestController_TextOnlyPost(t *testing.T) {
	post := bookPost()
	post.Media = nil
	f := newControllerFixture(t, post)

	res, err := f.ctrl.Commit(context.Background(), wishlistRequest())
	require.NoError(t, err)
	assert.Equal(t, []string{"wishlist.md"}, res.Paths)
	assert.Zero(t, f.fetcher.calls)
	assert.NotContains(t, read(t, f.inner, "wishlist.md"), "images:")
}
