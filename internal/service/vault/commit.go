// Package vault records resolved posts into a version-controlled document
// store: it formats entries, uploads their images and appends them to the
// shared category document.
package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"postvault/internal/config"
	"postvault/internal/domain"
	"postvault/internal/domain/models"
	"postvault/internal/domain/repositories"
	"postvault/internal/domain/services"
	"postvault/internal/service/resolver"
)

// Controller runs one commit through
// resolving → formatting → uploading_assets → appending → done.
// It holds no per-request state and is safe for concurrent use.
type Controller struct {
	resolver services.PostResolver
	fetcher  services.MediaFetcher
	assets   *AssetStore
	appender *Appender
	cfg      Config
	log      *slog.Logger
}

var _ services.Committer = (*Controller)(nil)

// NewController wires the commit engine against one content store
func NewController(
	postResolver services.PostResolver,
	fetcher services.MediaFetcher,
	store repositories.ContentStore,
	cfg Config,
	logger *slog.Logger,
) *Controller {
	cfg.withDefaults()
	return &Controller{
		resolver: postResolver,
		fetcher:  fetcher,
		assets:   NewAssetStore(store, cfg.CallTimeout, logger),
		appender: NewAppender(store, cfg.Retry, cfg.CallTimeout, cfg.Rand, logger),
		cfg:      cfg,
		log:      logger.With("service", "vault"),
	}
}

// Commit resolves the post behind the request URL and records it in the category's
// document. Assets are uploaded before the document is touched; if any of
// them fails the document is left alone. Every error is a *domain.CommitError
// carrying the failed stage.
func (c *Controller) Commit(ctx context.Context, in *models.AddEntryRequest) (*models.CommitResult, error) {
	req := *in
	req.URL = strings.TrimSpace(req.URL)
	// The note is recorded verbatim; singleLine keeps it inside its bullet.
	req.Note = strings.TrimSpace(req.Note)
	if err := c.validateRequest(&req); err != nil {
		return nil, c.fail(ctx, models.StageResolving, "", err)
	}
	routing, err := c.cfg.Category(req.Category)
	if err != nil {
		return nil, c.fail(ctx, models.StageResolving, "", &domain.ValidationError{Field: "category", Message: err.Error()})
	}

	// Resolving
	c.enter(ctx, models.StageResolving, "", slog.String("category", req.Category.String()))
	post, err := c.resolve(ctx, req.URL)
	if err != nil {
		return nil, c.fail(ctx, models.StageResolving, "", err)
	}
	if !post.HasContent() {
		return nil, c.fail(ctx, models.StageResolving, post.ID,
			fmt.Errorf("%w: post %s has neither text nor media", domain.ErrPostUnavailable, post.ID))
	}

	// Formatting
	c.enter(ctx, models.StageFormatting, post.ID)
	date := c.cfg.Now().In(c.cfg.Location)
	// Asset paths follow the publication date, which is stable across retries.
	assetDate := date
	if !post.CreatedAt.IsZero() {
		assetDate = post.CreatedAt.In(c.cfg.Location)
	}
	entry := &models.Entry{
		Category:     req.Category,
		Date:         date,
		AuthorHandle: post.AuthorHandle,
		PostID:       post.ID,
		Permalink:    post.Permalink,
		Note:         req.Note,
		Text:         post.Text,
		Assets:       BuildAssets(routing.AssetsDir, assetDate, post.ID, post.Media),
	}
	if _, err := RenderEntry(entry); err != nil {
		return nil, c.fail(ctx, models.StageFormatting, post.ID, err)
	}

	// UploadingAssets
	c.enter(ctx, models.StageUploadingAssets, post.ID, slog.Int("assets", len(entry.Assets)))
	uploaded, err := c.uploadAssets(ctx, post.ID, entry.Assets)
	if err != nil {
		return nil, c.fail(ctx, models.StageUploadingAssets, post.ID, err)
	}

	// Every asset path is known to exist now; render the final block.
	rendered, err := RenderEntry(entry)
	if err != nil {
		return nil, c.fail(ctx, models.StageFormatting, post.ID, err)
	}

	// Appending
	c.enter(ctx, models.StageAppending, post.ID, slog.String("path", routing.DocumentPath))
	message := fmt.Sprintf("chore: append %s %s (%s)", routing.Label, date.Format(time.DateOnly), post.ID)
	appended, err := c.appender.Append(ctx, routing.DocumentPath, rendered, message)
	if err != nil {
		return nil, c.fail(ctx, models.StageAppending, post.ID, err)
	}

	paths := make([]string, 0, len(entry.Assets)+1)
	for _, a := range entry.Assets {
		paths = append(paths, a.Path)
	}
	paths = append(paths, routing.DocumentPath)

	c.enter(ctx, models.StageDone, post.ID,
		slog.Int("uploaded", uploaded),
		slog.Int("attempts", appended.Attempts),
	)

	return &models.CommitResult{
		PostID:       post.ID,
		Category:     req.Category,
		DocumentPath: routing.DocumentPath,
		Paths:        paths,
		Uploaded:     uploaded,
		Attempts:     appended.Attempts,
		Stage:        models.StageDone,
	}, nil
}

func (c *Controller) validateRequest(req *models.AddEntryRequest) error {
	err := validation.ValidateStruct(req,
		validation.Field(&req.Category, validation.Required, validation.By(validCategory)),
		validation.Field(&req.URL,
			validation.Required,
			validation.Length(1, config.MaxURLLength),
			validation.By(postURL),
		),
		validation.Field(&req.Note,
			validation.RuneLength(0, config.MaxNoteLength),
			validation.By(singleLine),
		),
	)
	if err != nil {
		return &domain.ValidationError{Message: err.Error()}
	}
	return nil
}

func validCategory(value interface{}) error {
	if c, _ := value.(models.Category); !c.IsValid() {
		return errors.New("must be one of wishlist, liked")
	}
	return nil
}

func postURL(value interface{}) error {
	if s, _ := value.(string); !resolver.IsPostURL(s) {
		return errors.New("must be a post URL")
	}
	return nil
}

func singleLine(value interface{}) error {
	if s, _ := value.(string); strings.ContainsAny(s, "\r\n") {
		return errors.New("must not contain line breaks")
	}
	return nil
}

func (c *Controller) resolve(ctx context.Context, rawURL string) (*models.Post, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()

	post, err := c.resolver.Resolve(callCtx, rawURL)
	if err != nil {
		for _, known := range []error{domain.ErrInvalidInput, domain.ErrPostUnavailable, domain.ErrUpstreamUnreachable} {
			if errors.Is(err, known) {
				return nil, err
			}
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamUnreachable, err)
	}
	if post == nil || post.ID == "" {
		return nil, fmt.Errorf("%w: resolver returned no post id", domain.ErrUpstreamUnreachable)
	}
	return post, nil
}

// uploadAssets stores every asset in order and stops at the first failure
func (c *Controller) uploadAssets(ctx context.Context, postID string, assets []models.AssetReference) (int, error) {
	message := "chore: add post images " + postID
	uploaded := 0

	for _, a := range assets {
		load := func(ctx context.Context) ([]byte, error) {
			data, err := c.fetch(ctx, a.SourceURL)
			if err != nil {
				return nil, fmt.Errorf("download %s: %w", a.SourceURL, err)
			}
			return data, nil
		}

		created, err := c.assets.Put(ctx, a.Path, load, message)
		if err != nil {
			return uploaded, &domain.AssetUploadError{Index: a.Index, Path: a.Path, Err: err}
		}
		if created {
			uploaded++
		}
	}
	return uploaded, nil
}

func (c *Controller) fetch(ctx context.Context, url string) ([]byte, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()
	return c.fetcher.Fetch(callCtx, url)
}

func (c *Controller) enter(ctx context.Context, stage models.Stage, postID string, attrs ...any) {
	args := append([]any{slog.String("stage", string(stage)), slog.String("post_id", postID)}, attrs...)
	c.log.InfoContext(ctx, "commit stage", args...)
}

func (c *Controller) fail(ctx context.Context, stage models.Stage, postID string, err error) error {
	c.log.WarnContext(ctx, "commit failed",
		slog.String("stage", string(stage)),
		slog.String("post_id", postID),
		slog.String("error", err.Error()),
	)
	return &domain.CommitError{Stage: string(stage), PostID: postID, Err: err}
}
