package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"postvault/internal/domain"
	"postvault/internal/domain/models"
	"postvault/internal/domain/repositories"
)

// AppendResult describes a successful append
type AppendResult struct {
	Path     string
	Version  models.Version
	Attempts int
}

// Appender appends entries to a shared document with optimistic concurrency:
// read, append locally, write conditionally, and on conflict start over.
type Appender struct {
	store       repositories.ContentStore
	policy      RetryPolicy
	callTimeout time.Duration
	rand        func(n int64) int64
	log         *slog.Logger
}

// NewAppender creates an appender with the given retry policy
func NewAppender(store repositories.ContentStore, policy RetryPolicy, callTimeout time.Duration, rand func(n int64) int64, logger *slog.Logger) *Appender {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Appender{
		store:       store,
		policy:      policy,
		callTimeout: callTimeout,
		rand:        rand,
		log:         logger.With("component", "appender"),
	}
}

// Append adds entry to the end of the document at path. Concurrent appends
// are never lost: each attempt rewrites the whole document against the
// version it read. Fails with ErrAppendConflict once the retry budget or the
// caller's deadline runs out, and with ErrStoreUnavailable on any other store
// failure without retrying.
func (a *Appender) Append(ctx context.Context, path, entry, message string) (*AppendResult, error) {
	var (
		attempts int
		version  models.Version
	)

	operation := func() error {
		attempts++
		v, err := a.appendOnce(ctx, path, entry, message)
		if err == nil {
			version = v
			return nil
		}
		if errors.Is(err, domain.ErrVersionConflict) {
			return err
		}
		return backoff.Permanent(err)
	}

	notify := func(err error, next time.Duration) {
		a.log.InfoContext(ctx, "append conflict, retrying",
			slog.String("path", path),
			slog.Int("attempt", attempts),
			slog.Duration("backoff", next),
		)
	}

	schedule := retryBackOff(ctx, a.policy, a.rand)
	err := backoff.RetryNotify(operation, schedule, notify)
	switch {
	case err == nil:
		a.log.InfoContext(ctx, "entry appended",
			slog.String("path", path),
			slog.Int("attempts", attempts),
		)
		return &AppendResult{Path: path, Version: version, Attempts: attempts}, nil
	case ctx.Err() != nil:
		return nil, fmt.Errorf("%w: %s gave up after %d attempts: %w", domain.ErrAppendConflict, path, attempts, ctx.Err())
	case errors.Is(err, domain.ErrVersionConflict) && schedule.expired:
		a.log.WarnContext(ctx, "append deadline too close to retry",
			slog.String("path", path),
			slog.Int("attempts", attempts),
		)
		return nil, fmt.Errorf("%w: %s gave up after %d attempts: %w", domain.ErrAppendConflict, path, attempts, context.DeadlineExceeded)
	case errors.Is(err, domain.ErrVersionConflict):
		a.log.WarnContext(ctx, "append retries exhausted",
			slog.String("path", path),
			slog.Int("attempts", attempts),
		)
		return nil, fmt.Errorf("%w: %s after %d attempts: %w", domain.ErrAppendConflict, path, attempts, err)
	case errors.Is(err, domain.ErrStoreUnavailable):
		return nil, err
	default:
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
}

func (a *Appender) appendOnce(ctx context.Context, path, entry, message string) (models.Version, error) {
	state, err := a.read(ctx, path)
	if err != nil {
		return models.NoVersion, err
	}

	callCtx, cancel := context.WithTimeout(ctx, a.callTimeout)
	defer cancel()

	return a.store.Put(callCtx, repositories.PutRequest{
		Path:    path,
		Content: AppendEntry(state.Content, entry),
		Message: message,
		Version: state.Version,
	})
}

// read returns the current document, or an empty one with NoVersion
func (a *Appender) read(ctx context.Context, path string) (*models.DocumentState, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.callTimeout)
	defer cancel()

	state, err := a.store.Get(callCtx, path)
	if errors.Is(err, domain.ErrObjectNotFound) {
		return &models.DocumentState{Path: path, Version: models.NoVersion}, nil
	}
	return state, err
}
