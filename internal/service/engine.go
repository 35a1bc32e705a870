package service

import (
	"context"
	"fmt"
	"log/slog"

	"postvault/internal/config"
	"postvault/internal/domain"
	"postvault/internal/domain/models"
	"postvault/internal/domain/repositories"
	"postvault/internal/domain/services"
	"postvault/internal/repository"
	"postvault/internal/secrets"
	"postvault/internal/service/resolver"
	"postvault/internal/service/vault"
)

// StoreProvider picks the content store for a set of credentials
type StoreProvider interface {
	ForSecrets(sec *secrets.Secrets) (repositories.ContentStore, error)
}

// Engine builds a commit controller per request. The resolver and fetcher
// are shared; the store depends on the credentials in effect.
type Engine struct {
	resolver services.PostResolver
	fetcher  services.MediaFetcher
	stores   StoreProvider
	secrets  secrets.Source
	vault    vault.Config
	logger   *slog.Logger
}

var _ services.CommitterProvider = (*Engine)(nil)

// NewEngine creates an engine from explicit collaborators
func NewEngine(
	postResolver services.PostResolver,
	fetcher services.MediaFetcher,
	stores StoreProvider,
	source secrets.Source,
	vaultCfg vault.Config,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		resolver: postResolver,
		fetcher:  fetcher,
		stores:   stores,
		secrets:  source,
		vault:    vaultCfg,
		logger:   logger,
	}
}

// SetupEngine wires the production collaborators from configuration
func SetupEngine(cfg *config.Config, source secrets.Source, stores StoreProvider, logger *slog.Logger) *Engine {
	return NewEngine(
		resolver.NewClientWithURL(cfg.Resolver.BaseURL, cfg.Resolver.Timeout, logger),
		resolver.NewMediaFetcher(cfg.Media.MaxBytes, cfg.Media.Timeout, logger),
		stores,
		source,
		VaultConfig(cfg),
		logger,
	)
}

// SetupStores creates the store factory for the configured backend
func SetupStores(cfg *config.Config, logger *slog.Logger) *repository.Factory {
	return repository.NewFactory(cfg.Store, logger)
}

// VaultConfig translates application configuration into the commit
// engine's construction parameters
func VaultConfig(cfg *config.Config) vault.Config {
	vc := vault.DefaultConfig()
	vc.Categories = map[models.Category]vault.CategoryConfig{
		models.CategoryWishlist: {
			DocumentPath: cfg.Vault.WishlistPath,
			AssetsDir:    cfg.Vault.AssetsDir,
			Label:        "wishlist",
		},
		models.CategoryLiked: {
			DocumentPath: cfg.Vault.LikedPath,
			AssetsDir:    cfg.Vault.LikedAssetsDir,
			Label:        "liked post",
		},
	}
	vc.Retry = vault.RetryPolicy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		Base:        cfg.Retry.Base,
		Cap:         cfg.Retry.Cap,
		Jitter:      cfg.Retry.Jitter,
	}
	vc.CallTimeout = cfg.Server.CallTimeout
	vc.Location = cfg.Location()
	return vc
}

// Resolver exposes the shared post resolver
func (e *Engine) Resolver() services.PostResolver {
	return e.resolver
}

// Committer returns a controller bound to the store for the request's
// credentials. Credentials attached to ctx win over a fresh load.
func (e *Engine) Committer(ctx context.Context) (services.Committer, error) {
	sec, ok := secrets.FromContext(ctx)
	if !ok {
		loaded, err := e.secrets.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: load credentials: %v", domain.ErrStoreUnavailable, err)
		}
		sec = loaded
	}

	store, err := e.stores.ForSecrets(sec)
	if err != nil {
		return nil, err
	}

	return vault.NewController(e.resolver, e.fetcher, store, e.vault, e.logger), nil
}
