// Package repository selects the content store backend for a request.
package repository

import (
	"fmt"
	"log/slog"

	"postvault/internal/config"
	"postvault/internal/domain"
	"postvault/internal/domain/repositories"
	"postvault/internal/repository/github"
	"postvault/internal/repository/memory"
	"postvault/internal/secrets"
)

// Factory builds a ContentStore per request from that request's secrets.
// The memory backend is shared by every request of the process.
type Factory struct {
	cfg    config.StoreConfig
	memory *memory.Store
	log    *slog.Logger
}

// NewFactory creates a factory for the configured backend
func NewFactory(cfg config.StoreConfig, logger *slog.Logger) *Factory {
	f := &Factory{cfg: cfg, log: logger}
	if cfg.Backend == config.BackendMemory {
		f.memory = memory.NewStore()
	}
	return f
}

// Memory returns the shared in-memory store, nil for other backends
func (f *Factory) Memory() *memory.Store {
	return f.memory
}

// ForSecrets returns the store the request should write to. Repository
// coordinates in sec override the configured ones.
func (f *Factory) ForSecrets(sec *secrets.Secrets) (repositories.ContentStore, error) {
	if f.memory != nil {
		return f.memory, nil
	}
	if sec == nil {
		sec = &secrets.Secrets{}
	}

	repo := github.Repository{
		Owner:  firstNonEmpty(sec.GitHubOwner, f.cfg.Owner),
		Name:   firstNonEmpty(sec.GitHubRepo, f.cfg.Repo),
		Branch: firstNonEmpty(sec.GitHubBranch, f.cfg.Branch, "main"),
	}
	if sec.GitHubToken == "" {
		return nil, fmt.Errorf("%w: no GitHub token configured", domain.ErrStoreUnavailable)
	}
	if repo.Owner == "" || repo.Name == "" {
		return nil, fmt.Errorf("%w: GitHub owner and repository must be configured", domain.ErrStoreUnavailable)
	}

	return github.NewStoreWithURL(f.cfg.BaseURL, sec.GitHubToken, repo, f.cfg.Timeout, f.log), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
