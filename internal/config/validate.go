package config

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"
)

// Validate performs business-rule validation on the loaded configuration and
// resolves derived values. Load calls it automatically.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendGitHub, BackendMemory:
	default:
		return fmt.Errorf("store.backend must be %q or %q (got %q)", BackendGitHub, BackendMemory, c.Store.Backend)
	}

	for name, raw := range map[string]string{
		"resolver.base_url": c.Resolver.BaseURL,
		"store.base_url":    c.Store.BaseURL,
	} {
		if err := validateBaseURL(raw); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	if err := c.Vault.validate(); err != nil {
		return fmt.Errorf("vault: %w", err)
	}
	loc, err := time.LoadLocation(c.Vault.TimeZone)
	if err != nil {
		return fmt.Errorf("vault.time_zone: %w", err)
	}
	c.location = loc

	if err := c.Retry.validate(); err != nil {
		return fmt.Errorf("retry: %w", err)
	}

	if c.Server.CallTimeout <= 0 || c.Server.RequestTimeout <= 0 {
		return errors.New("server: call_timeout and request_timeout must be > 0")
	}
	if c.Server.CallTimeout >= c.Server.RequestTimeout {
		return fmt.Errorf("server: call_timeout (%s) must be shorter than request_timeout (%s)",
			c.Server.CallTimeout, c.Server.RequestTimeout)
	}

	if c.Media.MaxBytes <= 0 {
		return fmt.Errorf("media.max_bytes must be > 0 (got %d)", c.Media.MaxBytes)
	}

	if c.Limit.Enabled && (c.Limit.RPS <= 0 || c.Limit.Burst <= 0) {
		return fmt.Errorf("rate_limit: rps and burst must be > 0 (got %v, %d)", c.Limit.RPS, c.Limit.Burst)
	}

	return nil
}

func (v *VaultConfig) validate() error {
	for name, p := range map[string]string{
		"wishlist_path":    v.WishlistPath,
		"assets_dir":       v.AssetsDir,
		"liked_path":       v.LikedPath,
		"liked_assets_dir": v.LikedAssetsDir,
	} {
		if err := validateRepoPath(p); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if v.WishlistPath == v.LikedPath {
		return errors.New("wishlist_path and liked_path must differ")
	}
	return nil
}

func (r *RetryConfig) validate() error {
	if r.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be >= 1 (got %d)", r.MaxAttempts)
	}
	if r.Base < 0 || r.Cap < 0 || r.Jitter < 0 {
		return errors.New("base, cap and jitter must not be negative")
	}
	if r.Cap > 0 && r.Base > r.Cap {
		return fmt.Errorf("base (%s) must not exceed cap (%s)", r.Base, r.Cap)
	}
	return nil
}

// validateRepoPath accepts relative slash-separated paths inside the repository
func validateRepoPath(p string) error {
	if strings.TrimSpace(p) == "" {
		return errors.New("must not be empty")
	}
	if strings.HasPrefix(p, "/") {
		return errors.New("must be relative to the repository root")
	}
	if clean := path.Clean(p); clean == ".." || strings.HasPrefix(clean, "../") {
		return errors.New("must stay inside the repository")
	}
	return nil
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https (got %q)", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}
