package vault

import (
	"fmt"
	"math/rand/v2"
	"time"

	"postvault/internal/domain/models"
)

// CategoryConfig routes one category to its document and asset directory
type CategoryConfig struct {
	DocumentPath string
	AssetsDir    string
	Label        string // used in commit messages
}

// RetryPolicy bounds the optimistic append loop. The delay before retry n is
// min(Base*2^(n-1), Cap) plus a uniform jitter in [0, Jitter).
type RetryPolicy struct {
	MaxAttempts int
	Base        time.Duration
	Cap         time.Duration
	Jitter      time.Duration
}

// Config is everything the commit engine needs at construction
type Config struct {
	Categories  map[models.Category]CategoryConfig
	Retry       RetryPolicy
	CallTimeout time.Duration // per outbound call, shorter than the request budget
	Location    *time.Location

	Now  func() time.Time    // defaults to time.Now
	Rand func(n int64) int64 // jitter source, defaults to math/rand/v2
}

// DefaultConfig mirrors the stock vault layout
func DefaultConfig() Config {
	return Config{
		Categories: map[models.Category]CategoryConfig{
			models.CategoryWishlist: {DocumentPath: "wishlist.md", AssetsDir: "assets", Label: "wishlist"},
			models.CategoryLiked:    {DocumentPath: "Liked/tweets.md", AssetsDir: "Liked/assets", Label: "liked post"},
		},
		Retry: RetryPolicy{
			MaxAttempts: 5,
			Base:        200 * time.Millisecond,
			Cap:         3 * time.Second,
			Jitter:      250 * time.Millisecond,
		},
		CallTimeout: 10 * time.Second,
		Location:    time.UTC,
	}
}

func (c *Config) withDefaults() {
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Rand == nil {
		c.Rand = rand.Int64N
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = 10 * time.Second
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = 1
	}
}

// Category returns the routing for cat
func (c *Config) Category(cat models.Category) (CategoryConfig, error) {
	if !cat.IsValid() {
		return CategoryConfig{}, fmt.Errorf("unknown category %q", cat)
	}
	cc, ok := c.Categories[cat]
	if !ok || cc.DocumentPath == "" {
		return CategoryConfig{}, fmt.Errorf("category %q is not configured", cat)
	}
	if cc.Label == "" {
		cc.Label = string(cat)
	}
	return cc, nil
}
