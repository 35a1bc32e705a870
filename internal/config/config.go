package config

import (
	"strconv"
	"strings"
	"time"
)

// Config is the root application configuration
type Config struct {
	Environment string `yaml:"environment" env:"ENVIRONMENT" env-default:"dev"`

	Server   ServerConfig   `yaml:"server"`
	CORS     CORSConfig     `yaml:"cors"`
	Log      LogConfig      `yaml:"log"`
	Resolver ResolverConfig `yaml:"resolver"`
	Media    MediaConfig    `yaml:"media"`
	Store    StoreConfig    `yaml:"store"`
	Vault    VaultConfig    `yaml:"vault"`
	Retry    RetryConfig    `yaml:"retry"`
	Secrets  SecretsConfig  `yaml:"secrets"`
	Limit    RateLimit      `yaml:"rate_limit"`

	location *time.Location // resolved from Vault.TimeZone by Validate
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"HOST"                    env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"PORT"                    env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"90s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"15s"`
	// RequestTimeout is the whole budget of one commit
	RequestTimeout time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT" env-default:"60s"`
	// CallTimeout bounds every single outbound call inside a commit
	CallTimeout time.Duration `yaml:"call_timeout" env:"CALL_TIMEOUT" env-default:"15s"`
}

// Addr returns host:port for net/http
func (s ServerConfig) Addr() string {
	return s.Host + ":" + strconv.Itoa(s.Port)
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins string `yaml:"allowed_origins" env:"CORS_ORIGINS" env-default:"*"`
	MaxAge         int    `yaml:"max_age"         env:"CORS_MAX_AGE" env-default:"600"`
}

// Origins splits AllowedOrigins on commas
func (c CORSConfig) Origins() []string {
	return splitList(c.AllowedOrigins)
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
	// Dir enables a timestamped log file next to stderr output
	Dir      string `yaml:"dir"       env:"LOG_DIR"`
	MaxFiles int    `yaml:"max_files" env:"LOG_MAX_FILES" env-default:"10"`
}

// ResolverConfig points at the post lookup service
type ResolverConfig struct {
	BaseURL string        `yaml:"base_url" env:"VXTWITTER_BASE_URL" env-default:"https://api.vxtwitter.com"`
	Timeout time.Duration `yaml:"timeout"  env:"RESOLVER_TIMEOUT"   env-default:"10s"`
}

// MediaConfig bounds media downloads
type MediaConfig struct {
	MaxBytes int64         `yaml:"max_bytes" env:"MEDIA_MAX_BYTES" env-default:"20971520"`
	Timeout  time.Duration `yaml:"timeout"   env:"MEDIA_TIMEOUT"   env-default:"30s"`
}

// Store backends
const (
	BackendGitHub = "github"
	BackendMemory = "memory"
)

// StoreConfig selects and addresses the content store. Owner, repo and
// branch here are fallbacks; the secrets source wins when it sets them.
type StoreConfig struct {
	Backend string        `yaml:"backend"  env:"STORE_BACKEND"   env-default:"github"`
	BaseURL string        `yaml:"base_url" env:"GITHUB_API_URL"  env-default:"https://api.github.com"`
	Owner   string        `yaml:"owner"    env:"GITHUB_OWNER"`
	Repo    string        `yaml:"repo"     env:"GITHUB_REPO"`
	Branch  string        `yaml:"branch"   env:"GITHUB_BRANCH"   env-default:"main"`
	Timeout time.Duration `yaml:"timeout"  env:"GITHUB_TIMEOUT"  env-default:"15s"`
}

// VaultConfig lays out the vault repository
type VaultConfig struct {
	WishlistPath   string `yaml:"wishlist_path"    env:"VAULT_WISHLIST_PATH"    env-default:"wishlist.md"`
	AssetsDir      string `yaml:"assets_dir"       env:"VAULT_ASSETS_DIR"       env-default:"assets"`
	LikedPath      string `yaml:"liked_path"       env:"VAULT_LIKED_PATH"       env-default:"Liked/tweets.md"`
	LikedAssetsDir string `yaml:"liked_assets_dir" env:"VAULT_LIKED_ASSETS_DIR" env-default:"Liked/assets"`
	TimeZone       string `yaml:"time_zone"        env:"VAULT_TIME_ZONE"        env-default:"UTC"`
}

// RetryConfig is the append retry policy
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" env:"RETRY_MAX_ATTEMPTS" env-default:"5"`
	Base        time.Duration `yaml:"base"         env:"RETRY_BASE"         env-default:"200ms"`
	Cap         time.Duration `yaml:"cap"          env:"RETRY_CAP"          env-default:"3s"`
	Jitter      time.Duration `yaml:"jitter"       env:"RETRY_JITTER"       env-default:"250ms"`
}

// SecretsConfig locates credentials. Without a file, credentials come from
// the API_KEY and GITHUB_TOKEN environment variables.
type SecretsConfig struct {
	File string `yaml:"file" env:"SECRETS_FILE"`
}

// RateLimit is a per-client token bucket in front of the commit endpoints
type RateLimit struct {
	Enabled bool    `yaml:"enabled" env:"RATE_LIMIT_ENABLED" env-default:"true"`
	RPS     float64 `yaml:"rps"     env:"RATE_LIMIT_RPS"     env-default:"1"`
	Burst   int     `yaml:"burst"   env:"RATE_LIMIT_BURST"   env-default:"10"`
}

// Location is the zone entry dates are computed in
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// IsDev reports whether the service runs in the development environment
func (c *Config) IsDev() bool {
	return c.Environment == "dev"
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
