// Package secrets provides credentials to each request. Sources are read on
// every call so rotated credentials apply without a restart.
package secrets

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Secrets are the credentials one request runs with. Empty repository fields
// fall back to configuration.
type Secrets struct {
	APIKey       string `yaml:"API_KEY"`
	GitHubToken  string `yaml:"GITHUB_TOKEN"`
	GitHubOwner  string `yaml:"GITHUB_OWNER"`
	GitHubRepo   string `yaml:"GITHUB_REPO"`
	GitHubBranch string `yaml:"GITHUB_BRANCH"`
}

// Source loads the current secrets
type Source interface {
	Load(ctx context.Context) (*Secrets, error)
}

// FileSource reads a YAML or JSON document of secrets
type FileSource struct {
	path string
}

// NewFileSource creates a source for the file at path
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Load reads and parses the file
func (s *FileSource) Load(ctx context.Context) (*Secrets, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("secrets: read %s: %w", s.path, err)
	}

	// JSON documents are valid YAML
	var sec Secrets
	if err := yaml.Unmarshal(data, &sec); err != nil {
		return nil, fmt.Errorf("secrets: parse %s: %w", s.path, err)
	}
	return &sec, nil
}

// EnvSource reads secrets from environment variables of the same names
type EnvSource struct {
	lookup func(string) string
}

// NewEnvSource creates a source over the process environment
func NewEnvSource() *EnvSource {
	return &EnvSource{lookup: os.Getenv}
}

// Load snapshots the environment
func (s *EnvSource) Load(ctx context.Context) (*Secrets, error) {
	return &Secrets{
		APIKey:       s.lookup("API_KEY"),
		GitHubToken:  s.lookup("GITHUB_TOKEN"),
		GitHubOwner:  s.lookup("GITHUB_OWNER"),
		GitHubRepo:   s.lookup("GITHUB_REPO"),
		GitHubBranch: s.lookup("GITHUB_BRANCH"),
	}, nil
}

// Static always returns the same secrets
type Static Secrets

// Load returns a copy of s
func (s Static) Load(ctx context.Context) (*Secrets, error) {
	sec := Secrets(s)
	return &sec, nil
}

// NewSource returns a FileSource when path is set, else an EnvSource
func NewSource(path string) Source {
	if path != "" {
		return NewFileSource(path)
	}
	return NewEnvSource()
}

type contextKey struct{}

// WithContext attaches already-loaded secrets to ctx
func WithContext(ctx context.Context, sec *Secrets) context.Context {
	return context.WithValue(ctx, contextKey{}, sec)
}

// FromContext returns secrets attached by WithContext
func FromContext(ctx context.Context) (*Secrets, bool) {
	sec, ok := ctx.Value(contextKey{}).(*Secrets)
	return sec, ok && sec != nil
}
