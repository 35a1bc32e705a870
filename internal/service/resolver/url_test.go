package resolver

import (
	"testing"

	"postvault/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePostURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		raw    string
		handle string
		id     string
	}{
		{"x.com", "https://x.com/jack/status/20", "jack", "20"},
		{"twitter.com", "https://twitter.com/jack/status/20", "jack", "20"},
		{"www prefix", "https://www.twitter.com/jack/status/20", "jack", "20"},
		{"mobile prefix", "https://mobile.twitter.com/jack/status/20", "jack", "20"},
		{"m prefix", "http://m.x.com/jack/status/20", "jack", "20"},
		{"query stripped", "https://x.com/jack/status/20?s=46&t=abc", "jack", "20"},
		{"photo suffix", "https://x.com/jack/status/20/photo/1", "jack", "20"},
		{"web status", "https://x.com/i/web/status/1234567890", "i", "1234567890"},
		{"surrounding space", "  https://x.com/jack/status/20\n", "jack", "20"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParsePostURL(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.handle, got.Handle)
			assert.Equal(t, tt.id, got.ID)
		})
	}
}

func TestParsePostURL_Rejects(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{
		"",
		"not a url",
		"https://example.com/jack/status/20",
		"https://x.com/jack",
		"https://x.com/jack/status/abc",
		"https://x.com/jack/status/20abc",
		"ftp://x.com/jack/status/20",
		"https://evilx.com/jack/status/20",
	} {
		_, err := ParsePostURL(raw)
		require.ErrorIs(t, err, domain.ErrInvalidInput, raw)
		assert.False(t, IsPostURL(raw), raw)
	}
}

func TestPostURL_Canonical(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://x.com/jack/status/20", PostURL{Handle: "jack", ID: "20"}.Canonical())
	assert.Equal(t, "https://x.com/i/web/status/20", PostURL{Handle: "i", ID: "20"}.Canonical())
}
