package resolver

import (
	"fmt"
	"regexp"
	"strings"

	"postvault/internal/domain"
)

var (
	statusURLPattern = regexp.MustCompile(`^https?://(?:www\.|m\.|mobile\.)?(?:twitter\.com|x\.com)/(\w+)/status/(\d+)(?:/.*)?$`)
	webURLPattern    = regexp.MustCompile(`^https?://(?:www\.|m\.|mobile\.)?(?:twitter\.com|x\.com)/i/web/status/(\d+)(?:/.*)?$`)
)

// PostURL is a recognised post link
type PostURL struct {
	Handle string // "i" for /i/web/status links, which carry no author
	ID     string
}

// Canonical returns the x.com permalink for the post
func (u PostURL) Canonical() string {
	if u.Handle == "i" {
		return "https://x.com/i/web/status/" + u.ID
	}
	return fmt.Sprintf("https://x.com/%s/status/%s", u.Handle, u.ID)
}

// ParsePostURL extracts author handle and post id without any network access.
// Query string and fragment are ignored.
func ParsePostURL(raw string) (PostURL, error) {
	s := strings.TrimSpace(raw)
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}

	// /i/web/status must be tried first: "i" also matches the handle pattern
	if m := webURLPattern.FindStringSubmatch(s); m != nil {
		return PostURL{Handle: "i", ID: m[1]}, nil
	}
	if m := statusURLPattern.FindStringSubmatch(s); m != nil {
		return PostURL{Handle: m[1], ID: m[2]}, nil
	}
	return PostURL{}, &domain.ValidationError{Field: "url", Message: "not a recognised post URL"}
}

// IsPostURL reports whether raw is a recognised post link
func IsPostURL(raw string) bool {
	_, err := ParsePostURL(raw)
	return err == nil
}
