package vault

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"postvault/internal/domain/models"
)

var errMalformedEntry = errors.New("malformed entry")

// RenderEntry renders one vault record. The output always ends with a
// newline and depends on nothing but e.
func RenderEntry(e *models.Entry) (string, error) {
	if e == nil {
		return "", fmt.Errorf("%w: nil entry", errMalformedEntry)
	}
	if e.PostID == "" {
		return "", fmt.Errorf("%w: missing post id", errMalformedEntry)
	}
	if !e.Category.IsValid() {
		return "", fmt.Errorf("%w: invalid category %q", errMalformedEntry, e.Category)
	}
	if e.Date.IsZero() {
		return "", fmt.Errorf("%w: missing date", errMalformedEntry)
	}

	var b strings.Builder

	title := "post " + e.PostID
	if e.AuthorHandle != "" {
		title = "@" + e.AuthorHandle
	}
	fmt.Fprintf(&b, "- %s [%s](%s)\n", e.Date.Format(time.DateOnly), title, e.Permalink)

	if note := normalizeLine(e.Note); note != "" {
		fmt.Fprintf(&b, "  - note: %s\n", note)
	}

	if text := NormalizeText(e.Text); text != "" {
		b.WriteString("  - text:\n")
		for _, line := range strings.Split(text, "\n") {
			fmt.Fprintf(&b, "    > %s\n", line)
		}
	}

	fmt.Fprintf(&b, "  - original: %s\n", e.Permalink)

	if len(e.Assets) > 0 {
		b.WriteString("  - images:\n")
		for _, a := range e.Assets {
			fmt.Fprintf(&b, "    - ![[%s]]\n", a.Path)
		}
	}

	return b.String(), nil
}

// NormalizeText turns free post text into clean lines: escaped "\n"
// sequences become real line breaks, whitespace runs collapse to one space,
// control characters are dropped, blank lines disappear and the result is
// NFC-normalized.
func NormalizeText(s string) string {
	s = strings.ReplaceAll(s, `\n`, "\n")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = norm.NFC.String(s)

	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = normalizeLine(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func normalizeLine(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// AssetPath is <dir>/<YYYY-MM>/<postID>_<index>.<ext>
func AssetPath(dir string, date time.Time, postID string, index int, ext string) string {
	return path.Join(dir, date.Format("2006-01"), fmt.Sprintf("%s_%d.%s", postID, index, ext))
}

var imageExtensions = map[string]bool{"jpg": true, "jpeg": true, "png": true, "webp": true, "gif": true}

// ExtensionFromURL picks the file extension from the media URL alone, so the
// same media always maps to the same path: path suffix first, then the
// "format" query parameter used by image CDNs, else jpg.
func ExtensionFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "jpg"
	}
	if ext := strings.TrimPrefix(strings.ToLower(path.Ext(u.Path)), "."); imageExtensions[ext] {
		return ext
	}
	if ext := strings.ToLower(u.Query().Get("format")); imageExtensions[ext] {
		return ext
	}
	return "jpg"
}

// BuildAssets assigns every media item its deterministic store path
func BuildAssets(dir string, date time.Time, postID string, media []models.Media) []models.AssetReference {
	assets := make([]models.AssetReference, 0, len(media))
	for i, m := range media {
		ext := ExtensionFromURL(m.URL)
		assets = append(assets, models.AssetReference{
			Index:     i + 1,
			SourceURL: m.URL,
			Ext:       ext,
			Path:      AssetPath(dir, date, postID, i+1, ext),
		})
	}
	return assets
}

// AppendEntry returns existing with entry appended. Existing content is
// terminated with a newline first and the result always ends with one.
func AppendEntry(existing []byte, entry string) []byte {
	out := make([]byte, 0, len(existing)+len(entry)+2)
	out = append(out, existing...)
	if len(out) > 0 && out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}
	out = append(out, entry...)
	if len(out) > 0 && out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}
	return out
}
