package models

import "time"

// MediaKind classifies a media item attached to a post
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
	MediaGIF   MediaKind = "gif"
)

// Media is one downloadable item of a post. For videos and gifs URL points at
// the still thumbnail, which is what ends up in the vault.
type Media struct {
	URL     string    `json:"url"`
	Kind    MediaKind `json:"kind"`
	AltText string    `json:"altText,omitempty"`
}

// Post is the resolved content of a social-media post
type Post struct {
	ID           string    `json:"id"` // numeric string, always set
	AuthorName   string    `json:"authorName"`
	AuthorHandle string    `json:"authorHandle"`
	Text         string    `json:"text"` // may contain line breaks
	Media        []Media   `json:"media"`
	Permalink    string    `json:"permalink"`
	// CreatedAt is when the post was published; zero when the lookup
	// service did not say.
	CreatedAt    time.Time `json:"createdAt,omitzero"`
}

// HasContent reports whether the post carries anything worth recording
func (p *Post) HasContent() bool {
	return p.Text != "" || len(p.Media) > 0
}
