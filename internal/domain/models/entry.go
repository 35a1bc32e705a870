package models

import "time"

// Category selects which vault document (and asset directory) an entry goes to
type Category string

const (
	CategoryWishlist Category = "wishlist"
	CategoryLiked    Category = "liked"
)

// Categories lists every valid category in a stable order
func Categories() []Category {
	return []Category{CategoryWishlist, CategoryLiked}
}

// IsValid reports whether c is a known category
func (c Category) IsValid() bool {
	switch c {
	case CategoryWishlist, CategoryLiked:
		return true
	}
	return false
}

func (c Category) String() string { return string(c) }

// AssetReference ties a post media item to its deterministic location in the store
type AssetReference struct {
	Index     int    `json:"index"` // 1-based, in media order
	SourceURL string `json:"sourceUrl"`
	Ext       string `json:"ext"`
	Path      string `json:"path"`
}

// Entry is everything needed to render one vault record
type Entry struct {
	Category     Category
	Date         time.Time // calendar date in the configured zone
	AuthorHandle string
	PostID       string
	Permalink    string
	Note         string
	Text         string
	Assets       []AssetReference
}
