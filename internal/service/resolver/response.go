package resolver

// apiPost is the subset of the vxtwitter status response we read
type apiPost struct {
	Text           string          `json:"text"`
	UserName       string          `json:"user_name"`
	UserScreenName string          `json:"user_screen_name"`
	TweetURL       string          `json:"tweetURL"`
	MediaURLs      []string        `json:"mediaURLs"`
	MediaExtended  []apiMediaEntry `json:"media_extended"`
	DateEpoch      int64           `json:"date_epoch"`
}

type apiMediaEntry struct {
	URL          string `json:"url"`
	Type         string `json:"type"`
	ThumbnailURL string `json:"thumbnail_url"`
	AltText      string `json:"altText"`
}
