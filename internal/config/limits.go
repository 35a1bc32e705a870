package config

const (
	// MaxNoteLength is the maximum length of a note in runes.
	// Notes render on a single markdown line, so they stay short.
	MaxNoteLength = 500

	// MaxRequestBodyBytes caps inbound JSON bodies. A request is a URL and a
	// note, so anything near this limit is abuse.
	MaxRequestBodyBytes = 64 << 10

	// MaxURLLength bounds the post URL accepted from callers
	MaxURLLength = 2048
)
