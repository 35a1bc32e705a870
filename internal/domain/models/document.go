package models

// Version is an opaque object version token issued by a content store.
// The zero value is the absent version: writing with it means "create".
type Version struct {
	token string
}

// NoVersion marks an object that does not exist yet
var NoVersion = Version{}

// NewVersion wraps a store-issued token. An empty token yields NoVersion.
func NewVersion(token string) Version {
	return Version{token: token}
}

// Exists reports whether the version refers to an existing object
func (v Version) Exists() bool { return v.token != "" }

// Token returns the raw token, empty for NoVersion
func (v Version) Token() string { return v.token }

func (v Version) String() string {
	if !v.Exists() {
		return "<absent>"
	}
	return v.token
}

// DocumentState is a snapshot of a stored object
type DocumentState struct {
	Path    string
	Content []byte
	Version Version
}
