package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors. Every failure surfaced by a commit unwraps to exactly one of
// the first seven; the store-level ones never leave the vault package unwrapped.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrAuthFailure         = errors.New("authentication failed")
	ErrPostUnavailable     = errors.New("post unavailable")
	ErrUpstreamUnreachable = errors.New("upstream unreachable")
	ErrAssetUploadFailed   = errors.New("asset upload failed")
	ErrAppendConflict      = errors.New("append conflict")
	ErrStoreUnavailable    = errors.New("store unavailable")

	ErrObjectNotFound  = errors.New("object not found")
	ErrVersionConflict = errors.New("version conflict")
)

// ValidationError indicates invalid caller input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) StatusCode() int { return http.StatusBadRequest }

// Is allows errors.Is() to match against ErrInvalidInput
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ConflictError is returned by a content store when a conditional write lost
// the race: the object's version no longer matches the expected one.
type ConflictError struct {
	Path     string
	Expected string // empty means the writer expected the object to be absent
	Current  string // empty means the object does not exist
}

func (e *ConflictError) Error() string {
	expected := e.Expected
	if expected == "" {
		expected = "<absent>"
	}
	current := e.Current
	if current == "" {
		current = "<absent>"
	}
	return fmt.Sprintf("version conflict on %s: expected %s, current %s", e.Path, expected, current)
}

func (e *ConflictError) StatusCode() int { return http.StatusConflict }

// Is allows errors.Is() to match against ErrVersionConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrVersionConflict
}

// AssetUploadError reports which media item failed to land in the store.
type AssetUploadError struct {
	Index int // 1-based
	Path  string
	Err   error
}

func (e *AssetUploadError) Error() string {
	return fmt.Sprintf("asset %d (%s): %v", e.Index, e.Path, e.Err)
}

func (e *AssetUploadError) StatusCode() int { return http.StatusBadGateway }

func (e *AssetUploadError) Is(target error) bool {
	return target == ErrAssetUploadFailed
}

func (e *AssetUploadError) Unwrap() error { return e.Err }

// CommitError annotates a failed commit with the stage it failed in.
type CommitError struct {
	Stage  string
	PostID string
	Err    error
}

func (e *CommitError) Error() string {
	if e.PostID == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s (post %s): %v", e.Stage, e.PostID, e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }
