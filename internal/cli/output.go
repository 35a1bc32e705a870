package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"postvault/internal/domain"
)

// Exit codes for CLI commands
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // The commit itself failed
	ExitCommandError = 2 // Bad flags, arguments or configuration
	ExitRetryable    = 3 // Transient failure, running again is safe
)

// ExitError carries the process exit code for a failed command
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error. Commit failures that are
// safe to retry map to ExitRetryable; anything unclassified is ExitFailure.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Code != ExitFailure {
		return exitErr.Code
	}
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return ExitCommandError
	case errors.Is(err, domain.ErrAppendConflict),
		errors.Is(err, domain.ErrAssetUploadFailed),
		errors.Is(err, domain.ErrUpstreamUnreachable),
		errors.Is(err, domain.ErrStoreUnavailable):
		return ExitRetryable
	}
	return ExitFailure
}

// errorCode names the error class in JSON output
func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrAuthFailure):
		return "auth_failure"
	case errors.Is(err, domain.ErrPostUnavailable):
		return "post_unavailable"
	case errors.Is(err, domain.ErrUpstreamUnreachable):
		return "upstream_unreachable"
	case errors.Is(err, domain.ErrAssetUploadFailed):
		return "asset_upload_failed"
	case errors.Is(err, domain.ErrAppendConflict):
		return "append_conflict"
	case errors.Is(err, domain.ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "internal"
	}
}

// OutputFormatter handles JSON vs text output for CLI commands
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // diagnostics, keeps JSON on Writer clean
	Verbose   bool
}

// CLIResponse is the JSON envelope of every command
type CLIResponse struct {
	Status string      `json:"status"` // "ok" or "error"
	Data   interface{} `json:"data,omitempty"`
	Error  *CLIError   `json:"error,omitempty"`
}

// CLIError is the error structure for CLI responses
type CLIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Success writes data as JSON, or text lines for the text format
func (f *OutputFormatter) Success(data interface{}, lines ...string) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	if len(lines) == 0 {
		_, err := fmt.Fprintln(f.Writer, data)
		return err
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(f.Writer, line); err != nil {
			return err
		}
	}
	return nil
}

// Error writes err in the configured format
func (f *OutputFormatter) Error(err error, details interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    errorCode(err),
				Message: err.Error(),
				Details: details,
			},
		})
	}

	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, "Error [%s]: %v\n", errorCode(err), err)
	if f.Verbose && details != nil {
		fmt.Fprintf(w, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog writes a diagnostic line in verbose mode only
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}
