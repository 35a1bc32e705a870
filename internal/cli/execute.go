package cli

import (
	"context"
	"errors"
	"io"

	"postvault/internal/domain"
)

// Execute runs vaultctl with args and returns the process exit code. Errors
// are reported on out in the format chosen by --format.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	format, _ := cmd.PersistentFlags().GetString("format")
	if format != "json" {
		format = "text"
	}
	out := &OutputFormatter{Format: format, Writer: stdout, ErrWriter: stderr}

	var details map[string]string
	var commitErr *domain.CommitError
	if errors.As(err, &commitErr) {
		details = map[string]string{"stage": commitErr.Stage}
		if commitErr.PostID != "" {
			details["postId"] = commitErr.PostID
		}
	}
	out.Error(err, details)

	return GetExitCode(err)
}
