package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"postvault/internal/secrets"
	"postvault/internal/service"
)

// NewResolveCommand creates the resolve command
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <post-url>",
		Short: "Look a post up without recording it",
		Long: `Look a post up without recording it.

Prints the author, text and media the add command would record.

Example:
  vaultctl resolve https://x.com/someone/status/1234567890 --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, rootOpts, args[0])
		},
	}
}

func runResolve(cmd *cobra.Command, opts *RootOptions, rawURL string) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger, closer, err := newLogger(opts, cfg, cmd.ErrOrStderr())
	if err != nil {
		return WrapExitError(ExitCommandError, "set up logging", err)
	}
	defer closer.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Server.RequestTimeout)
	defer cancel()

	engine := service.SetupEngine(cfg, secrets.NewSource(cfg.Secrets.File), service.SetupStores(cfg, logger), logger)
	post, err := engine.Resolver().Resolve(ctx, rawURL)
	if err != nil {
		return err
	}

	author := "@" + post.AuthorHandle
	if post.AuthorHandle == "" {
		author = "(unknown)"
	}
	lines := []string{
		"id:        " + post.ID,
		"author:    " + author,
		"permalink: " + post.Permalink,
	}
	if post.Text != "" {
		lines = append(lines, "text:      "+post.Text)
	}
	for i, m := range post.Media {
		lines = append(lines, fmt.Sprintf("media %d:   %s (%s)", i+1, m.URL, m.Kind))
	}

	return opts.formatter(cmd).Success(post, lines...)
}
