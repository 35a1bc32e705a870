package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"postvault/internal/domain/models"
	"postvault/internal/secrets"
	"postvault/internal/service"
)

// AddOptions holds flags for the add command
type AddOptions struct {
	*RootOptions
	Category string
	Note     string
}

// NewAddCommand creates the add command
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <post-url>",
		Short: "Record a post in the vault",
		Long: `Record a post in the vault.

Images are stored first, then the entry is appended to the category's
document. With --store memory nothing leaves the process and the resulting
document is printed.

Example:
  vaultctl add https://x.com/someone/status/1234567890 --note "read later"
  vaultctl add https://x.com/someone/status/1234567890 --category liked --store memory`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Category, "category", string(models.CategoryWishlist), "vault category (wishlist|liked)")
	cmd.Flags().StringVarP(&opts.Note, "note", "n", "", "note recorded with the entry")

	return cmd
}

func runAdd(cmd *cobra.Command, opts *AddOptions, rawURL string) error {
	category := models.Category(opts.Category)
	if !category.IsValid() {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid category %q: must be one of %v", opts.Category, models.Categories()))
	}

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	logger, closer, err := newLogger(opts.RootOptions, cfg, cmd.ErrOrStderr())
	if err != nil {
		return WrapExitError(ExitCommandError, "set up logging", err)
	}
	defer closer.Close()

	out := opts.formatter(cmd)
	stores := service.SetupStores(cfg, logger)
	engine := service.SetupEngine(cfg, secrets.NewSource(cfg.Secrets.File), stores, logger)

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Server.RequestTimeout)
	defer cancel()

	committer, err := engine.Committer(ctx)
	if err != nil {
		return err
	}
	out.VerboseLog("store backend: %s", cfg.Store.Backend)

	result, err := committer.Commit(ctx, &models.AddEntryRequest{
		Category: category,
		URL:      rawURL,
		Note:     opts.Note,
	})
	if err != nil {
		return err
	}

	lines := []string{fmt.Sprintf("Added post %s to %s", result.PostID, result.Category)}
	for _, p := range result.Paths {
		lines = append(lines, "  "+p)
	}
	if mem := stores.Memory(); mem != nil {
		doc, err := mem.Get(ctx, result.DocumentPath)
		if err == nil {
			lines = append(lines, "", "dry run, "+result.DocumentPath+" would read:", "", string(doc.Content))
		}
	}

	return out.Success(result, lines...)
}
