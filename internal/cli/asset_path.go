package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"postvault/internal/domain/models"
	"postvault/internal/service"
	"postvault/internal/service/vault"
)

// AssetPathOptions holds flags for the asset-path command
type AssetPathOptions struct {
	*RootOptions
	Category string
	Index    int
	MediaURL string
	Date     string
}

// AssetPathResult is the JSON payload of asset-path
type AssetPathResult struct {
	PostID string `json:"postId"`
	Index  int    `json:"index"`
	Path   string `json:"path"`
}

// NewAssetPathCommand creates the asset-path command
func NewAssetPathCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AssetPathOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "asset-path <post-id>",
		Short: "Print where an image of a post is stored",
		Long: `Print where an image of a post is stored.

The path depends only on the category, the post date, the post id, the
image index and the media URL, so it can be computed without any lookup.

Example:
  vaultctl asset-path 1234567890 --index 2 --date 2024-01-15 --url "https://pbs.twimg.com/media/abc?format=png"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssetPath(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Category, "category", string(models.CategoryWishlist), "vault category (wishlist|liked)")
	cmd.Flags().IntVarP(&opts.Index, "index", "i", 1, "1-based image index")
	cmd.Flags().StringVar(&opts.MediaURL, "url", "", "media URL, decides the file extension (default jpg)")
	cmd.Flags().StringVar(&opts.Date, "date", "", "post publication date YYYY-MM-DD (default today)")

	return cmd
}

func runAssetPath(cmd *cobra.Command, opts *AssetPathOptions, postID string) error {
	postID = strings.TrimSpace(postID)
	if postID == "" || strings.ContainsAny(postID, "/\\ ") {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid post id %q", postID))
	}
	if opts.Index < 1 {
		return NewExitError(ExitCommandError, "index must be at least 1")
	}

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	vc := service.VaultConfig(cfg)
	routing, err := vc.Category(models.Category(opts.Category))
	if err != nil {
		return WrapExitError(ExitCommandError, "category", err)
	}

	date := time.Now().In(cfg.Location())
	if opts.Date != "" {
		date, err = time.ParseInLocation(time.DateOnly, opts.Date, cfg.Location())
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --date", err)
		}
	}

	ext := "jpg"
	if opts.MediaURL != "" {
		ext = vault.ExtensionFromURL(opts.MediaURL)
	}
	p := vault.AssetPath(routing.AssetsDir, date, postID, opts.Index, ext)

	return opts.formatter(cmd).Success(AssetPathResult{PostID: postID, Index: opts.Index, Path: p}, p)
}
