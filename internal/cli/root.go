// Package cli implements vaultctl, the scripting front end of the commit
// engine.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"postvault/internal/config"
)

// RootOptions holds global flags for all commands
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	Store      string // overrides store.backend when set
}

// ValidFormats defines the allowed output formats
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the vaultctl root command
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "vaultctl",
		Short: "Record posts into a markdown vault",
		Long: `vaultctl resolves a post URL, stores its images and appends an entry
to the vault document of the chosen category, exactly like the HTTP API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if opts.Store != "" && opts.Store != config.BackendGitHub && opts.Store != config.BackendMemory {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid store %q: must be %s or %s", opts.Store, config.BackendGitHub, config.BackendMemory))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default $CONFIG_PATH or ./config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.Store, "store", "", "store backend override (github|memory)")

	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewResolveCommand(opts))
	cmd.AddCommand(NewAssetPathCommand(opts))

	return cmd
}

// loadConfig reads configuration and applies the global flag overrides
func loadConfig(opts *RootOptions) (*config.Config, error) {
	path := opts.ConfigPath
	var (
		cfg *config.Config
		err error
	)
	if path == "" {
		cfg, err = config.Load()
	} else {
		cfg, err = config.LoadFrom(path)
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load configuration", err)
	}
	if opts.Store != "" {
		cfg.Store.Backend = opts.Store
	}
	return cfg, nil
}

// newLogger keeps stderr quiet unless --verbose is set
func newLogger(opts *RootOptions, cfg *config.Config, stderr io.Writer) (*slog.Logger, io.Closer, error) {
	logCfg := cfg.Log
	logCfg.Format = "text"
	if opts.Verbose {
		logCfg.Level = "debug"
	} else {
		logCfg.Level = "error"
	}
	return config.NewLogger(logCfg, stderr)
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}
