// Package cli wires the modeldeck commands together.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"modeldeck/internal/config"
)

// rootFlags are the persistent flags shared by every command
type rootFlags struct {
	configPath  string
	catalogPath string
	seedPath    string
	logLevel    string
}

func (f *rootFlags) apply(cfg *config.Config) {
	if f.catalogPath != "" {
		cfg.CatalogPath = f.catalogPath
	}
	if f.seedPath != "" {
		cfg.SeedPath = f.seedPath
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "modeldeck",
		Short: "Browse and search a local catalog of language models",
		Long: `modeldeck is a terminal browser for a local catalog of language models.

Typing searches as you go; only one query runs against the catalog at a time
and keystrokes made meanwhile collapse into a single follow-up query.

Examples:
  modeldeck                          # open the browser
  modeldeck search llama             # print matches and exit
  modeldeck featured                 # print featured models
  modeldeck import ./models.yaml     # load a seed file into the catalog`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default is the per-user config.toml)")
	pf.StringVar(&flags.catalogPath, "catalog", "", "catalog database path")
	pf.StringVar(&flags.seedPath, "seed", "", "seed file (.toml/.yaml) imported at start and watched for changes")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(newSearchCmd(flags), newFeaturedCmd(flags), newImportCmd(flags))
	return root
}

// Execute runs the root command with SIGINT/SIGTERM cancelling its context
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}
