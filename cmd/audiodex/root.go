package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/audiodex/internal/config"
	"github.com/kailas-cloud/audiodex/internal/version"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	env      string
	logLevel string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "audiodex",
		Short: "Content-based music descriptor search",
		Long: `audiodex - search music by tempo, tuning, duration, key, chords and mood.

Configuration is read from config/<ENV>.yaml (ENV defaults to "local").

Examples:
  # Run the API server
  audiodex serve

  # Import descriptor documents from local files or an S3-compatible bucket
  audiodex import --collection deezer --file ./exports
  audiodex import --collection deezer --bucket descriptors --prefix deezer/

  # Show the pipeline a search compiles to
  audiodex plan --collection deezer tempo=120-5% mood=happy`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.env, "env", config.GetEnv(), "configuration environment")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(flags),
		newImportCmd(flags),
		newPlanCmd(flags),
	)
	return root
}

// loadConfig reads and validates the configuration for the selected environment.
func (f *globalFlags) loadConfig() (config.Config, error) {
	cfg, err := config.Load(f.env)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if f.logLevel != "" {
		cfg.Logging.Level = f.logLevel
	}
	return cfg, nil
}
