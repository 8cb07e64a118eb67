package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"firemaps/pkg/config"
	errs "firemaps/pkg/errors"
	"firemaps/pkg/logger"
	"firemaps/pkg/ui"
)

var (
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	configFile string
	logLevel   string
	quiet      bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "firemaps",
	Short: "Build and check the wildfire species map catalog",
	Long: `firemaps turns a shared figshare folder of species fire maps into a JSON
catalog grouping every image under its species code, validates that catalog
against a JSON schema and can check that every link in it still resolves.

The catalog can also be built from a local directory tree with one folder per
species.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet {
			ui.SetQuietMode(true)
		}
		if cmd.Name() != "help" && cmd.Name() != "schema" {
			ui.PrintBanner()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./firemaps.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors and reports")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show debug logs instead of the progress line")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

func versionString() string {
	return fmt.Sprintf("%s (commit: %s, built: %s, %s %s/%s)",
		version, gitCommit, buildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// loadConfig merges flags over file and environment settings and sets up
// the global logger from the result
func loadConfig(flags map[string]interface{}) (*config.Config, error) {
	if flags == nil {
		flags = make(map[string]interface{})
	}
	switch {
	case logLevel != "":
		flags["log-level"] = logLevel
	case verbose:
		flags["log-level"] = "debug"
	case quiet:
		flags["log-level"] = "error"
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeConfig, err, "failed to load configuration")
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeConfig, err, "failed to initialize logger")
	}
	return cfg, nil
}
