package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"firemaps/pkg/auth"
	"firemaps/pkg/config"
	errs "firemaps/pkg/errors"
	"firemaps/pkg/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage firemaps configuration.

Configuration is merged from, highest priority first:
  - command line flags
  - FIREMAPS_* environment variables (and a .env file)
  - firemaps.local.yaml next to the configuration file
  - the configuration file
  - built-in defaults`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with every default",
	Long: `Write a configuration file holding every option at its default value.

The file is created as firemaps.yaml in the current directory unless --config
names another path. An existing file is never overwritten.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration for invalid values",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = "firemaps.yaml"
	}
	if _, err := os.Stat(path); err == nil {
		return errs.New(errs.ErrorTypeConfig, fmt.Sprintf("configuration file already exists: %s", path))
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return errs.Wrap(errs.ErrorTypeConfig, err, "failed to create configuration file")
	}

	ui.PrintSuccess("Configuration file created: " + path)
	ui.PrintInfo("Local overrides", config.LocalOverridePath(path))
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}

	display := *cfg
	if display.Source.ShareToken != "" {
		display.Source.ShareToken = auth.Mask(display.Source.ShareToken)
	}

	data, err := yaml.Marshal(&display)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeConfig, err, "failed to format configuration")
	}
	ui.PrintPlain(string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}

	if cfg.Token() == "" {
		ui.PrintWarning("No shared-link token configured", "generate will fall back to the token store")
	}
	ui.PrintSuccess("Configuration is valid")
	ui.RenderKeyValues(ui.Output(), "Summary", [][2]interface{}{
		{"Shared URL", cfg.Source.SharedURL},
		{"Catalog", cfg.Output.CatalogPath},
		{"Schema", cfg.Output.SchemaPath},
		{"Max attempts", cfg.Retry.MaxAttempts},
		{"Challenge status", cfg.Challenge.Status},
		{"Pacing", fmt.Sprintf("%s + up to %s", cfg.Pacing.MinDelay, cfg.Pacing.Jitter)},
		{"Link workers", cfg.LinkCheck.Workers},
		{"Log level", cfg.Logging.Level},
	})
	return nil
}
