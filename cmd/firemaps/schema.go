package main

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	errs "firemaps/pkg/errors"
	"firemaps/pkg/storage"
	"firemaps/pkg/ui"
	"firemaps/pkg/validate"
)

var schemaOutput string

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Write the built-in catalog JSON schema",
	Long: `Write the JSON schema validate uses when no schema file is given, so it
can be versioned next to the catalog. Use --output - to print it instead.`,
	Args: cobra.NoArgs,
	RunE: runSchema,
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.Flags().StringVarP(&schemaOutput, "output", "o", "", "schema path (default schema.spec.json)")
}

func runSchema(cmd *cobra.Command, args []string) error {
	if schemaOutput == "-" {
		_, err := ui.Output().Write(validate.DefaultSchema())
		return err
	}

	cfg, err := loadConfig(map[string]interface{}{"schema": schemaOutput})
	if err != nil {
		return err
	}
	path := cfg.Output.SchemaPath
	if path == "" {
		return errs.New(errs.ErrorTypeConfig, "no schema path configured")
	}

	if err := storage.WriteAtomic(path, bytes.NewReader(validate.DefaultSchema())); err != nil {
		return errs.Wrap(errs.ErrorTypeUnknown, err, "failed to write schema")
	}
	ui.PrintSuccess(fmt.Sprintf("Wrote %s", path))
	return nil
}
