package main

import (
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"firemaps/pkg/catalog"
	errs "firemaps/pkg/errors"
	"firemaps/pkg/linkcheck"
	"firemaps/pkg/logger"
	"firemaps/pkg/ui"
	"firemaps/pkg/validate"
)

var (
	valSchema  string
	valCatalog string
	valLinks   bool
	valWorkers int
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the catalog against its JSON schema",
	Long: `Validate the catalog against a JSON schema and, with --links, check that
every image and archive URL in it answers 200.

Exit codes:
  0  catalog valid (and all links reachable)
  2  schema or catalog file missing or not JSON
  3  schema malformed or catalog does not conform
  4  one or more links unreachable`,
	Example: `  # Validate with the default paths
  firemaps validate

  # Validate and probe every link with 20 workers
  firemaps validate --links --workers 20

  # Use the built-in schema
  firemaps validate --schema "" --catalog build/schema.json`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&valSchema, "schema", "", "JSON schema path (default schema.spec.json, empty string for the built-in schema)")
	validateCmd.Flags().StringVar(&valCatalog, "catalog", "", "catalog path (default schema.json)")
	validateCmd.Flags().BoolVar(&valLinks, "links", false, "also check that every URL answers 200")
	validateCmd.Flags().IntVar(&valWorkers, "workers", 0, "concurrent link probes (default 10)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(map[string]interface{}{
		"schema":  valSchema,
		"catalog": valCatalog,
		"workers": valWorkers,
	})
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("schema") && valSchema == "" {
		cfg.Output.SchemaPath = ""
	}
	log := logger.GetLogger()

	v := validate.NewValidator(log)
	if err := v.ValidateFiles(cfg.Output.SchemaPath, cfg.Output.CatalogPath); err != nil {
		if violations := validate.ViolationsOf(err); len(violations) > 0 {
			t := ui.NewTable(ui.Output(), "Path", "Problem")
			t.SetTitle("Schema validation: FAILED")
			for _, vi := range violations {
				t.AppendRow(table.Row{vi.Path, vi.Message})
			}
			t.Render()
		}
		return err
	}
	ui.PrintPlain(ui.Green("Schema validation: OK"))

	if !valLinks {
		return nil
	}

	cat, err := catalog.Load(cfg.Output.CatalogPath)
	if err != nil {
		return err
	}

	report := linkcheck.NewChecker(cfg.LinkCheck, log).Check(cmd.Context(), cat)
	if ctxErr := cmd.Context().Err(); ctxErr != nil {
		return errs.Wrap(errs.ErrorTypeUnknown, ctxErr, "link check interrupted")
	}

	ui.PrintPlain(report.Summary())
	if len(report.Failures) > 0 {
		t := ui.NewTable(ui.Output(), "Link", "URL", "Status", "Error")
		t.SetTitle(fmt.Sprintf("%d unreachable", len(report.Failures)))
		for _, f := range report.Failures {
			status := "-"
			if f.Status > 0 {
				status = fmt.Sprintf("%d", f.Status)
			}
			t.AppendRow(table.Row{f.Job.Label, f.Job.URL, status, errText(f.Error)})
		}
		t.Render()
	} else {
		ui.PrintSuccess("All links reachable")
	}
	return report.Err()
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	var typed *errs.Error
	if errors.As(err, &typed) {
		return typed.Message
	}
	return err.Error()
}
