package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"firemaps/pkg/auth"
	"firemaps/pkg/catalog"
	"firemaps/pkg/config"
	errs "firemaps/pkg/errors"
	"firemaps/pkg/localtree"
	"firemaps/pkg/logger"
	"firemaps/pkg/scraper"
	"firemaps/pkg/ui"
)

const (
	sourceRemote = "remote"
	sourceLocal  = "local"
)

var (
	genSource       string
	genOutput       string
	genLimit        int
	genDir          string
	genBaseURL      string
	genSpeciesNames string
	genToken        string
	genSharedURL    string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Build the species catalog",
	Long: `Build the species catalog and write it as JSON.

With --source remote (the default) the shared figshare folder is located, the
original filename of every file is recovered one request at a time, and files
named <species_code>_<label>.png are grouped by species. Files that cannot be
resolved or do not follow the naming convention are logged and left out.

With --source local the catalog is read from a directory with one folder per
species code instead.`,
	Example: `  # Scrape the configured shared folder
  firemaps generate

  # Try the pipeline on the first 10 files only
  firemaps generate --limit 10 --output /tmp/schema.json

  # Build from a local tree published under a base URL
  firemaps generate --source local --dir ./maps --base-url https://example.org/maps`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVar(&genSource, "source", sourceRemote, "where to read files from (remote, local)")
	generateCmd.Flags().StringVarP(&genOutput, "output", "o", "", "catalog output path (default schema.json)")
	generateCmd.Flags().IntVar(&genLimit, "limit", 0, "stop after this many identifiers (0 = all)")
	generateCmd.Flags().StringVar(&genDir, "dir", "", "root of the local species tree")
	generateCmd.Flags().StringVar(&genBaseURL, "base-url", "", "URL the local tree is published under")
	generateCmd.Flags().StringVar(&genSpeciesNames, "species-names", "", "species code to name lookup file")
	generateCmd.Flags().StringVar(&genToken, "token", "", "figshare shared-link token")
	generateCmd.Flags().StringVar(&genSharedURL, "shared-url", "", "figshare shared-folder URL")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	return generateError(generate(cmd))
}

// generateError gives every fatal generate error the generic exit status,
// including load failures of the species names or the local tree
func generateError(err error) error {
	if err == nil || errs.IsType(err, errs.ErrorTypeConfig) {
		return err
	}
	return errs.GenerateFailed(err)
}

func generate(cmd *cobra.Command) error {
	cfg, err := loadConfig(map[string]interface{}{
		"output":        genOutput,
		"limit":         genLimit,
		"dir":           genDir,
		"base-url":      genBaseURL,
		"species-names": genSpeciesNames,
		"token":         genToken,
		"shared-url":    genSharedURL,
	})
	if err != nil {
		return err
	}
	log := logger.GetLogger()

	names, err := catalog.LoadSpeciesNames(cfg.Output.SpeciesNamesPath)
	if err != nil {
		return err
	}

	var pairs [][2]interface{}
	switch genSource {
	case sourceRemote:
		pairs, err = generateRemote(cmd, cfg, names, log)
	case sourceLocal:
		pairs, err = generateLocal(cfg, names, log)
	default:
		return errs.New(errs.ErrorTypeConfig, fmt.Sprintf("unknown source %q (want remote or local)", genSource))
	}
	if err != nil {
		return err
	}

	ui.RenderKeyValues(ui.Output(), "Catalog", pairs)
	if info, statErr := os.Stat(cfg.Output.CatalogPath); statErr == nil {
		ui.PrintSuccess(fmt.Sprintf("Wrote %s (%s)", cfg.Output.CatalogPath, humanize.Bytes(uint64(info.Size()))))
	}
	return nil
}

func generateRemote(cmd *cobra.Command, cfg *config.Config, names catalog.SpeciesNames, log logger.Logger) ([][2]interface{}, error) {
	if cfg.Token() == "" {
		manager, err := auth.NewManager(cfg.Auth)
		if err != nil {
			log.WithError(err).Warn("Token store unavailable")
		} else {
			auth.ResolveToken(cfg, manager)
		}
	}
	if cfg.Token() == "" {
		log.Warn("No shared-link token configured; download requests will not carry private_link")
	}

	s, err := scraper.New(cfg, names, log)
	if err != nil {
		return nil, err
	}
	s.SetProgress(!quiet && !verbose)

	res, err := s.Generate(cmd.Context(), cfg.Output.CatalogPath)
	if err != nil {
		return nil, err
	}
	return res.Summary.Pairs(), nil
}

func generateLocal(cfg *config.Config, names catalog.SpeciesNames, log logger.Logger) ([][2]interface{}, error) {
	if cfg.Local.Root == "" {
		return nil, errs.New(errs.ErrorTypeConfig, "--dir (or local.root) is required with --source local")
	}

	start := time.Now()
	reader := localtree.NewReader(cfg.Local.Root, cfg.Local.BaseURL, names, log)
	res, err := reader.Read(time.Now(), cfg.Source.Limit)
	if err != nil {
		return nil, err
	}
	for _, skip := range res.Skipped {
		logger.LogSkip(log, skip.FileID, skip.Filename, skip.Reason)
	}

	if err := catalog.Save(cfg.Output.CatalogPath, res.Catalog); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeUnknown, err, "failed to write catalog")
	}
	log.InfoWithFields("Wrote catalog", map[string]interface{}{
		"path":    cfg.Output.CatalogPath,
		"species": len(res.Catalog.Species),
	})

	return [][2]interface{}{
		{"Root", cfg.Local.Root},
		{"Species", len(res.Catalog.Species)},
		{"Images", res.Catalog.ImageCount()},
		{"Skipped", len(res.Skipped)},
		{"Duration", time.Since(start).Round(time.Millisecond).String()},
	}, nil
}
