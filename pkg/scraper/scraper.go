package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mazen160/go-random"

	"firemaps/pkg/catalog"
	"firemaps/pkg/config"
	errs "firemaps/pkg/errors"
	"firemaps/pkg/figshare"
	"firemaps/pkg/logger"
	"firemaps/pkg/ratelimit"
	"firemaps/pkg/ui"
)

// Summary counts what happened during one run
type Summary struct {
	RunID       string
	ArticleID   string
	Identifiers int
	Resolved    int
	Unresolved  int
	Skipped     int
	Species     int
	Images      int
	Duration    time.Duration
	Client      figshare.Stats
}

// Pairs returns the summary as label/value rows for display
func (s Summary) Pairs() [][2]interface{} {
	return [][2]interface{}{
		{"Run", s.RunID},
		{"Article", s.ArticleID},
		{"Identifiers", s.Identifiers},
		{"Resolved", s.Resolved},
		{"Unresolved", s.Unresolved},
		{"Skipped", s.Skipped},
		{"Species", s.Species},
		{"Images", s.Images},
		{"Requests", s.Client.Requests},
		{"Challenges", s.Client.Challenges},
		{"Duration", s.Duration.Round(time.Millisecond).String()},
	}
}

// Result is the catalog of a run plus everything that was dropped
type Result struct {
	Catalog *catalog.Catalog
	Skipped []catalog.Skip
	Summary Summary
}

// Scraper runs the remote pipeline: locate the shared folder, resolve every
// identifier one at a time with a randomized pause in between, then build
// the catalog. Nothing runs concurrently.
type Scraper struct {
	locator  Locator
	resolver FilenameResolver
	urls     URLBuilder
	stats    StatsSource
	pacer    ratelimit.Limiter
	names    catalog.SpeciesNames
	config   *config.Config
	logger   logger.Logger
	progress bool
	now      func() time.Time
}

// New wires a scraper to figshare using one session for the whole run
func New(cfg *config.Config, names catalog.SpeciesNames, log logger.Logger) (*Scraper, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	client, err := figshare.NewClient(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create figshare client: %w", err)
	}

	s := NewWithComponents(
		cfg,
		figshare.NewLocator(client, log),
		figshare.NewResolver(client, log),
		client.Endpoints(),
		ratelimit.NewPacer(cfg.Pacing.MinDelay, cfg.Pacing.Jitter),
		names,
		log,
	)
	s.stats = client
	return s, nil
}

// NewWithComponents assembles a scraper from its parts
func NewWithComponents(
	cfg *config.Config,
	locator Locator,
	resolver FilenameResolver,
	urls URLBuilder,
	pacer ratelimit.Limiter,
	names catalog.SpeciesNames,
	log logger.Logger,
) *Scraper {
	if log == nil {
		log = logger.GetLogger()
	}
	if names == nil {
		names = catalog.SpeciesNames{}
	}
	return &Scraper{
		locator:  locator,
		resolver: resolver,
		urls:     urls,
		pacer:    pacer,
		names:    names,
		config:   cfg,
		logger:   log,
		now:      time.Now,
	}
}

// SetProgress turns the terminal progress line on or off
func (s *Scraper) SetProgress(enabled bool) {
	s.progress = enabled
}

// Run executes the pipeline. Only a locator failure or cancellation is
// fatal; identifiers that cannot be resolved or do not fit the naming
// convention are logged and left out.
func (s *Scraper) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	runID, err := random.String(8)
	if err != nil {
		runID = fmt.Sprintf("%x", start.UnixNano())
	}
	log := s.logger.WithField("run_id", runID)
	sharedURL := s.config.Source.SharedURL

	log.InfoWithFields("Starting catalog generation", map[string]interface{}{
		"shared_url": sharedURL,
		"limit":      s.config.Source.Limit,
	})

	loc, err := s.locator.Locate(ctx, sharedURL)
	if err != nil {
		log.WithError(err).Error("Failed to locate shared folder")
		return nil, err
	}
	// the landing page fetch is the first paced request
	if s.pacer != nil {
		s.pacer.Allow()
	}

	folders := loc.Folders
	if limit := s.config.Source.Limit; limit > 0 && limit < len(folders) {
		log.InfoWithFields("Limiting identifiers", map[string]interface{}{
			"available": len(folders),
			"limit":     limit,
		})
		folders = folders[:limit]
	}

	var progress *ui.ProgressDisplay
	if s.progress {
		debug := strings.EqualFold(s.config.Logging.Level, "debug")
		progress = ui.NewProgressDisplay("resolving", len(folders), debug)
	}

	records := make([]catalog.FileRecord, 0, len(folders))
	summary := Summary{RunID: runID, ArticleID: loc.ArticleID, Identifiers: len(folders)}

	for i, entry := range folders {
		if s.pacer != nil {
			if err := s.pacer.Wait(ctx); err != nil {
				return nil, err
			}
		}
		if progress != nil {
			progress.Start(entry.FileID)
		}

		name, ok := s.resolver.Resolve(ctx, entry.FileID)
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec := catalog.FileRecord{
			FileID:   entry.FileID,
			Variable: entry.Variable,
			URL:      s.urls.DownloadURL(entry.FileID),
		}
		if ok {
			rec.ResolvedFilename = name
			summary.Resolved++
			if progress != nil {
				progress.Resolved(entry.FileID, name)
			}
		} else {
			summary.Unresolved++
			if progress != nil {
				progress.Unresolved(entry.FileID)
			}
		}
		records = append(records, rec)

		if (i+1)%25 == 0 {
			logger.LogProgress(log, "resolve", i+1, len(folders))
		}
	}
	if progress != nil {
		progress.Complete()
	}

	built := catalog.Build(sharedURL, records, s.names, s.now())
	for _, sk := range built.Skipped {
		logger.LogSkip(log, sk.FileID, sk.Filename, sk.Reason)
	}
	s.warnUnknownSpecies(log, built.Catalog)

	summary.Skipped = len(built.Skipped)
	summary.Species = len(built.Catalog.Species)
	summary.Images = built.Catalog.ImageCount()
	summary.Duration = time.Since(start)
	if s.stats != nil {
		summary.Client = s.stats.Stats()
	}

	log.InfoWithFields("Catalog built", map[string]interface{}{
		"identifiers": summary.Identifiers,
		"resolved":    summary.Resolved,
		"skipped":     summary.Skipped,
		"species":     summary.Species,
		"images":      summary.Images,
	})

	return &Result{Catalog: built.Catalog, Skipped: built.Skipped, Summary: summary}, nil
}

// Generate runs the pipeline and writes the catalog to path
func (s *Scraper) Generate(ctx context.Context, path string) (*Result, error) {
	res, err := s.Run(ctx)
	if err != nil {
		return nil, err
	}
	if err := catalog.Save(path, res.Catalog); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeUnknown, err, "failed to write catalog")
	}
	s.logger.InfoWithFields("Wrote catalog", map[string]interface{}{
		"path":    path,
		"species": res.Summary.Species,
	})
	return res, nil
}

func (s *Scraper) warnUnknownSpecies(log logger.Logger, cat *catalog.Catalog) {
	if len(s.names) == 0 {
		return
	}
	for _, code := range s.names.Unknown(cat) {
		fields := map[string]interface{}{"species_code": code}
		if hint, ok := s.names.Suggest(code); ok {
			fields["closest_known"] = hint
		}
		log.WarnWithFields("No display name for species", fields)
	}
}
