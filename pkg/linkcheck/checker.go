package linkcheck

import (
	"context"
	"fmt"
	"sort"
	"time"

	"firemaps/internal/probepool"
	"firemaps/pkg/catalog"
	"firemaps/pkg/config"
	errs "firemaps/pkg/errors"
	"firemaps/pkg/logger"
	"firemaps/pkg/ratelimit"
)

// Targets lists every URL in the catalog: each species' zip first, labelled
// "<code>:zip", then its images labelled "<code>:<file_name>"
func Targets(cat *catalog.Catalog) []probepool.Job {
	var jobs []probepool.Job
	for _, s := range cat.Species {
		if s.ZipURL != "" {
			jobs = append(jobs, probepool.Job{Label: s.SpeciesCode + ":zip", URL: s.ZipURL})
		}
		for _, img := range s.Images {
			jobs = append(jobs, probepool.Job{Label: s.SpeciesCode + ":" + img.FileName, URL: img.URL})
		}
	}
	return jobs
}

// Report holds every probe result, in completion order
type Report struct {
	Results  []probepool.Result
	Failures []probepool.Result
	Duration time.Duration
}

// Summary is the one-line outcome of the check
func (r *Report) Summary() string {
	return fmt.Sprintf("Checked %d URLs in %.1fs", len(r.Results), r.Duration.Seconds())
}

// Err returns a LinkUnreachable error when any probe failed
func (r *Report) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	return errs.LinkUnreachable(len(r.Failures), len(r.Results))
}

type Checker struct {
	workers int
	prober  probepool.Prober
	limiter ratelimit.Limiter
	logger  logger.Logger
}

// NewChecker builds a checker probing over HTTP with cfg's settings
func NewChecker(cfg config.LinkCheckConfig, log logger.Logger) *Checker {
	return NewCheckerWithProber(cfg, NewHTTPProber(cfg), log)
}

func NewCheckerWithProber(cfg config.LinkCheckConfig, prober probepool.Prober, log logger.Logger) *Checker {
	if log == nil {
		log = logger.GetLogger()
	}
	c := &Checker{workers: cfg.Workers, prober: prober, logger: log}
	if tb := ratelimit.NewPerSecond(cfg.RequestsPerSecond); tb != nil {
		c.limiter = tb
	}
	return c
}

// Check probes every URL in cat. All probes run to completion; a slow or
// failing URL never stops the others. Results arrive in completion order and
// failures are sorted by label for reporting.
func (c *Checker) Check(ctx context.Context, cat *catalog.Catalog) *Report {
	jobs := Targets(cat)
	start := time.Now()

	c.logger.InfoWithFields("Checking links", map[string]interface{}{
		"urls":    len(jobs),
		"workers": c.workers,
	})

	pool := probepool.New(ctx, c.workers, c.prober, c.limiter, c.logger)
	pool.Start()

	go func() {
		defer pool.Stop()
		for _, job := range jobs {
			if err := pool.Submit(job); err != nil {
				c.logger.WithError(err).Warn("Link check interrupted")
				return
			}
		}
	}()

	report := &Report{}
	for res := range pool.Results() {
		report.Results = append(report.Results, res)
		if !res.OK() {
			report.Failures = append(report.Failures, res)
			c.logger.WarnWithFields("Link unreachable", map[string]interface{}{
				"label":  res.Job.Label,
				"url":    res.Job.URL,
				"status": res.Status,
				"error":  errString(res.Error),
			})
		}
	}
	report.Duration = time.Since(start)

	sort.SliceStable(report.Failures, func(i, j int) bool {
		return report.Failures[i].Job.Label < report.Failures[j].Job.Label
	})
	return report
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
