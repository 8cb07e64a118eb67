// Package scraper runs the remote catalog pipeline.
//
// A run locates the shared folder, then resolves its identifiers strictly one
// after another with a randomized pause between calls, and finally hands the
// results to catalog.Build. The HTTP session is created per Scraper and owned
// by it for the whole run.
//
// Usage:
//
//	s, err := scraper.New(cfg, names, log)
//	if err != nil {
//	    return err
//	}
//	res, err := s.Generate(ctx, cfg.Output.CatalogPath)
//
// Only a locator failure or a cancelled context stops a run. Unresolved
// identifiers and filenames outside the naming convention are logged and
// counted in the Summary.
package scraper
