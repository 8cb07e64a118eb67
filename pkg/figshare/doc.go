// Package figshare talks to the figshare web site on behalf of the scraping
// pipeline.
//
// Client owns one cookie-carrying session for a run and tells three outcomes
// apart: success (200), a bot-verification challenge (a configured status,
// 202 by default) and everything else. A challenge triggers a visit to the
// site root to refresh cookies and a randomized wait; other failures back off
// exponentially. Both count against the same retry ceiling.
//
// PageLocator scrapes the shared-link landing page for the article id and the
// embedded folderStructure map. Resolver recovers each file's original name
// from the download endpoint's Content-Disposition header without reading
// the body.
//
//	client, err := figshare.NewClient(cfg, log)
//	loc, err := figshare.NewLocator(client, log).Locate(ctx, cfg.Source.SharedURL)
//	resolver := figshare.NewResolver(client, log)
//	for _, f := range loc.Folders {
//		name, ok := resolver.Resolve(ctx, f.FileID)
//	}
package figshare
