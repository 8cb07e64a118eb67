package scraper

import (
	"context"

	"firemaps/pkg/figshare"
)

// Locator finds the identifiers behind a shared link
type Locator interface {
	Locate(ctx context.Context, sharedURL string) (*figshare.Location, error)
}

// FilenameResolver recovers one identifier's filename, reporting absence
// instead of failing
type FilenameResolver interface {
	Resolve(ctx context.Context, fileID string) (string, bool)
}

// URLBuilder turns an identifier into its stable download URL
type URLBuilder interface {
	DownloadURL(fileID string) string
}

// StatsSource reports HTTP client counters for the run summary
type StatsSource interface {
	Stats() figshare.Stats
}
