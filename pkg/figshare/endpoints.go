package figshare

import (
	"net/url"
	"strings"
)

const (
	// BaseURL is the public figshare site
	BaseURL = "https://figshare.com"

	// DownloadEndpoint serves file content by numeric file id
	DownloadEndpoint = "/ndownloader/files/"
)

// Endpoints builds URLs for one shared folder
type Endpoints struct {
	Site  string
	Token string
}

// NewEndpoints trims a trailing slash from site, defaulting to BaseURL
func NewEndpoints(site, token string) Endpoints {
	site = strings.TrimSuffix(site, "/")
	if site == "" {
		site = BaseURL
	}
	return Endpoints{Site: site, Token: token}
}

// DownloadURL returns the stable content URL for a file id. It never needs
// the file's name to exist.
func (e Endpoints) DownloadURL(fileID string) string {
	u := e.Site + DownloadEndpoint + url.PathEscape(fileID)
	if e.Token == "" {
		return u
	}
	params := url.Values{}
	params.Set("private_link", e.Token)
	return u + "?" + params.Encode()
}

// RootURL is the landing page fetched to refresh verification cookies
func (e Endpoints) RootURL() string {
	return e.Site + "/"
}
