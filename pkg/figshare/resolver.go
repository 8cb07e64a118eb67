package figshare

import (
	"context"
	"mime"
	"net/url"
	"regexp"

	errs "firemaps/pkg/errors"
	"firemaps/pkg/logger"
)

var (
	dispositionFilenamePattern = regexp.MustCompile(`filename="?([^";]+)"?`)
	extendedFilenamePattern    = regexp.MustCompile(`(?i)filename\*\s*=`)
)

// Resolver recovers original filenames from the download endpoint's headers
type Resolver struct {
	client *Client
	logger logger.Logger
}

func NewResolver(client *Client, log logger.Logger) *Resolver {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Resolver{client: client, logger: log}
}

// Resolve returns the filename behind fileID, or false when retries ran out
// or the response carried no usable Content-Disposition. The body is never
// read. Absence is not an error for the run.
func (r *Resolver) Resolve(ctx context.Context, fileID string) (string, bool) {
	u := r.client.Endpoints().DownloadURL(fileID)

	resp, err := r.client.Get(ctx, u)
	if err != nil {
		if ctx.Err() == nil {
			r.logger.WithError(err).WarnWithFields("Filename resolution exhausted", map[string]interface{}{
				"file_id": fileID,
				"type":    string(errs.TypeOf(err)),
			})
		}
		return "", false
	}
	defer resp.Close()

	name, ok := ParseContentDisposition(resp.Header.Get("Content-Disposition"))
	if !ok {
		r.logger.WarnWithFields("No filename in Content-Disposition", map[string]interface{}{
			"file_id": fileID,
			"header":  resp.Header.Get("Content-Disposition"),
		})
		return "", false
	}

	r.logger.DebugWithFields("Resolved filename", map[string]interface{}{
		"file_id":  fileID,
		"filename": name,
	})
	return name, true
}

// ParseContentDisposition extracts the filename parameter. RFC 6266 forms
// are tried first; loosely formatted headers fall back to a filename=
// pattern match. Plain filename values are URL-decoded, filename* values
// arrive decoded already.
func ParseContentDisposition(header string) (string, bool) {
	if header == "" {
		return "", false
	}

	var name string
	decoded := false
	if _, params, err := mime.ParseMediaType(header); err == nil {
		name = params["filename"]
		decoded = name != "" && extendedFilenamePattern.MatchString(header)
	}
	if name == "" {
		m := dispositionFilenamePattern.FindStringSubmatch(header)
		if m == nil {
			return "", false
		}
		name = m[1]
	}

	if !decoded {
		if unescaped, err := url.PathUnescape(name); err == nil {
			name = unescaped
		}
	}
	if name == "" {
		return "", false
	}
	return name, true
}
