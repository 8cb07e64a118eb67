package linkcheck

import (
	"context"
	"net/http"

	"github.com/go-resty/resty/v2"

	"firemaps/pkg/config"
)

// HTTPProber checks a URL with HEAD and retries with GET when the server
// refuses HEAD
type HTTPProber struct {
	client *resty.Client
}

func NewHTTPProber(cfg config.LinkCheckConfig) *HTTPProber {
	client := resty.New()
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("User-Agent", cfg.UserAgent)
	return &HTTPProber{client: client}
}

// Probe returns the final status code and the method that produced it.
// Status is 0 when the request failed without a response.
func (p *HTTPProber) Probe(ctx context.Context, url string) (int, string, error) {
	status, err := p.send(ctx, http.MethodHead, url)
	if err != nil {
		return 0, http.MethodHead, err
	}
	if status != http.StatusMethodNotAllowed && status != http.StatusForbidden {
		return status, http.MethodHead, nil
	}

	status, err = p.send(ctx, http.MethodGet, url)
	if err != nil {
		return 0, http.MethodGet, err
	}
	return status, http.MethodGet, nil
}

func (p *HTTPProber) send(ctx context.Context, method, url string) (int, error) {
	resp, err := p.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Execute(method, url)
	if resp != nil && resp.RawBody() != nil {
		resp.RawBody().Close()
	}
	if err != nil {
		return 0, err
	}
	return resp.StatusCode(), nil
}
