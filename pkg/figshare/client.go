package figshare

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"

	"firemaps/pkg/config"
	errs "firemaps/pkg/errors"
	"firemaps/pkg/logger"
	"firemaps/pkg/retry"
)

// Outcome classifies a single HTTP attempt
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeChallenge
	OutcomeFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeChallenge:
		return "challenge"
	default:
		return "failure"
	}
}

// Response is a successful reply whose body has not been read.
// Callers must Close it.
type Response struct {
	Status int
	Header http.Header
	Body   io.ReadCloser
}

func (r *Response) Close() error {
	if r == nil || r.Body == nil {
		return nil
	}
	return r.Body.Close()
}

// Stats counts what the client did during a run
type Stats struct {
	Requests        int
	Challenges      int
	CookieRefreshes int
	Retries         int
	Exhausted       int
}

// Client wraps one cookie-carrying session for a single pipeline run. It is
// not safe for concurrent use; the run owns it.
type Client struct {
	session         *resty.Client
	endpoints       Endpoints
	challengeStatus int
	maxAttempts     int
	backoff         *retry.ErrorTypeBackoff
	logger          logger.Logger
	stats           Stats
}

// NewClient builds a session from the http, retry and challenge settings
func NewClient(cfg *config.Config, log logger.Logger) (*Client, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	session := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	session.SetCookieJar(jar)
	if cfg.HTTP.CloudflareBypass {
		session.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(session.GetClient().Transport)
	}
	session.SetHeader("User-Agent", cfg.HTTP.UserAgent)
	session.SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	session.SetHeader("Accept-Language", "en-US,en;q=0.9")
	session.SetTimeout(cfg.HTTP.Timeout)

	return &Client{
		session:         session,
		endpoints:       NewEndpoints(cfg.Source.SiteURL, cfg.Token()),
		challengeStatus: cfg.Challenge.Status,
		maxAttempts:     cfg.Retry.MaxAttempts,
		backoff: &retry.ErrorTypeBackoff{
			Default: &retry.ExponentialBackoff{
				BaseDelay:    cfg.Retry.BaseDelay,
				MaxDelay:     cfg.Retry.MaxDelay,
				Multiplier:   cfg.Retry.Multiplier,
				JitterFactor: cfg.Retry.JitterFactor,
			},
			ByType: map[errs.ErrorType]retry.BackoffStrategy{
				errs.ErrorTypeChallenge: &retry.UniformBackoff{
					Min: cfg.Challenge.MinWait,
					Max: cfg.Challenge.MaxWait,
				},
			},
		},
		logger: log,
	}, nil
}

// Endpoints returns the URL builder bound to this client's site and token
func (c *Client) Endpoints() Endpoints {
	return c.endpoints
}

// Stats returns counters accumulated so far
func (c *Client) Stats() Stats {
	return c.stats
}

// Cookies returns the session cookies held for u
func (c *Client) Cookies(u *url.URL) []*http.Cookie {
	return c.session.GetClient().Jar.Cookies(u)
}

// Classify maps a status code to an attempt outcome
func (c *Client) Classify(status int) Outcome {
	switch status {
	case http.StatusOK:
		return OutcomeSuccess
	case c.challengeStatus:
		return OutcomeChallenge
	default:
		return OutcomeFailure
	}
}

// Do issues method against rawURL until it gets a 200, retrying challenges
// (after a cookie refresh and a randomized wait) and other failures (after
// exponential backoff). Every attempt counts against the retry ceiling; once
// it is reached a ResolutionExhausted error is returned.
func (c *Client) Do(ctx context.Context, method, rawURL string) (*Response, error) {
	var (
		resp       *Response
		attempts   int
		lastStatus int
	)

	err := retry.Do(func() error {
		attempts++
		c.stats.Requests++

		r, err := c.send(ctx, method, rawURL)
		if err != nil {
			lastStatus = 0
			logger.LogRequest(c.logger, method, rawURL, 0, attempts)
			return errs.Wrap(errs.ErrorTypeNetwork, err, "request failed")
		}
		lastStatus = r.Status
		logger.LogRequest(c.logger, method, rawURL, r.Status, attempts)

		switch c.Classify(r.Status) {
		case OutcomeSuccess:
			resp = r
			return nil
		case OutcomeChallenge:
			r.Close()
			c.stats.Challenges++
			return errs.ChallengeEncountered(r.Status)
		default:
			r.Close()
			return errs.NewHTTPError(r.Status, rawURL)
		}
	}, &retry.Config{
		MaxAttempts: c.maxAttempts,
		Backoff:     c.backoff,
		RetryIf:     func(error) bool { return ctx.Err() == nil },
		OnRetry: func(attempt int, err error, delay time.Duration) {
			c.stats.Retries++
			if errs.IsType(err, errs.ErrorTypeChallenge) {
				c.refreshCookies(ctx)
			}
			c.logger.DebugWithFields("waiting before retry", map[string]interface{}{
				"url":      rawURL,
				"attempt":  attempt,
				"reason":   errs.TypeOf(err),
				"delay_ms": delay.Milliseconds(),
			})
		},
		Context: ctx,
		Logger:  c.logger,
	})
	if err == nil {
		return resp, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	c.stats.Exhausted++
	return nil, errs.ResolutionExhausted(rawURL, attempts, lastStatus, err)
}

// Get is Do with GET
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, rawURL)
}

// GetBody fetches rawURL and reads the whole body
func (c *Client) GetBody(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := c.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer resp.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeNetwork, err, "failed to read response body")
	}
	return body, nil
}

func (c *Client) send(ctx context.Context, method, rawURL string) (*Response, error) {
	res, err := c.session.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Execute(method, rawURL)
	if err != nil {
		if res != nil && res.RawBody() != nil {
			res.RawBody().Close()
		}
		return nil, err
	}
	return &Response{
		Status: res.StatusCode(),
		Header: res.Header(),
		Body:   res.RawBody(),
	}, nil
}

// refreshCookies visits the site root so the verification cookies set there
// land in the session jar. Failures are logged; the retry proceeds anyway.
func (c *Client) refreshCookies(ctx context.Context) {
	c.stats.CookieRefreshes++
	root := c.endpoints.RootURL()

	res, err := c.session.R().SetContext(ctx).Get(root)
	if err != nil {
		c.logger.WithError(err).WarnWithFields("cookie refresh failed", map[string]interface{}{
			"url": root,
		})
		return
	}
	c.logger.DebugWithFields("refreshed verification cookies", map[string]interface{}{
		"url":     root,
		"status":  res.StatusCode(),
		"cookies": len(res.Cookies()),
	})
}
