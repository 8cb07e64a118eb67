package figshare

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firemaps/pkg/config"
	errs "firemaps/pkg/errors"
	"firemaps/pkg/logger"
)

const wafCookie = "aws-waf-token"

func testConfig(serverURL string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Source.SiteURL = serverURL
	cfg.Source.SharedURL = serverURL + "/s/testtoken"
	cfg.HTTP.CloudflareBypass = false
	cfg.HTTP.Timeout = 2 * time.Second
	cfg.Retry.BaseDelay = time.Millisecond
	cfg.Retry.MaxDelay = 5 * time.Millisecond
	cfg.Challenge.MinWait = time.Millisecond
	cfg.Challenge.MaxWait = 2 * time.Millisecond
	return cfg
}

func newTestClient(t *testing.T, cfg *config.Config, log logger.Logger) *Client {
	t.Helper()
	if log == nil {
		log = logger.NewNopLogger()
	}
	c, err := NewClient(cfg, log)
	require.NoError(t, err)
	return c
}

// fakeSite serves the site root (setting the verification cookie) and hands
// every other request to handler
type fakeSite struct {
	rootHits  atomic.Int32
	otherHits atomic.Int32
	handler   func(w http.ResponseWriter, r *http.Request, hit int32)
}

func (f *fakeSite) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/" {
		f.rootHits.Add(1)
		http.SetCookie(w, &http.Cookie{Name: wafCookie, Value: "verified", Path: "/"})
		w.WriteHeader(http.StatusOK)
		return
	}
	f.handler(w, r, f.otherHits.Add(1))
}

func TestClassify(t *testing.T) {
	c := newTestClient(t, testConfig("http://example.invalid"), nil)

	tests := []struct {
		status int
		want   Outcome
	}{
		{200, OutcomeSuccess},
		{202, OutcomeChallenge},
		{201, OutcomeFailure},
		{403, OutcomeFailure},
		{404, OutcomeFailure},
		{503, OutcomeFailure},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.status))
		})
	}
}

func TestClientChallengeThenSuccess(t *testing.T) {
	site := &fakeSite{}
	site.handler = func(w http.ResponseWriter, r *http.Request, hit int32) {
		if hit == 1 {
			w.WriteHeader(http.StatusAccepted)
			return
		}
		if _, err := r.Cookie(wafCookie); err != nil {
			w.WriteHeader(http.StatusAccepted)
			return
		}
		w.Header().Set("Content-Disposition", `attachment; filename="ABCD_PI_occurrence.png"`)
		w.WriteHeader(http.StatusOK)
	}
	srv := httptest.NewServer(site)
	defer srv.Close()

	c := newTestClient(t, testConfig(srv.URL), nil)
	resp, err := c.Get(context.Background(), srv.URL+"/ndownloader/files/1")
	require.NoError(t, err)
	defer resp.Close()

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, int32(1), site.rootHits.Load(), "exactly one cookie refresh")
	assert.Equal(t, int32(2), site.otherHits.Load())

	stats := c.Stats()
	assert.Equal(t, 1, stats.Challenges)
	assert.Equal(t, 1, stats.CookieRefreshes)
	assert.Equal(t, 2, stats.Requests)

	u, _ := url.Parse(srv.URL)
	cookies := c.Cookies(u)
	require.Len(t, cookies, 1)
	assert.Equal(t, wafCookie, cookies[0].Name)
}

func TestClientRetryCeiling(t *testing.T) {
	for _, ceiling := range []int{1, 3, 5} {
		t.Run(fmt.Sprintf("ceiling_%d", ceiling), func(t *testing.T) {
			site := &fakeSite{handler: func(w http.ResponseWriter, _ *http.Request, _ int32) {
				w.WriteHeader(http.StatusServiceUnavailable)
			}}
			srv := httptest.NewServer(site)
			defer srv.Close()

			cfg := testConfig(srv.URL)
			cfg.Retry.MaxAttempts = ceiling
			c := newTestClient(t, cfg, nil)

			resp, err := c.Get(context.Background(), srv.URL+"/ndownloader/files/9")
			assert.Nil(t, resp)
			require.Error(t, err)
			assert.True(t, errs.IsType(err, errs.ErrorTypeExhausted))
			assert.Equal(t, int32(ceiling), site.otherHits.Load())
			assert.Equal(t, int32(0), site.rootHits.Load())
			assert.Equal(t, 1, c.Stats().Exhausted)

			var typed *errs.Error
			require.ErrorAs(t, err, &typed)
			assert.Equal(t, http.StatusServiceUnavailable, typed.Code)
		})
	}
}

func TestClientChallengeCountsTowardCeiling(t *testing.T) {
	site := &fakeSite{handler: func(w http.ResponseWriter, _ *http.Request, _ int32) {
		w.WriteHeader(http.StatusAccepted)
	}}
	srv := httptest.NewServer(site)
	defer srv.Close()

	c := newTestClient(t, testConfig(srv.URL), nil)
	_, err := c.Get(context.Background(), srv.URL+"/ndownloader/files/2")

	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeExhausted))
	assert.Equal(t, int32(3), site.otherHits.Load())
	assert.Equal(t, int32(2), site.rootHits.Load(), "no refresh after the final attempt")
}

func TestClientRecoversAfterServerError(t *testing.T) {
	site := &fakeSite{handler: func(w http.ResponseWriter, _ *http.Request, hit int32) {
		if hit < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}}
	srv := httptest.NewServer(site)
	defer srv.Close()

	tl := logger.NewTestLogger()
	c := newTestClient(t, testConfig(srv.URL), tl)

	body, err := c.GetBody(context.Background(), srv.URL+"/page")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, 2, c.Stats().Retries)
	assert.Equal(t, 2, tl.CountMessages("HTTP request failed"))
}

func TestClientNetworkErrorExhausts(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	closedURL := srv.URL
	srv.Close()

	c := newTestClient(t, testConfig(closedURL), nil)
	_, err := c.Get(context.Background(), closedURL+"/ndownloader/files/3")

	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeExhausted))
	assert.True(t, errs.IsType(err, errs.ErrorTypeNetwork))
	assert.Equal(t, 3, c.Stats().Requests)
}

func TestClientContextCancelled(t *testing.T) {
	site := &fakeSite{handler: func(w http.ResponseWriter, _ *http.Request, _ int32) {
		w.WriteHeader(http.StatusBadGateway)
	}}
	srv := httptest.NewServer(site)
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Retry.BaseDelay = time.Hour
	cfg.Retry.MaxDelay = time.Hour
	c := newTestClient(t, cfg, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Get(ctx, srv.URL+"/ndownloader/files/4")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(1), site.otherHits.Load())
}
