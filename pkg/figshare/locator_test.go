package figshare

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "firemaps/pkg/errors"
	"firemaps/pkg/logger"
)

const landingPage = `<!DOCTYPE html>
<html>
<head>
  <link rel="canonical" href="https://figshare.com/articles/dataset/fire_maps/28476215">
  <script>window.analytics = {"page": "share"};</script>
</head>
<body>
  <div id="app"></div>
  <script>
    window.__APOLLO_STATE__ = {"share":{"id":"92ea","url":"https://api.figshare.com/v2/articles/28476215","folderStructure":{"51234":"PI_occurrence","51235":"summary","51236":"FRI_change"},"title":"Fire maps"}};
  </script>
</body>
</html>`

func TestParseLandingPage(t *testing.T) {
	loc, err := ParseLandingPage(strings.NewReader(landingPage))
	require.NoError(t, err)

	assert.Equal(t, "28476215", loc.ArticleID)
	assert.Equal(t, FolderStructure{
		{FileID: "51234", Variable: "PI_occurrence"},
		{FileID: "51235", Variable: "summary"},
		{FileID: "51236", Variable: "FRI_change"},
	}, loc.Folders, "page order is preserved")
}

func TestParseLandingPageFallsBackToRawBody(t *testing.T) {
	page := `/articles/77 <div data-state='"folderStructure":{"9":"x"}'></div>`
	loc, err := ParseLandingPage(strings.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, "77", loc.ArticleID)
	assert.Equal(t, FolderStructure{{FileID: "9", Variable: "x"}}, loc.Folders)
}

func TestParseLandingPageValues(t *testing.T) {
	page := `/articles/1 <script>{"folderStructure":{"1":"a","2":42,"1":"b"}}</script>`
	loc, err := ParseLandingPage(strings.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, FolderStructure{
		{FileID: "1", Variable: "b"},
		{FileID: "2", Variable: "42"},
	}, loc.Folders)
}

func TestParseLandingPageErrors(t *testing.T) {
	tests := []struct {
		name    string
		page    string
		message string
	}{
		{"no article id", `<script>{"folderStructure":{"1":"a"}}</script>`, "article id not found"},
		{"slug article link only", `<link rel="canonical" href="https://figshare.com/articles/dataset/fire_maps/28476215"><script>{"folderStructure":{"1":"a"}}</script>`, "article id not found"},
		{"no folder structure", `<a href="/articles/5">x</a>`, "folderStructure not found"},
		{"invalid json", `/articles/5 <script>{"folderStructure":{"1": oops}}</script>`, "not valid JSON"},
		{"empty structure", `/articles/5 <script>{"folderStructure":{}}</script>`, "folderStructure is empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := ParseLandingPage(strings.NewReader(tt.page))
			assert.Nil(t, loc)
			require.Error(t, err)
			assert.True(t, errs.IsType(err, errs.ErrorTypeLocator))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestPageLocatorLocate(t *testing.T) {
	site := &fakeSite{handler: func(w http.ResponseWriter, r *http.Request, _ int32) {
		if r.URL.Path != "/s/testtoken" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(landingPage))
	}}
	srv := httptest.NewServer(site)
	defer srv.Close()

	cfg := testConfig(srv.URL)
	tl := logger.NewTestLogger()
	var locator Locator = NewLocator(newTestClient(t, cfg, tl), tl)

	loc, err := locator.Locate(context.Background(), cfg.Source.SharedURL)
	require.NoError(t, err)
	assert.Equal(t, "28476215", loc.ArticleID)
	assert.Len(t, loc.Folders, 3)
	assert.True(t, tl.HasMessage("Located shared folder"))

	_, err = locator.Locate(context.Background(), srv.URL+"/s/missing")
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeLocator))
	assert.True(t, errs.IsType(err, errs.ErrorTypeExhausted))
}
