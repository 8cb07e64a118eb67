package figshare

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"

	"github.com/PuerkitoBio/goquery"

	errs "firemaps/pkg/errors"
	"firemaps/pkg/logger"
)

var (
	articleIDPattern       = regexp.MustCompile(`/articles/(\d+)`)
	folderStructurePattern = regexp.MustCompile(`(?s)"folderStructure":(\{.*?\})`)
)

// FolderEntry is one file id and its variable label from the landing page
type FolderEntry struct {
	FileID   string
	Variable string
}

// FolderStructure keeps entries in page order
type FolderStructure []FolderEntry

// Location is what the landing page reveals about a shared folder
type Location struct {
	ArticleID string
	Folders   FolderStructure
}

// Locator finds the article and its files behind a shared link. The page
// scrape depends on undocumented embedded state, so it sits behind this
// interface and can be replaced in tests.
type Locator interface {
	Locate(ctx context.Context, sharedURL string) (*Location, error)
}

// PageLocator fetches the landing page through the challenge-aware client
type PageLocator struct {
	client *Client
	logger logger.Logger
}

func NewLocator(client *Client, log logger.Logger) *PageLocator {
	if log == nil {
		log = logger.GetLogger()
	}
	return &PageLocator{client: client, logger: log}
}

func (l *PageLocator) Locate(ctx context.Context, sharedURL string) (*Location, error) {
	body, err := l.client.GetBody(ctx, sharedURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, errs.LocatorError("failed to fetch landing page "+sharedURL, err)
	}

	loc, err := ParseLandingPage(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	l.logger.InfoWithFields("Located shared folder", map[string]interface{}{
		"article_id": loc.ArticleID,
		"files":      len(loc.Folders),
	})
	return loc, nil
}

// ParseLandingPage extracts the article id and the folder structure map.
// Any missing or malformed piece is a LocatorError.
func ParseLandingPage(r io.Reader) (*Location, error) {
	html, err := io.ReadAll(r)
	if err != nil {
		return nil, errs.LocatorError("failed to read landing page", err)
	}

	m := articleIDPattern.FindSubmatch(html)
	if m == nil {
		return nil, errs.LocatorError("article id not found on landing page", nil)
	}

	raw := findFolderStructure(html)
	if raw == "" {
		return nil, errs.LocatorError("folderStructure not found on landing page", nil)
	}

	folders, err := parseFolderStructure(raw)
	if err != nil {
		return nil, errs.LocatorError("folderStructure is not valid JSON", err)
	}
	if len(folders) == 0 {
		return nil, errs.LocatorError("folderStructure is empty", nil)
	}

	return &Location{ArticleID: string(m[1]), Folders: folders}, nil
}

// findFolderStructure looks in <script> elements first and falls back to the
// whole document when markup parsing fails or no script carries the marker.
func findFolderStructure(html []byte) string {
	var raw string
	if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html)); err == nil {
		doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if m := folderStructurePattern.FindStringSubmatch(s.Text()); m != nil {
				raw = m[1]
				return false
			}
			return true
		})
	}
	if raw != "" {
		return raw
	}
	if m := folderStructurePattern.FindSubmatch(html); m != nil {
		return string(m[1])
	}
	return ""
}

// parseFolderStructure decodes a flat JSON object preserving key order.
// Non-string labels keep their raw JSON text. A repeated key keeps its first
// position and its last value.
func parseFolderStructure(raw string) (FolderStructure, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var out FolderStructure
	index := make(map[string]int)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected key %v", keyTok)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		variable := string(value)
		var s string
		if json.Unmarshal(value, &s) == nil {
			variable = s
		}

		if i, seen := index[key]; seen {
			out[i].Variable = variable
			continue
		}
		index[key] = len(out)
		out = append(out, FolderEntry{FileID: key, Variable: variable})
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}
