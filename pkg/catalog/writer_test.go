package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "firemaps/pkg/errors"
)

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.json")
	cat := &Catalog{
		Source:      "https://figshare.com/s/tok",
		GeneratedAt: "2025-03-14T08:26:53Z",
		Species: []SpeciesEntry{
			{SpeciesCode: "ABCD", Images: []Image{{FileName: "ABCD_a.png", Label: "a", URL: "u1"}}},
			{SpeciesCode: "WXYZ", SpeciesName: "W", ZipURL: "z", Images: []Image{}},
		},
	}

	require.NoError(t, Save(path, cat))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"zip_url": ""`)
	assert.Contains(t, string(raw), `"zip_url": "z"`)

	loaded, err := Load(path)
	require.NoError(t, err)
	if diff := cmp.Diff(cat, loaded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, errs.IsType(err, errs.ErrorTypeLoad))
}
