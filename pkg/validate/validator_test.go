package validate

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firemaps/pkg/catalog"
	errs "firemaps/pkg/errors"
	"firemaps/pkg/logger"
)

const validCatalog = `{
  "source": "https://figshare.com/s/tok",
  "generated_at": "2025-03-14T08:26:53Z",
  "species": [
    {
      "species_code": "ABCD",
      "species_name": "",
      "zip_url": "https://example.org/ABCD.zip",
      "images": [
        {"file_name": "ABCD_PI_occurrence.png", "label": "PI_occurrence", "url": "https://example.org/1"}
      ]
    }
  ]
}`

const missingImages = `{
  "source": "https://figshare.com/s/tok",
  "generated_at": "2025-03-14T08:26:53Z",
  "species": [
    {"species_code": "ABCD", "species_name": "", "images": []},
    {"species_code": "WXYZ", "species_name": "Wollemia nobilis"}
  ]
}`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestValidateFilesAcceptsValidCatalog(t *testing.T) {
	tl := logger.NewTestLogger()
	v := NewValidator(tl)

	catalogPath := writeTemp(t, "schema.json", validCatalog)
	require.NoError(t, v.ValidateFiles("", catalogPath))

	schemaPath := writeTemp(t, "schema.spec.json", string(DefaultSchema()))
	require.NoError(t, v.ValidateFiles(schemaPath, catalogPath))
	assert.Equal(t, 2, tl.CountMessages("Schema validation passed"))
}

func TestValidateFilesAcceptsBuiltCatalog(t *testing.T) {
	res := catalog.Build("src", []catalog.FileRecord{
		{FileID: "1", ResolvedFilename: "ABCD_a.png", URL: "https://example.org/1"},
	}, nil, fixedTime())
	path := filepath.Join(t.TempDir(), "schema.json")
	require.NoError(t, catalog.Save(path, res.Catalog))

	assert.NoError(t, NewValidator(logger.NewNopLogger()).ValidateFiles("", path))
}

func TestValidateFilesMissingImages(t *testing.T) {
	path := writeTemp(t, "schema.json", missingImages)

	err := NewValidator(logger.NewNopLogger()).ValidateFiles("", path)
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeCatalogInvalid))
	assert.Equal(t, errs.ExitSchema, errs.ExitCode(err))
	assert.NotEqual(t, errs.ExitLinks, errs.ExitCode(err))

	violations := ViolationsOf(err)
	require.Len(t, violations, 1)
	assert.Equal(t, "/species/1", violations[0].Path)
	assert.Contains(t, violations[0].Message, "images")
	assert.Contains(t, err.Error(), "/species/1")
}

func TestValidateFilesReportsEveryViolation(t *testing.T) {
	doc := `{
  "source": "",
  "generated_at": "yesterday",
  "species": [{"species_code": "A", "species_name": "", "images": [{"file_name": "A_x.png", "label": "x"}]}]
}`
	err := NewValidator(logger.NewNopLogger()).ValidateFiles("", writeTemp(t, "c.json", doc))
	require.Error(t, err)

	paths := map[string]bool{}
	for _, v := range ViolationsOf(err) {
		paths[v.Path] = true
	}
	assert.True(t, paths["/source"])
	assert.True(t, paths["/generated_at"])
	assert.True(t, paths["/species/0/images/0"])
}

func TestValidateFilesExitCodes(t *testing.T) {
	good := writeTemp(t, "good.json", validCatalog)

	tests := []struct {
		name        string
		schemaPath  string
		catalogPath string
		wantType    errs.ErrorType
		wantExit    int
	}{
		{"missing catalog", "", filepath.Join(t.TempDir(), "absent.json"), errs.ErrorTypeLoad, errs.ExitLoad},
		{"catalog not json", "", writeTemp(t, "bad.json", "{"), errs.ErrorTypeLoad, errs.ExitLoad},
		{"catalog trailing data", "", writeTemp(t, "trail.json", validCatalog+" {}"), errs.ErrorTypeLoad, errs.ExitLoad},
		{"missing schema", filepath.Join(t.TempDir(), "absent.spec.json"), good, errs.ErrorTypeLoad, errs.ExitLoad},
		{"schema not json", writeTemp(t, "s.json", "{]"), good, errs.ErrorTypeLoad, errs.ExitLoad},
		{"schema breaks meta-schema", writeTemp(t, "m.json", `{"type": 12}`), good, errs.ErrorTypeSchemaMalformed, errs.ExitSchema},
		{"schema required not array", writeTemp(t, "r.json", `{"$schema": "https://json-schema.org/draft/2020-12/schema", "required": "species"}`), good, errs.ErrorTypeSchemaMalformed, errs.ExitSchema},
	}

	v := NewValidator(logger.NewNopLogger())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateFiles(tt.schemaPath, tt.catalogPath)
			require.Error(t, err)
			assert.True(t, errs.IsType(err, tt.wantType), "got %v", err)
			assert.Equal(t, tt.wantExit, errs.ExitCode(err))
		})
	}
}

func TestDefaultSchemaIsACopy(t *testing.T) {
	a := DefaultSchema()
	a[0] = 'X'
	assert.Equal(t, byte('{'), DefaultSchema()[0])

	_, err := Compile(DefaultSchema())
	assert.NoError(t, err)
}

func fixedTime() time.Time {
	return time.Date(2025, 3, 14, 8, 26, 53, 0, time.UTC)
}
