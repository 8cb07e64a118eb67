package catalog

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "firemaps/pkg/errors"
)

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.FixedZone("CET", 3600))

func record(id, filename string) FileRecord {
	return FileRecord{
		FileID:           id,
		Variable:         "var" + id,
		ResolvedFilename: filename,
		URL:              "https://figshare.com/ndownloader/files/" + id + "?private_link=tok",
	}
}

func TestParseFilename(t *testing.T) {
	tests := []struct {
		name      string
		filename  string
		wantCode  string
		wantLabel string
		wantErr   bool
	}{
		{"canonical", "ABCD_PI_occurrence.png", "ABCD", "PI_occurrence", false},
		{"upper case extension", "WXYZ_fri.PNG", "WXYZ", "fri", false},
		{"label keeps later underscores", "AB_c_d_e.png", "AB", "c_d_e", false},
		{"not png", "summary.csv", "", "", true},
		{"png without underscore", "noUnderscore.png", "", "", true},
		{"leading underscore", "_label.png", "", "", true},
		{"empty label", "ABCD_.png", "", "", true},
		{"png inside name", "ABCD_map.png.zip", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, label, err := ParseFilename(tt.filename)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errs.IsType(err, errs.ErrorTypeConvention))
				assert.Empty(t, code)
				assert.Empty(t, label)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantLabel, label)
		})
	}
}

func TestBuildScenario(t *testing.T) {
	records := []FileRecord{
		record("1", "ABCD_PI_occurrence.png"),
		record("2", "summary.csv"),
		record("3", "noUnderscore.png"),
		record("4", ""),
	}
	names := SpeciesNames{"ABCD": "Acacia bicolor"}

	res := Build("https://figshare.com/s/tok", records, names, fixedNow)

	want := &Catalog{
		Source:      "https://figshare.com/s/tok",
		GeneratedAt: "2025-03-14T08:26:53Z",
		Species: []SpeciesEntry{{
			SpeciesCode: "ABCD",
			SpeciesName: "Acacia bicolor",
			Images: []Image{{
				FileName: "ABCD_PI_occurrence.png",
				Label:    "PI_occurrence",
				URL:      "https://figshare.com/ndownloader/files/1?private_link=tok",
			}},
		}},
	}
	if diff := cmp.Diff(want, res.Catalog); diff != "" {
		t.Errorf("catalog mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, res.Skipped, 3)
	assert.Equal(t, "2", res.Skipped[0].FileID)
	assert.Contains(t, res.Skipped[0].Reason, "not a .png file")
	assert.Equal(t, "3", res.Skipped[1].FileID)
	assert.Contains(t, res.Skipped[1].Reason, "<code>_<label>.png")
	assert.Equal(t, Skip{FileID: "4", Reason: SkipUnresolved}, res.Skipped[2])
}

func TestBuildGroupsInFirstSeenOrder(t *testing.T) {
	records := []FileRecord{
		record("1", "WXYZ_a.png"),
		record("2", "ABCD_a.png"),
		record("3", "WXYZ_b.png"),
		record("4", "EFGH_a.png"),
		record("5", "ABCD_b.png"),
	}

	res := Build("src", records, nil, fixedNow)
	cat := res.Catalog

	codes := make([]string, 0, len(cat.Species))
	for _, s := range cat.Species {
		codes = append(codes, s.SpeciesCode)
		assert.Empty(t, s.SpeciesName, "unknown codes get an empty name")
	}
	assert.Equal(t, []string{"WXYZ", "ABCD", "EFGH"}, codes)
	assert.Equal(t, []Image{
		{FileName: "WXYZ_a.png", Label: "a", URL: records[0].URL},
		{FileName: "WXYZ_b.png", Label: "b", URL: records[2].URL},
	}, cat.Entry("WXYZ").Images)
	assert.Nil(t, cat.Entry("NOPE"))
	assert.Equal(t, 5, cat.ImageCount())
	assert.Empty(t, res.Skipped)
}

func TestBuildOneImagePerIdentifier(t *testing.T) {
	filenames := []string{
		"A_x.png", "A_y.PNG", "B_x.png", "readme.txt", "noUnderscore.png",
		"", "C_.png", "D_z.png", "A_x.png", "_lead.png",
	}
	records := make([]FileRecord, len(filenames))
	for i, name := range filenames {
		records[i] = record(string(rune('a'+i)), name)
	}

	res := Build("src", records, nil, fixedNow)

	perID := map[string]int{}
	seenCodes := map[string]bool{}
	for _, s := range res.Catalog.Species {
		assert.False(t, seenCodes[s.SpeciesCode], "duplicate species %s", s.SpeciesCode)
		seenCodes[s.SpeciesCode] = true
		for _, img := range s.Images {
			code, label, err := ParseFilename(img.FileName)
			require.NoError(t, err)
			assert.Equal(t, s.SpeciesCode, code)
			assert.Equal(t, label, img.Label)
			perID[img.URL]++
		}
	}

	skipped := map[string]bool{}
	for _, sk := range res.Skipped {
		skipped[sk.FileID] = true
	}
	for _, rec := range records {
		n := perID[rec.URL]
		assert.LessOrEqual(t, n, 1, "identifier %s", rec.FileID)
		assert.NotEqual(t, n == 1, skipped[rec.FileID], "identifier %s is either imaged or skipped", rec.FileID)
	}
}

func TestBuildIsIdempotent(t *testing.T) {
	records := []FileRecord{
		record("1", "ABCD_PI_occurrence.png"),
		record("2", "WXYZ_fri.png"),
		record("3", "ABCD_fri.png"),
	}
	names := SpeciesNames{"WXYZ": "Wollemia nobilis"}

	first := Build("src", records, names, fixedNow)
	second := Build("src", records, names, fixedNow.Add(time.Hour))

	a, err := json.Marshal(first.Catalog.Species)
	require.NoError(t, err)
	b, err := json.Marshal(second.Catalog.Species)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(a, b))
	assert.NotEqual(t, first.Catalog.GeneratedAt, second.Catalog.GeneratedAt)

	assert.Equal(t, "ABCD_PI_occurrence.png", records[0].ResolvedFilename)
	assert.Empty(t, records[0].SpeciesCode, "inputs are not modified")
}

func TestBuildEmptyInput(t *testing.T) {
	res := Build("src", nil, nil, fixedNow)
	data, err := json.Marshal(res.Catalog)
	require.NoError(t, err)
	assert.JSONEq(t, `{"source":"src","generated_at":"2025-03-14T08:26:53Z","species":[]}`, string(data))
}

func TestClassify(t *testing.T) {
	rec := record("1", "ABCD_PI.png")
	require.NoError(t, rec.Classify())
	assert.Equal(t, "ABCD", rec.SpeciesCode)
	assert.Equal(t, "PI", rec.ImageLabel)

	rec.ResolvedFilename = "broken"
	require.Error(t, rec.Classify())
	assert.Empty(t, rec.SpeciesCode)
	assert.Empty(t, rec.ImageLabel)
}
