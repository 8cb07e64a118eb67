package catalog

import (
	"time"
)

// SkipUnresolved is the reason recorded for identifiers with no filename
const SkipUnresolved = "unresolved"

// NameLookup maps a species code to its display name, "" when unknown
type NameLookup interface {
	Lookup(code string) string
}

// Skip describes a record that produced no image
type Skip struct {
	FileID   string
	Filename string
	Reason   string
	Err      error
}

type Result struct {
	Catalog *Catalog
	Skipped []Skip
}

// Build groups classified records into a catalog. Each record yields at most
// one image; species appear in the order their first image was seen. Build
// does no I/O and is deterministic for a fixed now.
func Build(source string, records []FileRecord, names NameLookup, now time.Time) Result {
	cat := &Catalog{
		Source:      source,
		GeneratedAt: now.UTC().Format(TimestampFormat),
		Species:     []SpeciesEntry{},
	}
	res := Result{Catalog: cat}
	index := make(map[string]int)

	for _, rec := range records {
		if !rec.Resolved() {
			res.Skipped = append(res.Skipped, Skip{FileID: rec.FileID, Reason: SkipUnresolved})
			continue
		}
		if err := rec.Classify(); err != nil {
			res.Skipped = append(res.Skipped, Skip{
				FileID:   rec.FileID,
				Filename: rec.ResolvedFilename,
				Reason:   err.Error(),
				Err:      err,
			})
			continue
		}

		i, ok := index[rec.SpeciesCode]
		if !ok {
			i = len(cat.Species)
			index[rec.SpeciesCode] = i
			name := ""
			if names != nil {
				name = names.Lookup(rec.SpeciesCode)
			}
			cat.Species = append(cat.Species, SpeciesEntry{
				SpeciesCode: rec.SpeciesCode,
				SpeciesName: name,
				Images:      []Image{},
			})
		}
		cat.Species[i].Images = append(cat.Species[i].Images, Image{
			FileName: rec.ResolvedFilename,
			Label:    rec.ImageLabel,
			URL:      rec.URL,
		})
	}

	return res
}

// Entry returns the species entry for code, or nil
func (c *Catalog) Entry(code string) *SpeciesEntry {
	for i := range c.Species {
		if c.Species[i].SpeciesCode == code {
			return &c.Species[i]
		}
	}
	return nil
}
