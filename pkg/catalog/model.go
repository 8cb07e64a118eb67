package catalog

// TimestampFormat is the layout of Catalog.GeneratedAt, always in UTC
const TimestampFormat = "2006-01-02T15:04:05Z"

type Catalog struct {
	Source      string         `json:"source"`
	GeneratedAt string         `json:"generated_at"`
	Species     []SpeciesEntry `json:"species"`
}

type SpeciesEntry struct {
	SpeciesCode string  `json:"species_code"`
	SpeciesName string  `json:"species_name"`
	ZipURL      string  `json:"zip_url,omitempty"`
	Images      []Image `json:"images"`
}

type Image struct {
	FileName string `json:"file_name"`
	Label    string `json:"label"`
	URL      string `json:"url"`
}

// FileRecord is one identifier on its way from the resolver to the builder.
// SpeciesCode and ImageLabel are set together by Classify or not at all.
type FileRecord struct {
	FileID           string
	Variable         string
	ResolvedFilename string
	SpeciesCode      string
	ImageLabel       string
	URL              string
}

// Resolved reports whether a filename was recovered for the record
func (r FileRecord) Resolved() bool {
	return r.ResolvedFilename != ""
}

// ImageCount returns the number of images across all species
func (c *Catalog) ImageCount() int {
	n := 0
	for _, s := range c.Species {
		n += len(s.Images)
	}
	return n
}
