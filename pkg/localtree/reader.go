package localtree

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"firemaps/pkg/catalog"
	errs "firemaps/pkg/errors"
	"firemaps/pkg/logger"
)

// SpeciesTable is the optional root file mapping codes to names
const SpeciesTable = "species.csv"

// Reader assembles a catalog from a directory holding one folder per species.
// Inside a folder, "<code>_<label>.png" files become images, "<code>.zip" the
// archive link and "<code>.json" may carry a species_name.
type Reader struct {
	root    string
	baseURL string
	names   catalog.SpeciesNames
	log     logger.Logger
}

// folderMeta is the per-species JSON document
type folderMeta struct {
	SpeciesName string `json:"species_name"`
}

// NewReader creates a reader over root. names may be nil.
func NewReader(root, baseURL string, names catalog.SpeciesNames, log logger.Logger) *Reader {
	if names == nil {
		names = catalog.SpeciesNames{}
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Reader{root: root, baseURL: baseURL, names: names, log: log}
}

// Read walks the tree and builds the catalog. limit caps the number of
// images considered; zero means no cap.
func (r *Reader) Read(now time.Time, limit int) (catalog.Result, error) {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		return catalog.Result{}, errs.LoadFailure(r.root, err)
	}

	table, err := readSpeciesTable(filepath.Join(r.root, SpeciesTable))
	if err != nil {
		return catalog.Result{}, err
	}
	names := catalog.SpeciesNames{}
	names.Merge(r.names)
	names.Merge(table)

	var records []catalog.FileRecord
	var skipped []catalog.Skip
	zips := map[string]string{}

folders:
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		code := entry.Name()
		dir := filepath.Join(r.root, code)

		files, err := os.ReadDir(dir)
		if err != nil {
			return catalog.Result{}, errs.LoadFailure(dir, err)
		}

		usable := 0
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			name := f.Name()
			rel := code + "/" + name

			switch {
			case name == code+".zip":
				zips[code] = r.url(rel)
				continue
			case name == code+".json":
				meta, err := readFolderMeta(filepath.Join(dir, name))
				if err != nil {
					return catalog.Result{}, err
				}
				if meta.SpeciesName != "" {
					names[code] = meta.SpeciesName
				}
				continue
			case !strings.EqualFold(filepath.Ext(name), ".png"):
				continue
			}

			fileCode, _, err := catalog.ParseFilename(name)
			if err != nil {
				skipped = append(skipped, catalog.Skip{FileID: rel, Filename: name, Reason: err.Error(), Err: err})
				continue
			}
			if fileCode != code {
				skipped = append(skipped, catalog.Skip{
					FileID:   rel,
					Filename: name,
					Reason:   fmt.Sprintf("species code %s does not match folder %s", fileCode, code),
				})
				continue
			}
			if ok, detected := isPNG(filepath.Join(dir, name)); !ok {
				skipped = append(skipped, catalog.Skip{
					FileID:   rel,
					Filename: name,
					Reason:   fmt.Sprintf("content is %s, not image/png", detected),
				})
				continue
			}

			records = append(records, catalog.FileRecord{
				FileID:           rel,
				Variable:         code,
				ResolvedFilename: name,
				URL:              r.url(rel),
			})
			usable++
			if limit > 0 && len(records) >= limit {
				break folders
			}
		}

		if usable == 0 {
			r.log.WarnWithFields("Species folder has no usable images", map[string]interface{}{
				"species_code": code,
				"dir":          dir,
			})
		}
	}

	res := catalog.Build(r.source(), records, names, now)
	for code, zipURL := range zips {
		if e := res.Catalog.Entry(code); e != nil {
			e.ZipURL = zipURL
		}
	}
	res.Skipped = append(skipped, res.Skipped...)

	r.log.InfoWithFields("Read local species tree", map[string]interface{}{
		"root":    r.root,
		"species": len(res.Catalog.Species),
		"images":  res.Catalog.ImageCount(),
		"skipped": len(res.Skipped),
	})
	return res, nil
}

// source names where the catalog came from
func (r *Reader) source() string {
	if r.baseURL != "" {
		return r.baseURL
	}
	return filepath.ToSlash(r.root)
}

// url turns a slash-separated path under root into a link
func (r *Reader) url(rel string) string {
	if r.baseURL == "" {
		return rel
	}
	u, err := url.JoinPath(r.baseURL, strings.Split(rel, "/")...)
	if err != nil {
		return strings.TrimSuffix(r.baseURL, "/") + "/" + rel
	}
	return u
}

func isPNG(path string) (bool, string) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return false, "unreadable"
	}
	return mt.Is("image/png"), mt.String()
}

func readFolderMeta(path string) (folderMeta, error) {
	var meta folderMeta
	data, err := os.ReadFile(path)
	if err != nil {
		return meta, errs.LoadFailure(path, err)
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, errs.LoadFailure(path, err)
	}
	return meta, nil
}

// readSpeciesTable reads species_code,species_name rows. A missing file is
// an empty table.
func readSpeciesTable(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.LoadFailure(path, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, errs.LoadFailure(path, err)
	}
	codeCol, nameCol := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(strings.ToLower(h)) {
		case "species_code":
			codeCol = i
		case "species_name":
			nameCol = i
		}
	}
	if codeCol < 0 || nameCol < 0 {
		return nil, errs.LoadFailure(path, errors.New("header must name species_code and species_name"))
	}

	table := map[string]string{}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errs.LoadFailure(path, err)
		}
		if codeCol >= len(row) || nameCol >= len(row) {
			continue
		}
		if code := strings.TrimSpace(row[codeCol]); code != "" {
			table[code] = strings.TrimSpace(row[nameCol])
		}
	}
	return table, nil
}
