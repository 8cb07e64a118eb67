package catalog

import (
	errs "firemaps/pkg/errors"
	"firemaps/pkg/storage"
)

// Save writes the catalog to path, replacing any previous file
func Save(path string, c *Catalog) error {
	return storage.WriteJSON(path, c)
}

// Load reads a catalog written by Save
func Load(path string) (*Catalog, error) {
	var c Catalog
	if err := storage.ReadJSON(path, &c); err != nil {
		return nil, errs.LoadFailure(path, err)
	}
	return &c, nil
}
