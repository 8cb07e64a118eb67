package catalog

import (
	"regexp"
	"strings"

	errs "firemaps/pkg/errors"
)

// Species code is the leading run of non-underscore characters; the label is
// everything after the first underscore.
var filenamePattern = regexp.MustCompile(`(?i)^([^_]+)_(.+)\.png$`)

// ParseFilename splits "<code>_<label>.png" into its parts. Anything without
// a .png suffix or a separating underscore is a FilenameConventionMismatch.
func ParseFilename(name string) (code, label string, err error) {
	if !strings.HasSuffix(strings.ToLower(name), ".png") {
		return "", "", errs.FilenameConventionMismatch(name, "not a .png file")
	}

	m := filenamePattern.FindStringSubmatch(name)
	if m == nil {
		return "", "", errs.FilenameConventionMismatch(name, "does not match <code>_<label>.png")
	}
	return m[1], m[2], nil
}

// Classify fills SpeciesCode and ImageLabel from the resolved filename
func (r *FileRecord) Classify() error {
	code, label, err := ParseFilename(r.ResolvedFilename)
	if err != nil {
		r.SpeciesCode, r.ImageLabel = "", ""
		return err
	}
	r.SpeciesCode, r.ImageLabel = code, label
	return nil
}
