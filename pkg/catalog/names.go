package catalog

import (
	"os"
	"sort"

	"github.com/antzucaro/matchr"
	"github.com/titanous/json5"

	errs "firemaps/pkg/errors"
)

// minSuggestSimilarity is the Jaro-Winkler score below which no suggestion is offered
const minSuggestSimilarity = 0.8

// SpeciesNames is the static code to display-name table
type SpeciesNames map[string]string

// LoadSpeciesNames reads a JSON object of code to name. Comments and trailing
// commas are accepted. A missing file yields an empty table.
func LoadSpeciesNames(path string) (SpeciesNames, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return SpeciesNames{}, nil
	}
	if err != nil {
		return nil, errs.LoadFailure(path, err)
	}

	names := SpeciesNames{}
	if err := json5.Unmarshal(data, &names); err != nil {
		return nil, errs.LoadFailure(path, err)
	}
	return names, nil
}

func (n SpeciesNames) Lookup(code string) string {
	return n[code]
}

// Merge copies other into n; entries in other win
func (n SpeciesNames) Merge(other map[string]string) {
	for k, v := range other {
		n[k] = v
	}
}

// Suggest returns the known code most similar to code, if any is close enough
func (n SpeciesNames) Suggest(code string) (string, bool) {
	known := make([]string, 0, len(n))
	for k := range n {
		known = append(known, k)
	}
	sort.Strings(known)

	best, bestScore := "", 0.0
	for _, k := range known {
		score := matchr.JaroWinkler(code, k, false)
		if score > bestScore {
			best, bestScore = k, score
		}
	}
	if bestScore < minSuggestSimilarity {
		return "", false
	}
	return best, true
}

// Unknown returns the codes in cat with no display name, in catalog order
func (n SpeciesNames) Unknown(cat *Catalog) []string {
	var out []string
	for _, s := range cat.Species {
		if _, ok := n[s.SpeciesCode]; !ok {
			out = append(out, s.SpeciesCode)
		}
	}
	return out
}
