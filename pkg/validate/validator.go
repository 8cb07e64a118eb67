package validate

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	errs "firemaps/pkg/errors"
	"firemaps/pkg/logger"
)

//go:embed schema.spec.json
var defaultSchema []byte

// schemaURL is the resource name schemas are compiled under
const schemaURL = "file:///schema.spec.json"

// DefaultSchema returns a copy of the built-in catalog schema
func DefaultSchema() []byte {
	return bytes.Clone(defaultSchema)
}

// Violation is one place where the catalog breaks the schema
type Violation struct {
	Path    string
	Message string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Violations is returned, wrapped in a CatalogInvalid error, when the
// catalog does not conform
type Violations []Violation

func (vs Violations) Error() string {
	lines := make([]string, len(vs))
	for i, v := range vs {
		lines[i] = v.String()
	}
	return strings.Join(lines, "; ")
}

type Validator struct {
	log logger.Logger
}

func NewValidator(log logger.Logger) *Validator {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Validator{log: log}
}

// ValidateFiles loads both documents and checks the catalog against the
// schema. An empty schemaPath selects the built-in schema.
func (v *Validator) ValidateFiles(schemaPath, catalogPath string) error {
	schemaDoc := DefaultSchema()
	if schemaPath != "" {
		data, err := os.ReadFile(schemaPath)
		if err != nil {
			return errs.LoadFailure(schemaPath, err)
		}
		schemaDoc = data
	}
	if !json.Valid(schemaDoc) {
		return errs.LoadFailure(nameOr(schemaPath, "built-in schema"), errors.New("not valid JSON"))
	}

	doc, err := loadDocument(catalogPath)
	if err != nil {
		return errs.LoadFailure(catalogPath, err)
	}

	sch, err := Compile(schemaDoc)
	if err != nil {
		return err
	}

	if err := Validate(sch, doc); err != nil {
		return err
	}
	v.log.InfoWithFields("Schema validation passed", map[string]interface{}{
		"schema":  nameOr(schemaPath, "built-in"),
		"catalog": catalogPath,
	})
	return nil
}

// Compile parses a schema and checks it against its draft's meta-schema.
// Drafts are read from $schema, defaulting to 2020-12.
func Compile(schemaDoc []byte) (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(schemaURL, bytes.NewReader(schemaDoc)); err != nil {
		return nil, errs.SchemaMalformed(err)
	}
	sch, err := c.Compile(schemaURL)
	if err != nil {
		return nil, errs.SchemaMalformed(err)
	}
	return sch, nil
}

// Validate checks a decoded document. Every leaf violation is reported.
func Validate(sch *jsonschema.Schema, doc interface{}) error {
	err := sch.Validate(doc)
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return errs.CatalogInvalid(err)
	}
	return errs.CatalogInvalid(collect(ve))
}

// ViolationsOf extracts the violations from a CatalogInvalid error
func ViolationsOf(err error) Violations {
	var vs Violations
	if errors.As(err, &vs) {
		return vs
	}
	return nil
}

func collect(ve *jsonschema.ValidationError) Violations {
	var out Violations
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			out = append(out, Violation{Path: pathOf(e.InstanceLocation), Message: e.Message})
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)

	sort.SliceStable(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func pathOf(loc string) string {
	if loc == "" {
		return "/"
	}
	return loc
}

func loadDocument(path string) (interface{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("trailing data after JSON document")
	}
	return doc, nil
}

func nameOr(path, fallback string) string {
	if path == "" {
		return fallback
	}
	return path
}
