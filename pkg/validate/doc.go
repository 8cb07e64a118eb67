// Package validate checks a catalog file against a JSON schema.
//
// Failures are typed so the CLI can tell them apart: a file that cannot be
// read or parsed is a LoadFailure, a schema that breaks its own meta-schema
// is SchemaMalformed, and a catalog that breaks the schema is CatalogInvalid
// carrying one Violation per offending location.
package validate
