// Package storage writes output documents.
//
// Every write goes to a temporary file in the destination directory first and
// is renamed into place once complete, so an interrupted run leaves the
// previous file intact. WriteJSON is the entry point for catalogs and schema
// exports; ReadJSON is its counterpart for tests and tooling.
package storage
