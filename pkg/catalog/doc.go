// Package catalog turns resolved filenames into the species catalog.
//
// Filenames follow "<code>_<label>.png": the species code runs up to the first
// underscore and the label is the rest of the stem. Build applies that
// convention to every FileRecord, drops what does not fit, and groups the
// rest by species code in first-seen order. Species display names come from a
// SpeciesNames table loaded from a lenient JSON file.
package catalog
