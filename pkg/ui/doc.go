// Package ui prints human-facing output: coloured status lines, a progress
// line for the resolution loop, and rounded tables for summaries and link
// reports. Output goes to stdout unless redirected with SetOutput; quiet mode
// keeps errors and report lines only.
package ui
