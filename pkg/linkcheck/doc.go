// Package linkcheck verifies that every URL in a catalog answers 200.
//
// Probes run on a bounded worker pool. Each URL gets a HEAD request, retried
// once as GET when the server answers 405 or 403. Every URL is probed and
// reported even when others fail or time out.
package linkcheck
