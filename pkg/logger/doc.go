// Package logger provides the structured logging interface used across firemaps.
//
// It wraps zerolog with a coloured console writer on stderr, an optional JSON
// format, and an optional size-rotated log file (lumberjack):
//
//	err := logger.Initialize(&cfg.Logging)
//	log := logger.GetLogger().WithField("run_id", runID)
//	log.InfoWithFields("Resolved filename", map[string]interface{}{
//		"file_id":  id,
//		"filename": name,
//	})
//
// Tests use NewTestLogger to capture and assert on log calls, or
// NewNopLogger to silence output.
package logger
