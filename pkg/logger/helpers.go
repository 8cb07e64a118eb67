package logger

import (
	"context"

	"github.com/rs/zerolog"
)

// LogRequest logs one HTTP exchange at a level matching its status
func LogRequest(l Logger, method, url string, statusCode int, attempt int) {
	fields := map[string]interface{}{
		"method":  method,
		"url":     url,
		"status":  statusCode,
		"attempt": attempt,
	}

	switch {
	case statusCode >= 200 && statusCode < 300:
		l.DebugWithFields("HTTP request completed", fields)
	case statusCode == 0 || statusCode >= 500:
		l.WarnWithFields("HTTP request failed", fields)
	default:
		l.DebugWithFields("HTTP request returned non-success status", fields)
	}
}

// LogSkip records an identifier or file dropped from the catalog
func LogSkip(l Logger, id, filename, reason string) {
	l.WarnWithFields("Skipping file", map[string]interface{}{
		"file_id":  id,
		"filename": filename,
		"reason":   reason,
	})
}

// LogProgress logs how far a sequential run has got
func LogProgress(l Logger, stage string, done, total int) {
	l.InfoWithFields("Progress", map[string]interface{}{
		"stage": stage,
		"done":  done,
		"total": total,
	})
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(string)                                     {}
func (n *nopLogger) Info(string)                                      {}
func (n *nopLogger) Warn(string)                                      {}
func (n *nopLogger) Error(string)                                     {}
func (n *nopLogger) Fatal(string)                                     {}
func (n *nopLogger) WithField(string, interface{}) Logger             { return n }
func (n *nopLogger) WithFields(map[string]interface{}) Logger         { return n }
func (n *nopLogger) WithError(error) Logger                           { return n }
func (n *nopLogger) WithContext(context.Context) Logger               { return n }
func (n *nopLogger) DebugWithFields(string, map[string]interface{})   {}
func (n *nopLogger) InfoWithFields(string, map[string]interface{})    {}
func (n *nopLogger) WarnWithFields(string, map[string]interface{})    {}
func (n *nopLogger) ErrorWithFields(string, map[string]interface{})   {}
func (n *nopLogger) FatalWithFields(string, map[string]interface{})   {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                      { return nil }
