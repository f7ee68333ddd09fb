// Package logger builds the application's Zap logger.
//
// New returns a production (JSON) or development (console) logger at the
// configured level. Console output uses coloured capital levels and ISO8601
// timestamps, which is also what the CLI uses to report command failures.
//
// HTTP handlers use WithRayID to tag every line with the request id set by
// the rayid middleware, so the log lines of one request can be correlated.
//
//	log, _ := logger.New(&logger.Config{Level: "info", Format: "json"})
//	log.Info("Sync complete", zap.Int("created", 3))
//
//	// In a request handler:
//	l := logger.WithRayID(log, c)
//	l.Error("Handler failed", zap.Error(err))
package logger
