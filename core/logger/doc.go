// Package logger builds the zap logger used across the application.
//
// Level "debug" selects zap's development config; any other level uses the
// production config at that level. Format "console" gives colored output with
// ISO8601 timestamps, anything else JSON.
//
// WithRayID attaches the request's ray_id to a logger so every line of one
// HTTP request can be correlated.
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info", Format: "console"})
//	log.Info("Comparison finished", zap.Int("only_a", 3))
//
//	// In a request handler:
//	l := logger.WithRayID(log, c)
//	l.Error("Comparison request failed", zap.Error(err))
package logger
