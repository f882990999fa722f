// Package logging provides structured logging for the i-soft client and bridge.
//
// It wraps a global zap logger with package-level helpers. Logging is silent
// until Initialize is called with a level or ISOFT_LOG_LEVEL is set, so the
// CLI prints nothing but its own output by default.
//
// # Log Levels
//
//   - Debug: every device request, raw register payloads
//   - Info: commands accepted, bridge lifecycle
//   - Warn: measurements that produced no value this cycle
//   - Error: failed commands, broken sinks
//
// # Usage
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
//	logging.Info("Bridge started", zap.String("device", host))
//	logging.LogReadFailure("salt_level", "5600", err)
//
// All functions are safe for concurrent use.
package logging
