// Package logging provides structured logging for the garage node.
//
// This package wraps zap logger with convenience functions for common logging
// patterns used by the node. It provides both general logging functions and
// helpers for the request/response protocol.
//
// # Log Levels
//
//   - Debug: Raw bodies, per-poll radio status
//   - Info: Connections, requests, phase changes
//   - Warn: Attachment loss, rejected requests, reconnect timeouts
//   - Error: Listener failures, startup failures
//
// # Configuration
//
// Initialize logging at startup:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// An optional JSON log file rotated by lumberjack can be added with
// InitializeWithFile. When no level is given and GARAGE_LOG_LEVEL is unset,
// the logger is a no-op.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap logger
// handles synchronization automatically. Initialize and SetLogger must be
// called before other goroutines log.
package logging
