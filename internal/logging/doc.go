// Package logging provides structured logging for the biocat tools.
//
// This package wraps zap logger with convenience functions for common logging
// patterns used throughout the client and CLI. Logging is silent by default
// so command output stays clean; set BIOCAT_LOG_LEVEL to enable it.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (per-request traces, limiter waits)
//   - Info: Normal operations (validation verdicts, setup events)
//   - Warn: Non-fatal issues (retries, empty responses, soft passes)
//   - Error: Fatal issues (exhausted retries, startup failures)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("API key validated",
//	    zap.String("endpoint", "state"),
//	    zap.String("api_key", client.MaskedKey()),
//	)
//
// API keys must only ever be logged in masked form.
//
// # Configuration
//
// Initialize logging at startup:
//
//	if err := logging.InitializeFromEnv(); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap logger
// handles synchronization automatically.
package logging
