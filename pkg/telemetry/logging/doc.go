// Package logging builds the process-wide structured logger.
//
// # Overview
//
// The logging package configures a log/slog logger with:
//   - JSON, text, or console output
//   - Configurable log levels (debug, info, warn, error)
//   - Principal redaction: attribute keys that carry caller identities
//     (API keys, client IPs) are masked before they are written
//   - Request-scoped fields carried in context.Context
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//	if err != nil {
//	    return err
//	}
//
//	logger.Info("limiter decision",
//	    "limiter", "api",
//	    "principal", "sk-live-abc123", // written as "sk-l***"
//	    "allowed", false,
//	)
//
//	ctx = logging.WithRequestID(ctx, "req-123")
//	logging.FromContext(ctx, logger).Info("processing") // includes request_id
package logging
