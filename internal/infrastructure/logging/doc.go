// Package logging provides structured logging for the detector agent.
//
// This package wraps Go's standard log/slog package so every component logs
// with the same handler, level and default fields.
//
// # Configuration
//
// Logging is configured via the LoggingConfig in detector.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("cycle complete", "readings", 3)
//	logger.Error("upload failed", "error", err)
//
// Components take a narrow Logger interface (Debug/Info/Warn/Error) rather
// than *Logger, so tests can pass Discard().
package logging
