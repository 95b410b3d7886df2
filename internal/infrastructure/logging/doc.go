// Package logging provides structured logging for thing nodes.
//
// This package wraps Go's standard log/slog package. It replaces the
// serial console the firmware printed to: every line carries the service
// name and version, and callers add the device id with With.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "text"     # json, text, console
//	  output: "stdout"   # stdout, stderr, file
//	  file:
//	    path: "./logs/thing.log"
//	    max_size: 5      # megabytes before rotation
//	    max_backups: 3
//	    max_age: 28      # days
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("link up", "ip", ip)
//
// Never log WiFi or broker passwords.
package logging
