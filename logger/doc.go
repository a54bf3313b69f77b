// Package logger provides structured logging for the portfolio service
// using zerolog.
//
// Loggers are scoped per component and carry request/trace identifiers
// pulled from the context. Two output formats are supported: JSON for
// production and a compact console format for development.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.WithComponent("ingest")
//	log.Info("image stored", logger.Fields("key", key, "bytes", n))
package logger
