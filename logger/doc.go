// Package logger provides structured logging on top of zerolog.
//
// Loggers write JSON or console output, are tagged per component and accept
// fields as maps:
//
//	log := logger.WithComponent("di")
//	log.Debug("injectable constructed", logger.Fields("token", "db", "duration_ms", 3))
//
// WithContext stamps the OpenTelemetry trace and span IDs of the active span.
package logger
