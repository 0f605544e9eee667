// Package logging provides structured logging for the file-manager engine.
//
// Built on uber-go/zap with environment-aware configuration: JSON output
// in production, colored console output in development. Components take a
// *Logger and use Named children so log lines carry their origin.
package logging
