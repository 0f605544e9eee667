// Package monitoring provides Prometheus metrics for the engine.
//
// Metrics cover the command surface, tab lifecycle, collaborator calls,
// notifications, and WebSocket client count. All metric hooks are optional:
// components accept a nil *Metrics and skip recording.
package monitoring
