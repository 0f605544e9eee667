// Package server assembles the engine: configuration, persistence,
// backend collaborators, the tab registry, the notification store, and
// the HTTP/WebSocket surface they hang off.
package server
