// Package ws is the engine's command surface. Browser clients hold one
// WebSocket each: they send keys, commands and tab interactions inbound,
// and receive render frames and notification updates as pushes.
package ws
