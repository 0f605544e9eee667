package types

// EventType names a broadcast event fanned out by the tab registry.
type EventType string

// EventClipboardUpdate fires whenever the shared clipboard or its
// per-path marks change.
const EventClipboardUpdate EventType = "clipboard-update"

// Event is delivered synchronously to every tab except the originator.
type Event struct {
	Type    EventType         `json:"type"`
	Payload map[string]string `json:"payload,omitempty"`
}
