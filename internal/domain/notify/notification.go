package notify

import "time"

// ActionType enumerates the action kinds a notification can carry.
type ActionType string

// ActionUndoDelete reverses a pending delete via its undo token.
const ActionUndoDelete ActionType = "undo-delete"

// Action is one declarative button on a notification.
type Action struct {
	Label   string            `json:"label"`
	Type    ActionType        `json:"actionType"`
	Payload map[string]string `json:"payload,omitempty"`
	Primary bool              `json:"primary,omitempty"`
	// KeepOnClick opts out of the default remove-after-invoke behavior.
	KeepOnClick bool `json:"keepOnClick,omitempty"`
}

// Notification is one entry in the store.
type Notification struct {
	ID        string     `json:"id"`
	Message   string     `json:"message"`
	Source    string     `json:"source"`
	Icon      string     `json:"icon"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Actions   []Action   `json:"actions,omitempty"`
}

// Remaining returns the time left before expiry; ok is false for a
// permanent notification.
func (n *Notification) Remaining(now time.Time) (time.Duration, bool) {
	if n.ExpiresAt == nil {
		return 0, false
	}
	return n.ExpiresAt.Sub(now), true
}

// Expired reports whether the notification's deadline has passed.
func (n *Notification) Expired(now time.Time) bool {
	return n.ExpiresAt != nil && !now.Before(*n.ExpiresAt)
}

// Spec describes a notification to create. A zero TTL means permanent.
type Spec struct {
	Message string
	Source  string
	Icon    string
	TTL     time.Duration
	Actions []Action
}
