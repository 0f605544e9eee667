// Package notify implements the ephemeral notification store.
//
// Notifications are held most-recent-first. A notification with a TTL
// carries an absolute expiry: a one-shot removal timer fires at the
// deadline and a one-second ticker refreshes the rendered countdown until
// it passes. Both handles are tracked per notification and always stopped
// before removal so no callback touches removed state.
//
// The store persists its list after every mutation. On load, entries whose
// expiry has already passed are dropped before rendering, and the timers
// of survivors restart from the remaining time rather than a fresh TTL, so
// a reload neither resets nor extends an undo window.
//
// Actions are a closed set: each ActionType maps to a handler registered
// once at process start. Unknown kinds are logged and rejected.
package notify
