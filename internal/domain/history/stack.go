// Package history implements browser-style navigation history for one tab.
//
// The stack is branching: navigating while the cursor sits in the middle
// discards the abandoned forward entries before appending, exactly like a
// browser's address bar.
package history

// Stack is a truncate-on-navigate path history with a cursor.
// The zero value is not usable; construct with New or Restore.
type Stack struct {
	entries []string
	cursor  int
}

// New creates an empty history stack.
func New() *Stack {
	return &Stack{cursor: -1}
}

// Restore rebuilds a stack from persisted state. An out-of-range cursor
// is clamped so the invariant holds even for hand-edited state files.
func Restore(entries []string, cursor int) *Stack {
	s := &Stack{entries: append([]string(nil), entries...), cursor: cursor}
	if len(s.entries) == 0 {
		s.cursor = -1
		return s
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
	if s.cursor >= len(s.entries) {
		s.cursor = len(s.entries) - 1
	}
	return s
}

// Navigate records a forward navigation to path. Navigating to the entry
// already under the cursor is a no-op. Any forward branch beyond the
// cursor is discarded first.
func (s *Stack) Navigate(path string) {
	if s.cursor >= 0 && s.entries[s.cursor] == path {
		return
	}
	if s.cursor < len(s.entries)-1 {
		s.entries = s.entries[:s.cursor+1]
	}
	s.entries = append(s.entries, path)
	s.cursor = len(s.entries) - 1
}

// Back moves the cursor one entry back and returns the path now under it.
// Returns false without moving when already at the oldest entry.
func (s *Stack) Back() (string, bool) {
	if s.cursor <= 0 {
		return "", false
	}
	s.cursor--
	return s.entries[s.cursor], true
}

// Forward moves the cursor one entry forward and returns the path now
// under it. Returns false without moving when already at the newest entry.
func (s *Stack) Forward() (string, bool) {
	if s.cursor >= len(s.entries)-1 {
		return "", false
	}
	s.cursor++
	return s.entries[s.cursor], true
}

// CanGoBack reports whether Back would move the cursor.
func (s *Stack) CanGoBack() bool {
	return s.cursor > 0
}

// CanGoForward reports whether Forward would move the cursor.
func (s *Stack) CanGoForward() bool {
	return s.cursor < len(s.entries)-1
}

// Current returns the path under the cursor, or false if the stack is empty.
func (s *Stack) Current() (string, bool) {
	if s.cursor < 0 {
		return "", false
	}
	return s.entries[s.cursor], true
}

// Len returns the number of recorded entries.
func (s *Stack) Len() int {
	return len(s.entries)
}

// Cursor returns the cursor index, -1 when empty.
func (s *Stack) Cursor() int {
	return s.cursor
}

// Entries returns a copy of the recorded paths.
func (s *Stack) Entries() []string {
	return append([]string(nil), s.entries...)
}
