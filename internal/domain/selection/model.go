// Package selection implements anchor-based item selection for one tab.
//
// Selection identity is the entry path. The anchor is the reference point
// for range (shift) clicks and deliberately survives consecutive range
// clicks so each one extends from the same fixed point.
package selection

import (
	"github.com/XiaoYing/filemanager/internal/shared/types"
)

// Modifiers describes the keyboard state of a click.
type Modifiers struct {
	Toggle bool // ctrl/cmd held
	Range  bool // shift held
}

// Model tracks the selected paths and the range anchor within one listing.
type Model struct {
	selected map[string]struct{}
	anchor   string // path of the anchor entry, "" when unset
}

// New creates an empty selection.
func New() *Model {
	return &Model{selected: make(map[string]struct{})}
}

// Click applies one click on item with the given modifiers, resolved
// against the listing order in items.
func (m *Model) Click(items []types.Entry, item types.Entry, mods Modifiers) {
	switch {
	case mods.Range && m.anchor != "":
		m.rangeClick(items, item)
	case mods.Toggle:
		if _, ok := m.selected[item.Path]; ok {
			delete(m.selected, item.Path)
		} else {
			m.selected[item.Path] = struct{}{}
		}
		m.anchor = item.Path
	default:
		// A shift-click without an anchor degrades to a plain click.
		m.selected = map[string]struct{}{item.Path: {}}
		m.anchor = item.Path
	}
}

// rangeClick selects every entry between the anchor and item inclusive.
// A stale anchor or item that is no longer in the listing resolves to a
// zero-length range: the selection ends up empty rather than panicking.
func (m *Model) rangeClick(items []types.Entry, item types.Entry) {
	m.selected = make(map[string]struct{})

	anchorIdx, itemIdx := -1, -1
	for i := range items {
		switch items[i].Path {
		case m.anchor:
			anchorIdx = i
		case item.Path:
			itemIdx = i
		}
	}
	// The anchor may equal the clicked item.
	if m.anchor == item.Path {
		itemIdx = anchorIdx
	}
	if anchorIdx < 0 || itemIdx < 0 {
		return
	}

	start, end := anchorIdx, itemIdx
	if start > end {
		start, end = end, start
	}
	for i := start; i <= end; i++ {
		m.selected[items[i].Path] = struct{}{}
	}
	// Anchor intentionally unchanged.
}

// SelectAll selects every entry in items. The anchor is unchanged.
func (m *Model) SelectAll(items []types.Entry) {
	for i := range items {
		m.selected[items[i].Path] = struct{}{}
	}
}

// Clear empties the selection and drops the anchor.
func (m *Model) Clear() {
	m.selected = make(map[string]struct{})
	m.anchor = ""
}

// IsSelected reports whether the entry at path is selected.
func (m *Model) IsSelected(path string) bool {
	_, ok := m.selected[path]
	return ok
}

// Count returns the number of selected entries.
func (m *Model) Count() int {
	return len(m.selected)
}

// Anchor returns the anchor path, or false when no anchor is set.
func (m *Model) Anchor() (string, bool) {
	return m.anchor, m.anchor != ""
}

// Selected returns the selected entries in listing order.
func (m *Model) Selected(items []types.Entry) []types.Entry {
	out := make([]types.Entry, 0, len(m.selected))
	for i := range items {
		if _, ok := m.selected[items[i].Path]; ok {
			out = append(out, items[i])
		}
	}
	return out
}

// Paths returns the selected paths in listing order.
func (m *Model) Paths(items []types.Entry) []string {
	out := make([]string, 0, len(m.selected))
	for i := range items {
		if _, ok := m.selected[items[i].Path]; ok {
			out = append(out, items[i].Path)
		}
	}
	return out
}
