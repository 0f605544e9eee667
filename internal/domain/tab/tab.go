package tab

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/XiaoYing/filemanager/internal/domain/history"
	"github.com/XiaoYing/filemanager/internal/domain/selection"
	"github.com/XiaoYing/filemanager/internal/infrastructure/logging"
	"github.com/XiaoYing/filemanager/internal/shared/id"
	"github.com/XiaoYing/filemanager/internal/shared/types"
)

// RootTitle is shown while a tab sits on the virtual device listing.
const RootTitle = "This PC"

// Fetcher is the external listing collaborator.
type Fetcher interface {
	FetchListing(ctx context.Context, path string) (*types.Listing, error)
}

// Renderer is the external rendering collaborator.
type Renderer interface {
	RenderTab(frame Frame)
}

// MarkLookup resolves the clipboard mark for a path. The registry's mark
// store implements it; a nil lookup renders no marks.
type MarkLookup interface {
	Mark(path string) (types.MarkKind, bool)
}

// Item is one rendered row: the entry plus its view state.
type Item struct {
	types.Entry
	Selected bool           `json:"selected,omitempty"`
	Mark     types.MarkKind `json:"mark,omitempty"`
}

// Frame is what the renderer receives after every mutating operation.
type Frame struct {
	TabID         string `json:"tabId"`
	Title         string `json:"title"`
	Path          string `json:"path"`
	Active        bool   `json:"active"`
	Items         []Item `json:"items"`
	TotalCount    int    `json:"totalCount"`
	SelectedCount int    `json:"selectedCount"`
	FilterTerm    string `json:"filterTerm,omitempty"`
	CanGoBack     bool   `json:"canGoBack"`
	CanGoForward  bool   `json:"canGoForward"`
}

// Tab is one navigation context: history, selection, filter, and the
// current listing snapshot.
type Tab struct {
	mu sync.Mutex

	id         string
	title      string
	history    *history.Stack
	sel        *selection.Model
	filterTerm string
	items      []types.Entry
	active     bool
	rendered   bool // false until a listing reached the renderer
	loading    bool
	loadGen    uint64 // bumped per load; stale responses are dropped

	fetcher  Fetcher
	renderer Renderer
	marks    MarkLookup
	log      *logging.Logger
}

// New creates a fresh tab or restores one from persisted state.
func New(state *types.TabState, fetcher Fetcher, renderer Renderer, marks MarkLookup, log *logging.Logger) *Tab {
	if log == nil {
		log = logging.NewNop()
	}
	t := &Tab{
		sel:      selection.New(),
		fetcher:  fetcher,
		renderer: renderer,
		marks:    marks,
		log:      log.Named("tab"),
	}
	if state != nil {
		t.id = state.ID
		t.history = history.Restore(state.History, state.HistoryIndex)
		t.filterTerm = state.FilterTerm
		t.title = state.Title
		if t.title == "" {
			t.title = RootTitle
		}
	} else {
		t.id = id.NewTabID().String()
		t.history = history.New()
		t.title = RootTitle
	}
	return t
}

// ID returns the tab's stable identifier.
func (t *Tab) ID() string {
	return t.id
}

// Title returns the tab's display title.
func (t *Tab) Title() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.title
}

// CurrentPath returns the path under the history cursor; ok is false for
// a tab that has never navigated.
func (t *Tab) CurrentPath() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.history.Current()
}

// LoadPath navigates the tab to path, pushing a history entry. Loading
// the path already under the cursor is suppressed; use Refresh for that.
func (t *Tab) LoadPath(ctx context.Context, path string) {
	t.mu.Lock()
	if t.loading {
		t.mu.Unlock()
		return
	}
	if current, ok := t.history.Current(); ok && current == path {
		t.mu.Unlock()
		return
	}
	t.sel.Clear()
	if path == types.RootPath {
		// The device listing has no filenames to filter.
		t.filterTerm = ""
	}
	t.mu.Unlock()

	t.load(ctx, path, true)
}

// Refresh re-fetches the current path without touching history.
func (t *Tab) Refresh(ctx context.Context) {
	t.mu.Lock()
	if t.loading {
		t.mu.Unlock()
		return
	}
	path, ok := t.history.Current()
	if !ok {
		t.mu.Unlock()
		return
	}
	t.sel.Clear()
	t.mu.Unlock()

	t.load(ctx, path, false)
}

// GoBack replays the previous history entry.
func (t *Tab) GoBack(ctx context.Context) {
	t.mu.Lock()
	if t.loading {
		t.mu.Unlock()
		return
	}
	path, ok := t.history.Back()
	if !ok {
		t.mu.Unlock()
		return
	}
	t.sel.Clear()
	t.mu.Unlock()

	t.load(ctx, path, false)
}

// GoForward replays the next history entry.
func (t *Tab) GoForward(ctx context.Context) {
	t.mu.Lock()
	if t.loading {
		t.mu.Unlock()
		return
	}
	path, ok := t.history.Forward()
	if !ok {
		t.mu.Unlock()
		return
	}
	t.sel.Clear()
	t.mu.Unlock()

	t.load(ctx, path, false)
}

// EnsureLoaded rematerializes a restored tab the first time it becomes
// visible: if nothing has been rendered yet and the tab has history, its
// current path is replayed without pushing a new entry.
func (t *Tab) EnsureLoaded(ctx context.Context) {
	t.mu.Lock()
	path, ok := t.history.Current()
	if t.rendered || t.loading || !ok {
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	t.load(ctx, path, false)
}

// load fetches path and applies the listing. The loading flag is always
// released, including on failure. addToHistory distinguishes forward
// navigation from history replay.
func (t *Tab) load(ctx context.Context, path string, addToHistory bool) {
	t.mu.Lock()
	if t.loading {
		t.mu.Unlock()
		return
	}
	t.loading = true
	t.loadGen++
	gen := t.loadGen
	t.mu.Unlock()

	listing, err := t.fetcher.FetchListing(ctx, path)

	t.mu.Lock()
	t.loading = false
	if err != nil {
		t.mu.Unlock()
		t.log.Warn("listing fetch failed",
			zap.String("tab_id", t.id),
			zap.String("path", path),
			zap.Error(err))
		return
	}
	if gen != t.loadGen {
		// A newer navigation superseded this fetch.
		t.mu.Unlock()
		return
	}
	t.items = listing.Entries()
	t.title = titleFor(path)
	if addToHistory {
		t.history.Navigate(path)
	}
	t.rendered = true
	t.mu.Unlock()

	t.Render()
}

// SetFilter stores term and recomputes the visible subset. Selection
// membership is untouched; filtering is a view-level concern.
func (t *Tab) SetFilter(term string) {
	t.mu.Lock()
	t.filterTerm = term
	t.mu.Unlock()
	t.Render()
}

// FilterTerm returns the active filter term.
func (t *Tab) FilterTerm() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.filterTerm
}

// Click applies one click on item, resolved against the full listing.
func (t *Tab) Click(item types.Entry, mods selection.Modifiers) {
	t.mu.Lock()
	t.sel.Click(t.items, item, mods)
	t.mu.Unlock()
	t.Render()
}

// SelectAll selects every entry in the current listing.
func (t *Tab) SelectAll() {
	t.mu.Lock()
	t.sel.SelectAll(t.items)
	t.mu.Unlock()
	t.Render()
}

// ClearSelection empties the selection and anchor.
func (t *Tab) ClearSelection() {
	t.mu.Lock()
	t.sel.Clear()
	t.mu.Unlock()
	t.Render()
}

// SelectedEntries returns the selected entries in listing order.
func (t *Tab) SelectedEntries() []types.Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sel.Selected(t.items)
}

// SelectedPaths returns the selected paths in listing order.
func (t *Tab) SelectedPaths() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sel.Paths(t.items)
}

// SelectionCount returns the number of selected entries.
func (t *Tab) SelectionCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sel.Count()
}

// SetActive flags the tab visible or hidden and re-renders it.
func (t *Tab) SetActive(active bool) {
	t.mu.Lock()
	t.active = active
	t.mu.Unlock()
	t.Render()
}

// OnBroadcast handles registry events addressed to every other tab.
func (t *Tab) OnBroadcast(event types.Event) {
	switch event.Type {
	case types.EventClipboardUpdate:
		// Marks are resolved per-path at render time, so redrawing is
		// all a non-originating tab has to do.
		t.Render()
	default:
		t.log.Debug("unhandled broadcast", zap.String("event", string(event.Type)))
	}
}

// Render builds a frame from the current state and hands it to the
// renderer. The frame holds the filtered view; counts cover the full
// listing so a filter does not hide the true totals.
func (t *Tab) Render() {
	if t.renderer == nil {
		return
	}
	t.mu.Lock()
	frame := t.buildFrame()
	t.mu.Unlock()
	t.renderer.RenderTab(frame)
}

// buildFrame assembles the render frame. Caller must hold t.mu.
func (t *Tab) buildFrame() Frame {
	path, _ := t.history.Current()
	visible := t.items
	if t.filterTerm != "" {
		term := strings.ToLower(t.filterTerm)
		visible = make([]types.Entry, 0, len(t.items))
		for _, e := range t.items {
			if strings.Contains(strings.ToLower(e.Name), term) {
				visible = append(visible, e)
			}
		}
	}

	items := make([]Item, len(visible))
	for i, e := range visible {
		item := Item{Entry: e, Selected: t.sel.IsSelected(e.Path)}
		if t.marks != nil {
			if mark, ok := t.marks.Mark(e.Path); ok {
				item.Mark = mark
			}
		}
		items[i] = item
	}

	return Frame{
		TabID:         t.id,
		Title:         t.title,
		Path:          path,
		Active:        t.active,
		Items:         items,
		TotalCount:    len(t.items),
		SelectedCount: t.sel.Count(),
		FilterTerm:    t.filterTerm,
		CanGoBack:     t.history.CanGoBack(),
		CanGoForward:  t.history.CanGoForward(),
	}
}

// Snapshot captures the persisted view of the tab.
func (t *Tab) Snapshot() types.TabState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return types.TabState{
		ID:           t.id,
		History:      t.history.Entries(),
		HistoryIndex: t.history.Cursor(),
		FilterTerm:   t.filterTerm,
		Title:        t.title,
	}
}

// titleFor derives the display title from a path: the last path segment,
// with the virtual root mapped to RootTitle.
func titleFor(path string) string {
	if path == types.RootPath {
		return RootTitle
	}
	trimmed := strings.TrimRight(path, `\/`)
	if i := strings.LastIndexAny(trimmed, `\/`); i >= 0 && i < len(trimmed)-1 {
		return trimmed[i+1:]
	}
	if trimmed == "" {
		return path
	}
	return trimmed
}
