package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/XiaoYing/filemanager/internal/domain/notify"
	"github.com/XiaoYing/filemanager/internal/domain/tab"
	"github.com/XiaoYing/filemanager/internal/infrastructure/logging"
	"github.com/XiaoYing/filemanager/internal/infrastructure/monitoring"
	"github.com/XiaoYing/filemanager/internal/shared/types"
)

// DeleteUndoTTL is how long a delete stays reversible.
const DeleteUndoTTL = 60 * time.Second

var (
	// ErrNoActiveTab is returned by operations that need a live active tab.
	ErrNoActiveTab = errors.New("no active tab")
	// ErrNothingSelected is returned by selection-driven operations when
	// the active tab has no selection.
	ErrNothingSelected = errors.New("nothing selected")
	// ErrRootDestination rejects file operations aimed at the virtual
	// device listing.
	ErrRootDestination = errors.New("the device listing cannot receive files")
)

// FileOps is the external file-operation collaborator. A nil error with a
// non-success Result means the backend rejected the operation; local state
// must stay untouched either way.
type FileOps interface {
	Paste(ctx context.Context, sourcePaths []string, op types.ClipboardOp, destinationPath string) (*types.Result, error)
	Rename(ctx context.Context, oldPath, newName string) (*types.Result, error)
	Delete(ctx context.Context, paths []string) (*types.Result, error)
	Create(ctx context.Context, path, name, kind string) (*types.Result, error)
	UndoDelete(ctx context.Context, undoID string) (*types.Result, error)
}

// Notifier is the slice of the notification store the registry needs.
type Notifier interface {
	Add(spec notify.Spec) string
}

// StateStore persists the registry snapshot.
type StateStore interface {
	SaveTabs(state types.RegistryState) error
	LoadTabs() (*types.RegistryState, error)
}

// Manager orchestrates tab lifecycle and the shared clipboard.
type Manager struct {
	mu         sync.Mutex
	tabs       map[string]*tab.Tab // Protected by mu
	order      []string            // registration order, drives broadcast; protected by mu
	activeID   string              // Protected by mu
	visitOrder []string            // least-recently-visited first; protected by mu
	clipboard  *types.Clipboard    // Protected by mu

	marks    *Marks
	fetcher  tab.Fetcher
	renderer tab.Renderer
	fileOps  FileOps
	notifier Notifier
	store    StateStore
	metrics  *monitoring.Metrics
	log      *logging.Logger
}

// NewManager creates a tab registry. notifier and store may be nil;
// delete-undo notifications and persistence are then skipped.
func NewManager(fetcher tab.Fetcher, renderer tab.Renderer, fileOps FileOps, notifier Notifier, store StateStore, log *logging.Logger) *Manager {
	if log == nil {
		log = logging.NewNop()
	}
	return &Manager{
		tabs:     make(map[string]*tab.Tab),
		marks:    NewMarks(),
		fetcher:  fetcher,
		renderer: renderer,
		fileOps:  fileOps,
		notifier: notifier,
		store:    store,
		log:      log.Named("registry"),
	}
}

// WithMetrics adds metrics tracking to the manager.
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// Marks exposes the mark store for render-time lookups.
func (m *Manager) Marks() *Marks {
	return m.marks
}

// AddTab registers a new tab. A nil state creates an interactive tab,
// which is activated and navigated to the root location; a restored tab
// stays hidden until switched to.
func (m *Manager) AddTab(ctx context.Context, state *types.TabState) *tab.Tab {
	t := tab.New(state, m.fetcher, m.renderer, m.marks, m.log)

	m.mu.Lock()
	m.tabs[t.ID()] = t
	m.order = append(m.order, t.ID())
	count := len(m.tabs)
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.TabsOpened.Inc()
		m.metrics.TabsActive.Set(float64(count))
	}

	if state == nil {
		m.SwitchTab(ctx, t.ID())
		t.LoadPath(ctx, types.RootPath)
	}
	m.saveState()
	return t
}

// SwitchTab activates id, hides the previously active tab, and moves id
// to the tail of the visit order. A restored tab that has never rendered
// replays its current path the first time it is shown.
func (m *Manager) SwitchTab(ctx context.Context, id string) {
	m.mu.Lock()
	t, ok := m.tabs[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	var prev *tab.Tab
	if m.activeID != "" && m.activeID != id {
		prev = m.tabs[m.activeID]
	}
	m.activeID = id
	m.visitOrder = removeID(m.visitOrder, id)
	m.visitOrder = append(m.visitOrder, id)
	m.mu.Unlock()

	if prev != nil {
		prev.SetActive(false)
	}
	t.SetActive(true)
	t.EnsureLoaded(ctx)

	if m.metrics != nil {
		m.metrics.TabSwitches.Inc()
	}
	m.saveState()
}

// CloseTab removes id. Closing the only remaining tab resets it to the
// root location instead; there is always at least one live tab. When the
// active tab closes, the most recently visited survivor takes over.
func (m *Manager) CloseTab(ctx context.Context, id string) {
	m.mu.Lock()
	t, ok := m.tabs[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	if len(m.tabs) == 1 {
		m.mu.Unlock()
		t.LoadPath(ctx, types.RootPath)
		m.saveState()
		return
	}

	delete(m.tabs, id)
	m.order = removeID(m.order, id)
	m.visitOrder = removeID(m.visitOrder, id)
	wasActive := m.activeID == id
	successor := ""
	if wasActive {
		m.activeID = ""
		if len(m.visitOrder) > 0 {
			successor = m.visitOrder[len(m.visitOrder)-1]
		}
	}
	count := len(m.tabs)
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.TabsActive.Set(float64(count))
	}
	if successor != "" {
		m.SwitchTab(ctx, successor)
	} else {
		m.saveState()
	}
}

// ActiveTab returns the currently active tab, or nil.
func (m *Manager) ActiveTab() *tab.Tab {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.activeID == "" {
		return nil
	}
	return m.tabs[m.activeID]
}

// Tab returns the tab with the given id.
func (m *Manager) Tab(id string) (*tab.Tab, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tabs[id]
	return t, ok
}

// Tabs returns every tab in registration order.
func (m *Manager) Tabs() []*tab.Tab {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*tab.Tab, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.tabs[id])
	}
	return out
}

// Clipboard returns a copy of the current clipboard record, or nil when
// nothing is cut or copied.
func (m *Manager) Clipboard() *types.Clipboard {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.clipboard == nil {
		return nil
	}
	cp := *m.clipboard
	cp.SourcePaths = append([]string(nil), m.clipboard.SourcePaths...)
	return &cp
}

// Cut records the active tab's selection on the clipboard for a move.
func (m *Manager) Cut(ctx context.Context) error {
	return m.mark(ctx, types.OpCut, types.MarkCut)
}

// Copy records the active tab's selection on the clipboard for a copy.
func (m *Manager) Copy(ctx context.Context) error {
	return m.mark(ctx, types.OpCopy, types.MarkCopy)
}

// mark implements Cut and Copy: previous marks are cleared wholesale, the
// clipboard is replaced, the selected paths are marked, and every other
// tab is told to redraw.
func (m *Manager) mark(ctx context.Context, op types.ClipboardOp, kind types.MarkKind) error {
	t := m.ActiveTab()
	if t == nil {
		return ErrNoActiveTab
	}
	paths := t.SelectedPaths()
	if len(paths) == 0 {
		return ErrNothingSelected
	}

	m.marks.reset()
	m.marks.set(paths, kind)
	m.mu.Lock()
	m.clipboard = &types.Clipboard{SourcePaths: paths, Operation: op}
	m.mu.Unlock()

	t.Refresh(ctx)
	m.broadcast(t.ID(), types.Event{Type: types.EventClipboardUpdate})
	return nil
}

// Paste sends the clipboard to the active tab's current directory. The
// virtual root is rejected before any network call. On success the marks
// and clipboard are cleared, the active tab refreshes, and the clear is
// broadcast so stale marks disappear everywhere.
func (m *Manager) Paste(ctx context.Context) error {
	t := m.ActiveTab()
	if t == nil {
		return ErrNoActiveTab
	}
	m.mu.Lock()
	clip := m.clipboard
	m.mu.Unlock()
	if clip == nil {
		return errors.New("clipboard is empty")
	}
	dest, ok := t.CurrentPath()
	if !ok || dest == types.RootPath {
		return ErrRootDestination
	}

	res, err := m.fileOps.Paste(ctx, clip.SourcePaths, clip.Operation, dest)
	if err := m.checkResult("paste", res, err); err != nil {
		return err
	}

	m.marks.clear(clip.SourcePaths)
	m.mu.Lock()
	m.clipboard = nil
	m.mu.Unlock()

	t.Refresh(ctx)
	m.broadcast(t.ID(), types.Event{Type: types.EventClipboardUpdate})
	return nil
}

// Rename renames the single selected entry of the active tab. The new
// name must be non-empty and differ from the current one.
func (m *Manager) Rename(ctx context.Context, newName string) error {
	t := m.ActiveTab()
	if t == nil {
		return ErrNoActiveTab
	}
	entries := t.SelectedEntries()
	if len(entries) != 1 {
		return fmt.Errorf("rename needs exactly one selected item, have %d", len(entries))
	}
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return errors.New("name must not be empty")
	}
	if newName == entries[0].Name {
		return nil
	}

	res, err := m.fileOps.Rename(ctx, entries[0].Path, newName)
	if err := m.checkResult("rename", res, err); err != nil {
		return err
	}
	t.Refresh(ctx)
	return nil
}

// Delete removes the active tab's selection. The collaborator hands back
// an undo token, which is threaded into a countdown notification whose
// action reverses the delete.
func (m *Manager) Delete(ctx context.Context) error {
	t := m.ActiveTab()
	if t == nil {
		return ErrNoActiveTab
	}
	paths := t.SelectedPaths()
	if len(paths) == 0 {
		return ErrNothingSelected
	}

	res, err := m.fileOps.Delete(ctx, paths)
	if err := m.checkResult("delete", res, err); err != nil {
		return err
	}
	t.Refresh(ctx)

	if res.UndoID != nil && m.notifier != nil {
		m.notifier.Add(notify.Spec{
			Message: strings.Join(paths, "\n") + "\nPermanently removed in one minute.",
			Icon:    "info",
			TTL:     DeleteUndoTTL,
			Actions: []notify.Action{{
				Label:   "Undo",
				Type:    notify.ActionUndoDelete,
				Payload: map[string]string{"undoId": *res.UndoID},
				Primary: true,
			}},
		})
	}
	return nil
}

// Create makes a new file or folder in the active tab's current
// directory. Names are validated before any network call, and the device
// listing cannot hold files.
func (m *Manager) Create(ctx context.Context, name, kind string) error {
	t := m.ActiveTab()
	if t == nil {
		return ErrNoActiveTab
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("name must not be empty")
	}
	path, ok := t.CurrentPath()
	if !ok || path == types.RootPath {
		return ErrRootDestination
	}

	res, err := m.fileOps.Create(ctx, path, name, kind)
	if err := m.checkResult("create", res, err); err != nil {
		return err
	}
	t.Refresh(ctx)
	return nil
}

// UndoDelete reverses a pending delete and refreshes the active tab.
func (m *Manager) UndoDelete(ctx context.Context, undoID string) error {
	res, err := m.fileOps.UndoDelete(ctx, undoID)
	if err := m.checkResult("undo-delete", res, err); err != nil {
		return err
	}
	if t := m.ActiveTab(); t != nil {
		t.Refresh(ctx)
	}
	return nil
}

// HandleUndoDelete adapts UndoDelete to the notification action handler
// signature; wire it up once at process start.
func (m *Manager) HandleUndoDelete(ctx context.Context, notificationID string, payload map[string]string) error {
	undoID, ok := payload["undoId"]
	if !ok || undoID == "" {
		return fmt.Errorf("notification %s carries no undo token", notificationID)
	}
	return m.UndoDelete(ctx, undoID)
}

// NavigateBack loads the parent of the active tab's current directory.
// Backend paths are Windows-style: the parent of a drive root is the
// device listing, and a bare drive letter gets its trailing separator
// back so the backend recognizes it.
func (m *Manager) NavigateBack(ctx context.Context) {
	t := m.ActiveTab()
	if t == nil {
		return
	}
	current, ok := t.CurrentPath()
	if !ok || current == types.RootPath {
		return
	}
	t.LoadPath(ctx, parentPath(current))
}

// parentPath derives the parent of a Windows-style path.
func parentPath(path string) string {
	i := strings.LastIndex(path, `\`)
	if i == -1 {
		return types.RootPath
	}
	if i == 2 && len(path) == 3 {
		// "C:\" is a drive root; its parent is the device listing.
		return types.RootPath
	}
	parent := path[:i]
	if len(parent) == 2 && strings.HasSuffix(parent, ":") {
		parent += `\`
	}
	return parent
}

// broadcast delivers event to every tab except the sender, synchronously
// and in registration order.
func (m *Manager) broadcast(senderID string, event types.Event) {
	m.mu.Lock()
	targets := make([]*tab.Tab, 0, len(m.order))
	for _, id := range m.order {
		if id != senderID {
			targets = append(targets, m.tabs[id])
		}
	}
	m.mu.Unlock()

	for _, t := range targets {
		t.OnBroadcast(event)
	}
}

// checkResult folds a collaborator call into a single error: transport
// failures and backend rejections both surface without mutating state.
func (m *Manager) checkResult(action string, res *types.Result, err error) error {
	outcome := "success"
	defer func() {
		if m.metrics != nil {
			m.metrics.FileOps.WithLabelValues(action, outcome).Inc()
		}
	}()
	if err != nil {
		outcome = "error"
		m.log.Warn("file operation failed", zap.String("action", action), zap.Error(err))
		return fmt.Errorf("%s: %w", action, err)
	}
	if res == nil || !res.Success {
		outcome = "rejected"
		msg := "operation rejected"
		if res != nil && res.Error != nil {
			msg = *res.Error
		}
		m.log.Warn("file operation rejected", zap.String("action", action), zap.String("reason", msg))
		return fmt.Errorf("%s: %s", action, msg)
	}
	return nil
}

// Snapshot captures the persisted view of the registry.
func (m *Manager) Snapshot() types.RegistryState {
	m.mu.Lock()
	order := append([]string(nil), m.order...)
	activeID := m.activeID
	visits := append([]string(nil), m.visitOrder...)
	tabs := make([]*tab.Tab, 0, len(order))
	for _, id := range order {
		tabs = append(tabs, m.tabs[id])
	}
	m.mu.Unlock()

	state := types.RegistryState{
		Tabs:         make([]types.TabState, 0, len(tabs)),
		ActiveTabID:  activeID,
		VisitHistory: visits,
	}
	for _, t := range tabs {
		state.Tabs = append(state.Tabs, t.Snapshot())
	}
	return state
}

// saveState persists the current snapshot. Persistence failures are
// logged, never fatal.
func (m *Manager) saveState() {
	if m.store == nil {
		return
	}
	if err := m.store.SaveTabs(m.Snapshot()); err != nil {
		m.log.Warn("state save failed", zap.Error(err))
	}
}

// Restore rebuilds the registry from persisted state. A missing or
// discarded blob, or one with no tabs, falls back to a single fresh tab
// at the root location.
func (m *Manager) Restore(ctx context.Context) {
	if m.store == nil {
		m.AddTab(ctx, nil)
		return
	}
	state, err := m.store.LoadTabs()
	if err != nil {
		m.log.Warn("state load failed, starting fresh", zap.Error(err))
		state = nil
	}
	if state == nil || len(state.Tabs) == 0 {
		m.AddTab(ctx, nil)
		return
	}

	for i := range state.Tabs {
		m.AddTab(ctx, &state.Tabs[i])
	}

	m.mu.Lock()
	visits := make([]string, 0, len(state.VisitHistory))
	for _, id := range state.VisitHistory {
		if _, ok := m.tabs[id]; ok {
			visits = append(visits, id)
		}
	}
	m.visitOrder = visits
	firstID := m.order[0]
	_, activeKnown := m.tabs[state.ActiveTabID]
	m.mu.Unlock()

	active := state.ActiveTabID
	if !activeKnown {
		if len(visits) > 0 {
			active = visits[len(visits)-1]
		} else {
			active = firstID
		}
	}
	m.SwitchTab(ctx, active)
}

// removeID drops id from ids, preserving order.
func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
