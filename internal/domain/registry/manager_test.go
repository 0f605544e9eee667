package registry

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XiaoYing/filemanager/internal/domain/notify"
	"github.com/XiaoYing/filemanager/internal/domain/selection"
	"github.com/XiaoYing/filemanager/internal/domain/tab"
	"github.com/XiaoYing/filemanager/internal/shared/types"
)

type mockFetcher struct {
	mu       sync.Mutex
	listings map[string]*types.Listing
	calls    []string
}

func newMockFetcher() *mockFetcher {
	return &mockFetcher{listings: make(map[string]*types.Listing)}
}

func (f *mockFetcher) add(path string, names ...string) {
	listing := &types.Listing{}
	for _, name := range names {
		listing.Files = append(listing.Files, types.Entry{
			Name: name,
			Path: path + `\` + name,
		})
	}
	f.listings[path] = listing
}

func (f *mockFetcher) FetchListing(ctx context.Context, path string) (*types.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, path)
	if l, ok := f.listings[path]; ok {
		return l, nil
	}
	return &types.Listing{}, nil
}

type recordingRenderer struct {
	mu     sync.Mutex
	frames []tab.Frame
}

func (r *recordingRenderer) RenderTab(frame tab.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, frame)
}

func (r *recordingRenderer) framesFor(tabID string) []tab.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []tab.Frame
	for _, f := range r.frames {
		if f.TabID == tabID {
			out = append(out, f)
		}
	}
	return out
}

type opCall struct {
	action string
	paths  []string
	dest   string
	name   string
	undoID string
}

type stubFileOps struct {
	mu      sync.Mutex
	calls   []opCall
	results map[string]*types.Result
	err     error
}

func newStubFileOps() *stubFileOps {
	return &stubFileOps{results: make(map[string]*types.Result)}
}

func (s *stubFileOps) result(action string) (*types.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	if r, ok := s.results[action]; ok {
		return r, nil
	}
	return types.Ok(), nil
}

func (s *stubFileOps) Paste(ctx context.Context, sourcePaths []string, op types.ClipboardOp, destinationPath string) (*types.Result, error) {
	s.mu.Lock()
	s.calls = append(s.calls, opCall{action: "paste", paths: sourcePaths, dest: destinationPath})
	s.mu.Unlock()
	return s.result("paste")
}

func (s *stubFileOps) Rename(ctx context.Context, oldPath, newName string) (*types.Result, error) {
	s.mu.Lock()
	s.calls = append(s.calls, opCall{action: "rename", paths: []string{oldPath}, name: newName})
	s.mu.Unlock()
	return s.result("rename")
}

func (s *stubFileOps) Delete(ctx context.Context, paths []string) (*types.Result, error) {
	s.mu.Lock()
	s.calls = append(s.calls, opCall{action: "delete", paths: paths})
	s.mu.Unlock()
	return s.result("delete")
}

func (s *stubFileOps) Create(ctx context.Context, path, name, kind string) (*types.Result, error) {
	s.mu.Lock()
	s.calls = append(s.calls, opCall{action: "create", dest: path, name: name})
	s.mu.Unlock()
	return s.result("create")
}

func (s *stubFileOps) UndoDelete(ctx context.Context, undoID string) (*types.Result, error) {
	s.mu.Lock()
	s.calls = append(s.calls, opCall{action: "undo-delete", undoID: undoID})
	s.mu.Unlock()
	return s.result("undo-delete")
}

func (s *stubFileOps) callsFor(action string) []opCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []opCall
	for _, c := range s.calls {
		if c.action == action {
			out = append(out, c)
		}
	}
	return out
}

type stubNotifier struct {
	specs []notify.Spec
}

func (n *stubNotifier) Add(spec notify.Spec) string {
	n.specs = append(n.specs, spec)
	return "notif_test"
}

type memStateStore struct {
	state   *types.RegistryState
	loadErr error
	saves   int
}

func (s *memStateStore) SaveTabs(state types.RegistryState) error {
	s.state = &state
	s.saves++
	return nil
}

func (s *memStateStore) LoadTabs() (*types.RegistryState, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.state, nil
}

type fixture struct {
	m        *Manager
	fetcher  *mockFetcher
	renderer *recordingRenderer
	fileOps  *stubFileOps
	notifier *stubNotifier
	store    *memStateStore
}

func newFixture() *fixture {
	f := &fixture{
		fetcher:  newMockFetcher(),
		renderer: &recordingRenderer{},
		fileOps:  newStubFileOps(),
		notifier: &stubNotifier{},
		store:    &memStateStore{},
	}
	f.fetcher.add(`C:\data`, "a.txt", "b.txt", "c.txt")
	f.fetcher.add(`C:\other`, "x.txt")
	f.m = NewManager(f.fetcher, f.renderer, f.fileOps, f.notifier, f.store, nil)
	return f
}

// activeAt opens a tab, navigates it to path, and selects everything.
func (f *fixture) activeAt(t *testing.T, path string) *tab.Tab {
	t.Helper()
	tb := f.m.AddTab(context.Background(), nil)
	if path != types.RootPath {
		tb.LoadPath(context.Background(), path)
	}
	tb.SelectAll()
	require.NotZero(t, tb.SelectionCount())
	return tb
}

func TestAddTabInteractiveLoadsRoot(t *testing.T) {
	f := newFixture()

	tb := f.m.AddTab(context.Background(), nil)

	assert.Same(t, tb, f.m.ActiveTab())
	path, ok := tb.CurrentPath()
	require.True(t, ok)
	assert.Equal(t, types.RootPath, path)
	assert.Equal(t, []string{types.RootPath}, f.fetcher.calls)
}

func TestAddTabRestoredStaysHidden(t *testing.T) {
	f := newFixture()
	f.m.AddTab(context.Background(), nil)

	restored := f.m.AddTab(context.Background(), &types.TabState{
		ID:           "tab_restored",
		History:      []string{types.RootPath, `C:\data`},
		HistoryIndex: 1,
	})

	assert.NotSame(t, restored, f.m.ActiveTab())
	// No fetch until the tab is actually shown.
	assert.NotContains(t, f.fetcher.calls, `C:\data`)

	f.m.SwitchTab(context.Background(), "tab_restored")
	assert.Contains(t, f.fetcher.calls, `C:\data`)
	assert.Same(t, restored, f.m.ActiveTab())
}

func TestSwitchTabHidesPrevious(t *testing.T) {
	f := newFixture()
	first := f.m.AddTab(context.Background(), nil)
	second := f.m.AddTab(context.Background(), nil)
	require.Same(t, second, f.m.ActiveTab())

	f.m.SwitchTab(context.Background(), first.ID())

	frames := f.renderer.framesFor(second.ID())
	require.NotEmpty(t, frames)
	assert.False(t, frames[len(frames)-1].Active)

	frames = f.renderer.framesFor(first.ID())
	require.NotEmpty(t, frames)
	assert.True(t, frames[len(frames)-1].Active)
}

func TestCloseLastTabResetsToRoot(t *testing.T) {
	f := newFixture()
	tb := f.m.AddTab(context.Background(), nil)
	tb.LoadPath(context.Background(), `C:\data`)

	f.m.CloseTab(context.Background(), tb.ID())

	assert.Same(t, tb, f.m.ActiveTab(), "the only tab never actually closes")
	path, ok := tb.CurrentPath()
	require.True(t, ok)
	assert.Equal(t, types.RootPath, path)
}

func TestCloseActiveTabPicksMostRecentlyVisited(t *testing.T) {
	f := newFixture()
	first := f.m.AddTab(context.Background(), nil)
	second := f.m.AddTab(context.Background(), nil)
	third := f.m.AddTab(context.Background(), nil)

	f.m.SwitchTab(context.Background(), second.ID())
	f.m.SwitchTab(context.Background(), third.ID())

	f.m.CloseTab(context.Background(), third.ID())
	assert.Same(t, second, f.m.ActiveTab())

	f.m.CloseTab(context.Background(), second.ID())
	assert.Same(t, first, f.m.ActiveTab())
}

func TestCloseInactiveTabKeepsActive(t *testing.T) {
	f := newFixture()
	first := f.m.AddTab(context.Background(), nil)
	second := f.m.AddTab(context.Background(), nil)

	f.m.CloseTab(context.Background(), first.ID())

	assert.Same(t, second, f.m.ActiveTab())
	assert.Len(t, f.m.Tabs(), 1)
}

func TestCutRecordsClipboardAndMarks(t *testing.T) {
	f := newFixture()
	tb := f.activeAt(t, `C:\data`)

	require.NoError(t, f.m.Cut(context.Background()))

	clip := f.m.Clipboard()
	require.NotNil(t, clip)
	assert.Equal(t, types.OpCut, clip.Operation)
	assert.Equal(t, []string{`C:\data\a.txt`, `C:\data\b.txt`, `C:\data\c.txt`}, clip.SourcePaths)

	kind, ok := f.m.Marks().Mark(`C:\data\b.txt`)
	require.True(t, ok)
	assert.Equal(t, types.MarkCut, kind)

	// Cut refreshes the issuing tab, which clears its selection.
	assert.Zero(t, tb.SelectionCount())
}

func TestCopyReplacesEarlierMarks(t *testing.T) {
	f := newFixture()
	f.activeAt(t, `C:\data`)
	require.NoError(t, f.m.Cut(context.Background()))

	// A second mark operation from another tab wipes the first wholesale.
	f.activeAt(t, `C:\other`)
	require.NoError(t, f.m.Copy(context.Background()))

	_, ok := f.m.Marks().Mark(`C:\data\a.txt`)
	assert.False(t, ok, "previous cut marks must be gone")

	kind, ok := f.m.Marks().Mark(`C:\other\x.txt`)
	require.True(t, ok)
	assert.Equal(t, types.MarkCopy, kind)
	assert.Equal(t, types.OpCopy, f.m.Clipboard().Operation)
}

func TestCutRequiresSelection(t *testing.T) {
	f := newFixture()
	f.m.AddTab(context.Background(), nil)

	err := f.m.Cut(context.Background())
	assert.ErrorIs(t, err, ErrNothingSelected)
	assert.Nil(t, f.m.Clipboard())
}

func TestCutBroadcastsToOtherTabsOnly(t *testing.T) {
	f := newFixture()
	other := f.m.AddTab(context.Background(), nil)
	f.activeAt(t, `C:\data`)

	before := len(f.renderer.framesFor(other.ID()))
	require.NoError(t, f.m.Cut(context.Background()))

	assert.Greater(t, len(f.renderer.framesFor(other.ID())), before,
		"non-originating tab redraws on clipboard update")
}

func TestPasteRejectsVirtualRoot(t *testing.T) {
	f := newFixture()
	f.activeAt(t, `C:\data`)
	require.NoError(t, f.m.Copy(context.Background()))

	// Navigate the active tab back to the device listing and try to paste.
	f.m.ActiveTab().LoadPath(context.Background(), types.RootPath)

	err := f.m.Paste(context.Background())
	assert.ErrorIs(t, err, ErrRootDestination)
	assert.Empty(t, f.fileOps.callsFor("paste"), "rejected before any network call")
	assert.NotNil(t, f.m.Clipboard(), "clipboard survives a rejected paste")
}

func TestPasteClearsClipboardAndMarks(t *testing.T) {
	f := newFixture()
	f.activeAt(t, `C:\data`)
	require.NoError(t, f.m.Cut(context.Background()))
	f.m.ActiveTab().LoadPath(context.Background(), `C:\other`)

	require.NoError(t, f.m.Paste(context.Background()))

	calls := f.fileOps.callsFor("paste")
	require.Len(t, calls, 1)
	assert.Equal(t, `C:\other`, calls[0].dest)
	assert.Equal(t, []string{`C:\data\a.txt`, `C:\data\b.txt`, `C:\data\c.txt`}, calls[0].paths)

	assert.Nil(t, f.m.Clipboard())
	_, ok := f.m.Marks().Mark(`C:\data\a.txt`)
	assert.False(t, ok)
}

func TestPasteRejectionKeepsState(t *testing.T) {
	f := newFixture()
	f.fileOps.results["paste"] = types.Failure("destination is read-only")
	f.activeAt(t, `C:\data`)
	require.NoError(t, f.m.Cut(context.Background()))
	f.m.ActiveTab().LoadPath(context.Background(), `C:\other`)

	err := f.m.Paste(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read-only")

	assert.NotNil(t, f.m.Clipboard())
	_, ok := f.m.Marks().Mark(`C:\data\a.txt`)
	assert.True(t, ok, "marks stay until the backend accepts the paste")
}

func TestDeleteThreadsUndoIntoNotification(t *testing.T) {
	f := newFixture()
	undoID := "u1"
	f.fileOps.results["delete"] = &types.Result{Success: true, UndoID: &undoID}
	f.activeAt(t, `C:\data`)

	require.NoError(t, f.m.Delete(context.Background()))

	require.Len(t, f.notifier.specs, 1)
	spec := f.notifier.specs[0]
	assert.Equal(t, DeleteUndoTTL, spec.TTL)
	require.Len(t, spec.Actions, 1)
	assert.Equal(t, notify.ActionUndoDelete, spec.Actions[0].Type)
	assert.Equal(t, "u1", spec.Actions[0].Payload["undoId"])
	assert.True(t, spec.Actions[0].Primary)
}

func TestDeleteWithoutUndoTokenSkipsNotification(t *testing.T) {
	f := newFixture()
	f.activeAt(t, `C:\data`)

	require.NoError(t, f.m.Delete(context.Background()))
	assert.Empty(t, f.notifier.specs)
}

func TestHandleUndoDelete(t *testing.T) {
	f := newFixture()
	f.m.AddTab(context.Background(), nil)

	err := f.m.HandleUndoDelete(context.Background(), "notif_x", map[string]string{"undoId": "u9"})
	require.NoError(t, err)

	calls := f.fileOps.callsFor("undo-delete")
	require.Len(t, calls, 1)
	assert.Equal(t, "u9", calls[0].undoID)
}

func TestHandleUndoDeleteMissingToken(t *testing.T) {
	f := newFixture()
	err := f.m.HandleUndoDelete(context.Background(), "notif_x", nil)
	assert.Error(t, err)
	assert.Empty(t, f.fileOps.callsFor("undo-delete"))
}

func TestRenameValidation(t *testing.T) {
	f := newFixture()
	f.activeAt(t, `C:\data`) // selects all three entries

	assert.Error(t, f.m.Rename(context.Background(), "new.txt"), "multi-selection rejected")

	f.m.ActiveTab().ClearSelection()
	assert.Error(t, f.m.Rename(context.Background(), "new.txt"), "empty selection rejected")
	assert.Empty(t, f.fileOps.callsFor("rename"))
}

func TestRenameSingleSelection(t *testing.T) {
	f := newFixture()
	tb := f.activeAt(t, `C:\data`)
	tb.ClearSelection()
	tb.Click(types.Entry{Name: "a.txt", Path: `C:\data\a.txt`}, selection.Modifiers{})

	require.NoError(t, f.m.Rename(context.Background(), "renamed.txt"))

	calls := f.fileOps.callsFor("rename")
	require.Len(t, calls, 1)
	assert.Equal(t, `C:\data\a.txt`, calls[0].paths[0])
	assert.Equal(t, "renamed.txt", calls[0].name)
}

func TestRenameSameNameIsNoop(t *testing.T) {
	f := newFixture()
	tb := f.activeAt(t, `C:\data`)
	tb.ClearSelection()
	tb.Click(types.Entry{Name: "a.txt", Path: `C:\data\a.txt`}, selection.Modifiers{})

	require.NoError(t, f.m.Rename(context.Background(), "a.txt"))
	assert.Empty(t, f.fileOps.callsFor("rename"))
}

func TestCreateValidation(t *testing.T) {
	f := newFixture()
	f.m.AddTab(context.Background(), nil) // sits at root

	assert.Error(t, f.m.Create(context.Background(), "  ", "file"), "blank name rejected")
	assert.ErrorIs(t, f.m.Create(context.Background(), "notes.txt", "file"), ErrRootDestination)
	assert.Empty(t, f.fileOps.callsFor("create"))
}

func TestCreateInCurrentDirectory(t *testing.T) {
	f := newFixture()
	f.m.AddTab(context.Background(), nil)
	f.m.ActiveTab().LoadPath(context.Background(), `C:\data`)

	require.NoError(t, f.m.Create(context.Background(), "notes.txt", "file"))

	calls := f.fileOps.callsFor("create")
	require.Len(t, calls, 1)
	assert.Equal(t, `C:\data`, calls[0].dest)
	assert.Equal(t, "notes.txt", calls[0].name)
}

func TestParentPath(t *testing.T) {
	cases := map[string]string{
		`C:\Users\xy\docs`: `C:\Users\xy`,
		`C:\Users`:         `C:\`,
		`C:\`:              types.RootPath,
		`noslash`:          types.RootPath,
	}
	for path, want := range cases {
		assert.Equal(t, want, parentPath(path), "parent of %q", path)
	}
}

func TestNavigateBack(t *testing.T) {
	f := newFixture()
	f.fetcher.add(`C:\`, "data")
	f.m.AddTab(context.Background(), nil)
	f.m.ActiveTab().LoadPath(context.Background(), `C:\data`)

	f.m.NavigateBack(context.Background())

	path, ok := f.m.ActiveTab().CurrentPath()
	require.True(t, ok)
	assert.Equal(t, `C:\`, path)
}

func TestDispatchUnknownCommand(t *testing.T) {
	f := newFixture()
	assert.Error(t, f.m.Dispatch(context.Background(), types.Command("explode"), nil))
}

func TestDispatchRoutesCommands(t *testing.T) {
	f := newFixture()
	f.activeAt(t, `C:\data`)

	require.NoError(t, f.m.Dispatch(context.Background(), types.CmdCut, nil))
	assert.NotNil(t, f.m.Clipboard())

	f.m.ActiveTab().SetFilter("a")
	require.NoError(t, f.m.Dispatch(context.Background(), types.CmdClearFilter, nil))
	assert.Empty(t, f.m.ActiveTab().FilterTerm())
}

func TestRestoreFallsBackToFreshTab(t *testing.T) {
	f := newFixture()
	f.store.loadErr = errors.New("blob is garbage")

	f.m.Restore(context.Background())

	tabs := f.m.Tabs()
	require.Len(t, tabs, 1)
	path, ok := tabs[0].CurrentPath()
	require.True(t, ok)
	assert.Equal(t, types.RootPath, path)
}

func TestRestoreRebuildsTabs(t *testing.T) {
	f := newFixture()
	f.store.state = &types.RegistryState{
		Tabs: []types.TabState{
			{ID: "tab_one", History: []string{types.RootPath}, HistoryIndex: 0},
			{ID: "tab_two", History: []string{types.RootPath, `C:\data`}, HistoryIndex: 1},
		},
		ActiveTabID:  "tab_two",
		VisitHistory: []string{"tab_one", "tab_two"},
	}

	f.m.Restore(context.Background())

	require.Len(t, f.m.Tabs(), 2)
	active := f.m.ActiveTab()
	require.NotNil(t, active)
	assert.Equal(t, "tab_two", active.ID())

	// The active tab rematerialized its last path; the hidden one did not fetch.
	assert.Contains(t, f.fetcher.calls, `C:\data`)
}

func TestRestoreWithUnknownActiveFallsBackToVisitTail(t *testing.T) {
	f := newFixture()
	f.store.state = &types.RegistryState{
		Tabs: []types.TabState{
			{ID: "tab_one", History: []string{types.RootPath}, HistoryIndex: 0},
			{ID: "tab_two", History: []string{types.RootPath}, HistoryIndex: 0},
		},
		ActiveTabID:  "tab_gone",
		VisitHistory: []string{"tab_gone", "tab_one"},
	}

	f.m.Restore(context.Background())

	active := f.m.ActiveTab()
	require.NotNil(t, active)
	assert.Equal(t, "tab_one", active.ID())
}

func TestSnapshotPersistedOnMutations(t *testing.T) {
	f := newFixture()
	f.m.AddTab(context.Background(), nil)
	f.m.AddTab(context.Background(), nil)

	require.NotNil(t, f.store.state)
	assert.Len(t, f.store.state.Tabs, 2)
	assert.Equal(t, f.m.ActiveTab().ID(), f.store.state.ActiveTabID)
}
