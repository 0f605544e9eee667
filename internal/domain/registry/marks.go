package registry

import (
	"sync"

	"github.com/XiaoYing/filemanager/internal/shared/types"
)

// Marks is the process-wide path → cut/copy mark store. Tabs resolve
// marks per-path at render time, so mutations become visible on the next
// render without the tabs tracking clipboard state themselves.
type Marks struct {
	mu    sync.RWMutex
	kinds map[string]types.MarkKind
}

// NewMarks creates an empty mark store.
func NewMarks() *Marks {
	return &Marks{kinds: make(map[string]types.MarkKind)}
}

// Mark returns the mark recorded for path, if any.
func (m *Marks) Mark(path string) (types.MarkKind, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	kind, ok := m.kinds[path]
	return kind, ok
}

// set records kind for every path.
func (m *Marks) set(paths []string, kind types.MarkKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range paths {
		m.kinds[p] = kind
	}
}

// clear drops the marks for the given paths.
func (m *Marks) clear(paths []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range paths {
		delete(m.kinds, p)
	}
}

// reset drops every mark.
func (m *Marks) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kinds = make(map[string]types.MarkKind)
}
