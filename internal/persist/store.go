package persist

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/XiaoYing/filemanager/internal/domain/notify"
	"github.com/XiaoYing/filemanager/internal/infrastructure/logging"
	"github.com/XiaoYing/filemanager/internal/shared/types"
)

const (
	tabsFile          = "tabs.json"
	notificationsFile = "notifications.json"
)

// Store reads and writes the engine's persisted state as JSON files
// under a state directory. Writes go through a temp file and rename so
// a crash mid-write never leaves a truncated blob. Malformed blobs are
// discarded wholesale rather than partially recovered.
type Store struct {
	dir string
	log *logging.Logger
}

// New creates a store rooted at dir, creating it if needed.
func New(dir string, log *logging.Logger) (*Store, error) {
	if log == nil {
		log = logging.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &Store{dir: dir, log: log.Named("persist")}, nil
}

// SaveTabs writes the registry snapshot.
func (s *Store) SaveTabs(state types.RegistryState) error {
	return s.write(tabsFile, state)
}

// LoadTabs reads the registry snapshot. A missing file returns nil
// without error; a malformed one is discarded and also returns nil.
func (s *Store) LoadTabs() (*types.RegistryState, error) {
	var state types.RegistryState
	ok, err := s.read(tabsFile, &state)
	if err != nil || !ok {
		return nil, err
	}
	return &state, nil
}

// SaveNotifications writes the notification list.
func (s *Store) SaveNotifications(items []notify.Notification) error {
	return s.write(notificationsFile, items)
}

// LoadNotifications reads the notification list. Missing and malformed
// files both come back empty.
func (s *Store) LoadNotifications() ([]notify.Notification, error) {
	var items []notify.Notification
	ok, err := s.read(notificationsFile, &items)
	if err != nil || !ok {
		return nil, err
	}
	return items, nil
}

// write marshals v and atomically replaces name in the state directory.
func (s *Store) write(name string, v interface{}) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

// read unmarshals name into v. ok is false when the file is absent. A
// blob that fails to parse is deleted and reported as absent; the
// caller starts fresh instead of working from half-read state.
func (s *Store) read(name string, v interface{}) (bool, error) {
	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", name, err)
	}
	if err := sonic.Unmarshal(data, v); err != nil {
		s.log.Warn("discarding malformed state file",
			zap.String("file", name),
			zap.Error(err))
		_ = os.Remove(path)
		return false, nil
	}
	return true, nil
}
