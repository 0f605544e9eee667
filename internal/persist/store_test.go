package persist

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XiaoYing/filemanager/internal/domain/notify"
	"github.com/XiaoYing/filemanager/internal/shared/types"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), nil)
	require.NoError(t, err)
	return s
}

func TestTabsRoundTrip(t *testing.T) {
	s := newStore(t)

	state := types.RegistryState{
		Tabs: []types.TabState{
			{ID: "tab_a", History: []string{"", `C:\data`}, HistoryIndex: 1, Title: "data"},
			{ID: "tab_b", History: []string{""}, HistoryIndex: 0, FilterTerm: "txt"},
		},
		ActiveTabID:  "tab_b",
		VisitHistory: []string{"tab_a", "tab_b"},
	}
	require.NoError(t, s.SaveTabs(state))

	loaded, err := s.LoadTabs()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, state, *loaded)
}

func TestLoadTabsMissingFile(t *testing.T) {
	s := newStore(t)

	loaded, err := s.LoadTabs()
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestLoadTabsMalformedBlobDiscarded(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, nil)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, tabsFile), []byte("{nope"), 0o644))

	loaded, err := s.LoadTabs()
	require.NoError(t, err)
	assert.Nil(t, loaded, "corrupt state reads as absent")

	_, statErr := os.Stat(filepath.Join(dir, tabsFile))
	assert.True(t, os.IsNotExist(statErr), "corrupt blob is removed")
}

func TestNotificationsRoundTrip(t *testing.T) {
	s := newStore(t)

	expires := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	items := []notify.Notification{
		{
			ID:        "notif_a",
			Message:   "pending delete",
			CreatedAt: expires.Add(-time.Minute),
			ExpiresAt: &expires,
			Actions: []notify.Action{{
				Label:   "Undo",
				Type:    notify.ActionUndoDelete,
				Payload: map[string]string{"undoId": "u1"},
				Primary: true,
			}},
		},
		{ID: "notif_b", Message: "no deadline", CreatedAt: expires},
	}
	require.NoError(t, s.SaveNotifications(items))

	loaded, err := s.LoadNotifications()
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "notif_a", loaded[0].ID)
	require.NotNil(t, loaded[0].ExpiresAt)
	assert.True(t, expires.Equal(*loaded[0].ExpiresAt))
	assert.Nil(t, loaded[1].ExpiresAt)
	assert.Equal(t, "u1", loaded[0].Actions[0].Payload["undoId"])
}

func TestLoadNotificationsMissingFile(t *testing.T) {
	s := newStore(t)

	items, err := s.LoadNotifications()
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSaveOverwritesPrevious(t *testing.T) {
	s := newStore(t)

	require.NoError(t, s.SaveTabs(types.RegistryState{ActiveTabID: "tab_old"}))
	require.NoError(t, s.SaveTabs(types.RegistryState{ActiveTabID: "tab_new"}))

	loaded, err := s.LoadTabs()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "tab_new", loaded.ActiveTabID)
}
