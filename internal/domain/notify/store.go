package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/XiaoYing/filemanager/internal/infrastructure/logging"
	"github.com/XiaoYing/filemanager/internal/infrastructure/monitoring"
	"github.com/XiaoYing/filemanager/internal/shared/id"
)

// Renderer is the external rendering collaborator for notifications.
// RenderNotification is called on creation and on every countdown tick;
// remaining is zero for permanent notifications.
type Renderer interface {
	RenderNotification(n Notification, remaining time.Duration)
	RemoveNotification(id string)
}

// Persister round-trips the notification list across process restarts.
type Persister interface {
	SaveNotifications(items []Notification) error
	LoadNotifications() ([]Notification, error)
}

// Handler executes one action kind. It receives the owning notification's
// id and the action's payload.
type Handler func(ctx context.Context, notificationID string, payload map[string]string) error

// timers holds the two per-notification schedule handles.
type timers struct {
	removal *time.Timer
	stop    chan struct{} // closes the countdown goroutine
}

// Store is the ordered, persisted notification list.
type Store struct {
	mu       sync.Mutex
	items    []Notification // most-recent-first
	timers   map[string]*timers
	handlers map[ActionType]Handler

	renderer  Renderer
	persister Persister
	metrics   *monitoring.Metrics
	log       *logging.Logger
	now       func() time.Time
}

// NewStore creates a notification store. renderer and persister may be
// nil (rendering and persistence are then skipped), which keeps tests
// and headless use simple.
func NewStore(renderer Renderer, persister Persister, log *logging.Logger) *Store {
	if log == nil {
		log = logging.NewNop()
	}
	return &Store{
		timers:    make(map[string]*timers),
		handlers:  make(map[ActionType]Handler),
		renderer:  renderer,
		persister: persister,
		log:       log.Named("notify"),
		now:       time.Now,
	}
}

// WithMetrics adds metrics tracking to the store.
func (s *Store) WithMetrics(m *monitoring.Metrics) *Store {
	s.metrics = m
	return s
}

// WithClock overrides the time source. Useful for tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// RegisterHandler binds an action kind to its handler. Call once per
// kind at process start.
func (s *Store) RegisterHandler(kind ActionType, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[kind] = h
}

// Add creates a notification from spec, persists, renders, and arms its
// timers when a TTL is set. Returns the assigned id.
func (s *Store) Add(spec Spec) string {
	n := Notification{
		ID:        id.NewNotificationID().String(),
		Message:   spec.Message,
		Source:    spec.Source,
		Icon:      spec.Icon,
		CreatedAt: s.now(),
		Actions:   spec.Actions,
	}
	var remaining time.Duration
	if spec.TTL > 0 {
		expires := n.CreatedAt.Add(spec.TTL)
		n.ExpiresAt = &expires
		remaining = spec.TTL
	}

	s.mu.Lock()
	s.items = append([]Notification{n}, s.items...)
	s.persistLocked()
	if n.ExpiresAt != nil {
		s.armLocked(n)
	}
	count := len(s.items)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.NotificationsActive.Set(float64(count))
	}
	if s.renderer != nil {
		s.renderer.RenderNotification(n, remaining)
	}
	return n.ID
}

// Remove cancels the notification's timers and drops it from the list,
// the persisted copy, and the rendered surface. Removing an unknown id
// is a no-op.
func (s *Store) Remove(notificationID string) {
	s.mu.Lock()
	idx := s.indexLocked(notificationID)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	s.cancelLocked(notificationID)
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	s.persistLocked()
	count := len(s.items)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.NotificationsActive.Set(float64(count))
	}
	if s.renderer != nil {
		s.renderer.RemoveNotification(notificationID)
	}
}

// InvokeAction runs the handler bound to the action at actionIndex.
// Unless the action opts out, the notification is removed afterwards.
func (s *Store) InvokeAction(ctx context.Context, notificationID string, actionIndex int) error {
	s.mu.Lock()
	idx := s.indexLocked(notificationID)
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("notification %s not found", notificationID)
	}
	n := s.items[idx]
	if actionIndex < 0 || actionIndex >= len(n.Actions) {
		s.mu.Unlock()
		return fmt.Errorf("notification %s has no action %d", notificationID, actionIndex)
	}
	action := n.Actions[actionIndex]
	handler, ok := s.handlers[action.Type]
	s.mu.Unlock()

	if !ok {
		s.log.Warn("unknown action kind",
			zap.String("notification_id", notificationID),
			zap.String("action_type", string(action.Type)))
		return fmt.Errorf("unknown action kind %q", action.Type)
	}

	if err := handler(ctx, notificationID, action.Payload); err != nil {
		return err
	}
	if !action.KeepOnClick {
		s.Remove(notificationID)
	}
	return nil
}

// ClearAll cancels every timer and empties the list and persisted state.
func (s *Store) ClearAll() {
	s.mu.Lock()
	removed := make([]string, 0, len(s.items))
	for _, n := range s.items {
		s.cancelLocked(n.ID)
		removed = append(removed, n.ID)
	}
	s.items = nil
	s.persistLocked()
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.NotificationsActive.Set(0)
	}
	if s.renderer != nil {
		for _, nid := range removed {
			s.renderer.RemoveNotification(nid)
		}
	}
}

// List returns a copy of the live notifications, most-recent-first.
func (s *Store) List() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Notification(nil), s.items...)
}

// Load restores the persisted list. Entries already past their deadline
// are dropped before rendering; survivors are rendered and their timers
// restarted from the remaining time, not a fresh TTL.
func (s *Store) Load() error {
	if s.persister == nil {
		return nil
	}
	persisted, err := s.persister.LoadNotifications()
	if err != nil {
		return fmt.Errorf("failed to load notifications: %w", err)
	}

	now := s.now()
	live := make([]Notification, 0, len(persisted))
	expired := 0
	for _, n := range persisted {
		if n.Expired(now) {
			expired++
			continue
		}
		live = append(live, n)
	}

	s.mu.Lock()
	s.items = live
	if expired > 0 {
		s.persistLocked()
	}
	for _, n := range live {
		if n.ExpiresAt != nil {
			s.armLocked(n)
		}
	}
	count := len(s.items)
	s.mu.Unlock()

	if expired > 0 {
		s.log.Info("dropped expired notifications", zap.Int("count", expired))
		if s.metrics != nil {
			s.metrics.NotificationsExpired.Add(float64(expired))
		}
	}
	if s.metrics != nil {
		s.metrics.NotificationsActive.Set(float64(count))
	}
	if s.renderer != nil {
		for i := len(live) - 1; i >= 0; i-- {
			remaining, _ := live[i].Remaining(now)
			s.renderer.RenderNotification(live[i], remaining)
		}
	}
	return nil
}

// armLocked starts the removal timer and the countdown ticker for n.
// Caller must hold s.mu; n.ExpiresAt must be set.
func (s *Store) armLocked(n Notification) {
	s.cancelLocked(n.ID)

	remaining := n.ExpiresAt.Sub(s.now())
	if remaining < 0 {
		remaining = 0
	}
	stop := make(chan struct{})
	tp := &timers{
		removal: time.AfterFunc(remaining, func() { s.expire(n.ID) }),
		stop:    stop,
	}
	s.timers[n.ID] = tp

	go s.countdown(n, stop)
}

// countdown refreshes the rendered remaining time once a second and
// self-cancels when the deadline passes.
func (s *Store) countdown(n Notification, stop chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			remaining := n.ExpiresAt.Sub(s.now())
			if remaining <= 0 {
				return
			}
			if s.renderer != nil {
				s.renderer.RenderNotification(n, remaining)
			}
		}
	}
}

// expire removes a notification whose removal timer fired.
func (s *Store) expire(notificationID string) {
	if s.metrics != nil {
		s.metrics.NotificationsExpired.Inc()
	}
	s.log.Debug("notification expired", zap.String("notification_id", notificationID))
	s.Remove(notificationID)
}

// cancelLocked stops both timer handles for id. Caller must hold s.mu.
func (s *Store) cancelLocked(notificationID string) {
	tp, ok := s.timers[notificationID]
	if !ok {
		return
	}
	tp.removal.Stop()
	close(tp.stop)
	delete(s.timers, notificationID)
}

// indexLocked returns the position of id in the list, -1 when absent.
// Caller must hold s.mu.
func (s *Store) indexLocked(notificationID string) int {
	for i := range s.items {
		if s.items[i].ID == notificationID {
			return i
		}
	}
	return -1
}

// persistLocked writes the current list. Caller must hold s.mu.
func (s *Store) persistLocked() {
	if s.persister == nil {
		return
	}
	if err := s.persister.SaveNotifications(append([]Notification(nil), s.items...)); err != nil {
		s.log.Warn("failed to persist notifications", zap.Error(err))
	}
}
