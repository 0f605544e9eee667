package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/XiaoYing/filemanager/internal/domain/notify"
	"github.com/XiaoYing/filemanager/internal/domain/tab"
	"github.com/XiaoYing/filemanager/internal/infrastructure/logging"
	"github.com/XiaoYing/filemanager/internal/infrastructure/monitoring"
)

// client is one connected browser window. Writes are serialized per
// connection; gorilla allows only one concurrent writer.
type client struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// Hub fans engine output out to every connected client. It is the render
// surface for both tabs and notifications: frames and notification
// updates become push messages.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	metrics *monitoring.Metrics
	log     *logging.Logger
}

// NewHub creates an empty hub.
func NewHub(log *logging.Logger) *Hub {
	if log == nil {
		log = logging.NewNop()
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		log:     log.Named("ws"),
	}
}

// WithMetrics adds metrics tracking to the hub.
func (h *Hub) WithMetrics(m *monitoring.Metrics) *Hub {
	h.metrics = m
	return h
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.WSConnections.Set(float64(count))
	}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	count := len(h.clients)
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.WSConnections.Set(float64(count))
	}
}

// broadcast pushes v to every connected client. Write failures are
// logged and left for the client's own read loop to clean up.
func (h *Hub) broadcast(v interface{}) {
	h.mu.Lock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	for _, c := range targets {
		if err := c.send(v); err != nil {
			h.log.Debug("push failed", zap.String("conn_id", c.id), zap.Error(err))
		}
	}
}

// RenderTab pushes a tab frame to every client.
func (h *Hub) RenderTab(frame tab.Frame) {
	h.broadcast(map[string]interface{}{
		"type":  "tab-frame",
		"frame": frame,
	})
}

// RenderNotification pushes a notification with its current countdown.
func (h *Hub) RenderNotification(n notify.Notification, remaining time.Duration) {
	msg := map[string]interface{}{
		"type":         "notification",
		"notification": n,
	}
	if n.ExpiresAt != nil {
		msg["remainingSeconds"] = int(remaining / time.Second)
	}
	h.broadcast(msg)
}

// RemoveNotification tells every client to drop a notification.
func (h *Hub) RemoveNotification(id string) {
	h.broadcast(map[string]interface{}{
		"type": "notification-removed",
		"id":   id,
	})
}
