package ws

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/XiaoYing/filemanager/internal/domain/registry"
	"github.com/XiaoYing/filemanager/internal/domain/selection"
	"github.com/XiaoYing/filemanager/internal/domain/tab"
	"github.com/XiaoYing/filemanager/internal/infrastructure/config"
	"github.com/XiaoYing/filemanager/internal/infrastructure/logging"
	"github.com/XiaoYing/filemanager/internal/shared/id"
	"github.com/XiaoYing/filemanager/internal/shared/types"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // same-origin UI, CORS is handled at the HTTP layer
	},
}

// NotificationActions is the slice of the notification store the command
// surface needs.
type NotificationActions interface {
	InvokeAction(ctx context.Context, notificationID string, actionIndex int) error
	Remove(notificationID string)
	ClearAll()
}

// Message is one inbound client message. Type selects the operation;
// the other fields are read per type.
type Message struct {
	Type string `json:"type"`

	// key and command messages
	Key     string            `json:"key,omitempty"`
	Command string            `json:"command,omitempty"`
	Args    map[string]string `json:"args,omitempty"`

	// tab messages
	TabID string `json:"tabId,omitempty"`
	Path  string `json:"path,omitempty"`
	Term  string `json:"term,omitempty"`

	// click messages
	Entry  *types.Entry `json:"entry,omitempty"`
	Toggle bool         `json:"toggle,omitempty"`
	Range  bool         `json:"range,omitempty"`

	// create and rename messages
	Name    string `json:"name,omitempty"`
	Kind    string `json:"kind,omitempty"`
	NewName string `json:"newName,omitempty"`

	// notification messages
	NotificationID string `json:"notificationId,omitempty"`
	ActionIndex    int    `json:"actionIndex,omitempty"`
}

// Handler owns the WebSocket command surface: clients send named
// commands and tab interactions, the engine pushes frames back through
// the hub.
type Handler struct {
	hub           *Hub
	manager       *registry.Manager
	notifications NotificationActions
	keymap        config.Keymap
	log           *logging.Logger
}

// NewHandler creates a WebSocket handler.
func NewHandler(hub *Hub, manager *registry.Manager, notifications NotificationActions, keymap config.Keymap, log *logging.Logger) *Handler {
	if log == nil {
		log = logging.NewNop()
	}
	if keymap == nil {
		keymap = config.DefaultKeymap()
	}
	return &Handler{
		hub:           hub,
		manager:       manager,
		notifications: notifications,
		keymap:        keymap,
		log:           log.Named("ws"),
	}
}

// HandleConnection upgrades the request and runs the read loop until the
// client goes away.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	cl := &client{id: uuid.New().String(), conn: conn}
	h.hub.register(cl)
	defer h.hub.unregister(cl)
	h.log.Info("client connected", zap.String("conn_id", cl.id))

	cl.send(map[string]interface{}{
		"type":         "system",
		"message":      "connected",
		"connectionId": cl.id,
	})

	// A fresh client needs the current state of every tab.
	for _, t := range h.manager.Tabs() {
		t.Render()
	}

	ctx := c.Request.Context()
	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			h.log.Debug("read loop ended", zap.String("conn_id", cl.id), zap.Error(err))
			return
		}
		reqID := id.NewRequestID().String()
		if err := h.handle(ctx, cl, msg); err != nil {
			h.log.Debug("command rejected",
				zap.String("conn_id", cl.id),
				zap.String("request_id", reqID),
				zap.String("type", msg.Type),
				zap.Error(err))
			cl.send(map[string]interface{}{
				"type":      "error",
				"requestId": reqID,
				"message":   err.Error(),
			})
		}
	}
}

func (h *Handler) handle(ctx context.Context, cl *client, msg Message) error {
	switch msg.Type {
	case "key":
		cmd, ok := h.keymap[msg.Key]
		if !ok {
			return nil // unbound keys are not an error
		}
		return h.manager.Dispatch(ctx, cmd, msg.Args)

	case "command":
		return h.manager.Dispatch(ctx, types.Command(msg.Command), msg.Args)

	case "new-tab":
		h.manager.AddTab(ctx, nil)
		return nil

	case "switch-tab":
		h.manager.SwitchTab(ctx, msg.TabID)
		return nil

	case "close-tab":
		h.manager.CloseTab(ctx, msg.TabID)
		return nil

	case "navigate":
		if t := h.activeOr(msg.TabID); t != nil {
			t.LoadPath(ctx, msg.Path)
		}
		return nil

	case "filter":
		if t := h.activeOr(msg.TabID); t != nil {
			t.SetFilter(msg.Term)
		}
		return nil

	case "click":
		if msg.Entry == nil {
			return nil
		}
		if t := h.activeOr(msg.TabID); t != nil {
			t.Click(*msg.Entry, selection.Modifiers{Toggle: msg.Toggle, Range: msg.Range})
		}
		return nil

	case "create":
		return h.manager.Create(ctx, msg.Name, msg.Kind)

	case "rename":
		return h.manager.Rename(ctx, msg.NewName)

	case "notification-action":
		return h.notifications.InvokeAction(ctx, msg.NotificationID, msg.ActionIndex)

	case "notification-dismiss":
		h.notifications.Remove(msg.NotificationID)
		return nil

	case "notifications-clear":
		h.notifications.ClearAll()
		return nil

	case "ping":
		cl.send(map[string]interface{}{"type": "pong"})
		return nil

	default:
		h.log.Debug("unknown message type", zap.String("type", msg.Type))
		return nil
	}
}

// activeOr resolves tabID, falling back to the active tab when empty.
func (h *Handler) activeOr(tabID string) *tab.Tab {
	if tabID == "" {
		return h.manager.ActiveTab()
	}
	if t, ok := h.manager.Tab(tabID); ok {
		return t
	}
	return nil
}
