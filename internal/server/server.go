package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-resty/resty/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/XiaoYing/filemanager/internal/api/middleware"
	"github.com/XiaoYing/filemanager/internal/domain/notify"
	"github.com/XiaoYing/filemanager/internal/domain/registry"
	"github.com/XiaoYing/filemanager/internal/infrastructure/config"
	"github.com/XiaoYing/filemanager/internal/infrastructure/logging"
	"github.com/XiaoYing/filemanager/internal/infrastructure/monitoring"
	"github.com/XiaoYing/filemanager/internal/persist"
	"github.com/XiaoYing/filemanager/internal/providers/fileops"
	"github.com/XiaoYing/filemanager/internal/providers/listing"
	"github.com/XiaoYing/filemanager/internal/providers/template"
	"github.com/XiaoYing/filemanager/internal/ws"
)

// Server wires the session engine to its HTTP surface.
type Server struct {
	cfg           *config.Config
	router        *gin.Engine
	httpSrv       *http.Server
	manager       *registry.Manager
	notifications *notify.Store
	templates     *template.Cache
	hub           *ws.Hub
	log           *logging.Logger
}

// New builds a fully wired server from configuration.
func New(cfg *config.Config, log *logging.Logger) (*Server, error) {
	if log == nil {
		log = logging.NewDefault()
	}

	metrics := monitoring.NewMetrics()

	store, err := persist.New(cfg.State.Dir, log)
	if err != nil {
		return nil, err
	}

	backend := resty.New().
		SetBaseURL(cfg.Backend.BaseURL).
		SetTimeout(time.Duration(cfg.Backend.TimeoutSeconds) * time.Second)

	hub := ws.NewHub(log).WithMetrics(metrics)

	fetcher := listing.New(backend).WithMetrics(metrics)
	ops := fileops.New(backend)
	templates := template.New(backend)

	notifications := notify.NewStore(hub, store, log).WithMetrics(metrics)
	manager := registry.NewManager(fetcher, hub, ops, notifications, store, log).WithMetrics(metrics)
	notifications.RegisterHandler(notify.ActionUndoDelete, manager.HandleUndoDelete)

	keymap, err := config.LoadKeymap(cfg.Keymap.Path)
	if err != nil {
		return nil, err
	}

	if cfg.Logging.Development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	s := &Server{
		cfg:           cfg,
		router:        router,
		manager:       manager,
		notifications: notifications,
		templates:     templates,
		hub:           hub,
		log:           log.Named("server"),
	}

	wsHandler := ws.NewHandler(hub, manager, notifications, keymap, log)

	router.GET("/health", s.health)
	router.GET("/metrics", s.metricsHandler(metrics))
	router.GET("/ws", wsHandler.HandleConnection)
	router.GET("/api/state", s.state)
	router.GET("/api/notifications", s.listNotifications)
	router.GET("/api/template", s.template)

	return s, nil
}

// Start restores persisted state and serves until the context is
// cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	if err := s.notifications.Load(); err != nil {
		s.log.Warn("notification restore failed", zap.Error(err))
	}
	s.manager.Restore(ctx)

	addr := s.cfg.Server.Host + ":" + s.cfg.Server.Port
	s.httpSrv = &http.Server{Addr: addr, Handler: s.router}

	s.log.Info("engine listening",
		zap.String("addr", addr),
		zap.String("backend", s.cfg.Backend.BaseURL))

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown()
	case err := <-errCh:
		return err
	}
}

// Shutdown drains connections and closes the notification timers.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var err error
	if s.httpSrv != nil {
		err = s.httpSrv.Shutdown(ctx)
	}
	s.log.Info("engine stopped")
	return err
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"tabs":   len(s.manager.Tabs()),
	})
}

func (s *Server) metricsHandler(m *monitoring.Metrics) gin.HandlerFunc {
	h := promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		m.UpdateUptime()
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// state exposes the registry snapshot, mostly for debugging and tests.
func (s *Server) state(c *gin.Context) {
	c.JSON(http.StatusOK, s.manager.Snapshot())
}

func (s *Server) listNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"notifications": s.notifications.List()})
}

// template proxies a markup fragment through the lifetime cache.
func (s *Server) template(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url parameter required"})
		return
	}
	fragment, err := s.templates.Get(c.Request.Context(), url)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(fragment))
}
