package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the engine
type Metrics struct {
	// Command surface
	CommandsTotal *prometheus.CounterVec

	// Tab lifecycle
	TabsActive  prometheus.Gauge
	TabsOpened  prometheus.Counter
	TabSwitches prometheus.Counter

	// Collaborator calls
	ListingFetches     *prometheus.CounterVec
	ListingFetchErrors prometheus.Counter
	FileOps            *prometheus.CounterVec

	// Notifications
	NotificationsActive  prometheus.Gauge
	NotificationsExpired prometheus.Counter

	// WebSocket clients
	WSConnections prometheus.Gauge

	// System
	Uptime    prometheus.Gauge
	registry  *prometheus.Registry
	startTime time.Time
}

// NewMetrics creates a new metrics collector on its own registry, so
// repeated construction never collides with earlier collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Metrics{
		registry:  registry,
		startTime: time.Now(),

		CommandsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "filemanager_commands_total",
				Help: "Total number of dispatched commands",
			},
			[]string{"command"},
		),
		TabsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "filemanager_tabs_active",
				Help: "Number of open tabs",
			},
		),
		TabsOpened: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "filemanager_tabs_opened_total",
				Help: "Total number of tabs ever opened",
			},
		),
		TabSwitches: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "filemanager_tab_switches_total",
				Help: "Total number of tab activations",
			},
		),
		ListingFetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "filemanager_listing_fetches_total",
				Help: "Total listing fetches by kind (disks, files)",
			},
			[]string{"kind"},
		),
		ListingFetchErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "filemanager_listing_fetch_errors_total",
				Help: "Total failed listing fetches",
			},
		),
		FileOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "filemanager_file_operations_total",
				Help: "Total file operations by action and outcome",
			},
			[]string{"action", "outcome"},
		),
		NotificationsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "filemanager_notifications_active",
				Help: "Number of live notifications",
			},
		),
		NotificationsExpired: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "filemanager_notifications_expired_total",
				Help: "Total notifications removed by TTL expiry",
			},
		),
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "filemanager_ws_connections",
				Help: "Number of connected WebSocket clients",
			},
		),
		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "filemanager_uptime_seconds",
				Help: "Engine uptime in seconds",
			},
		),
	}
}

// Registry exposes the collector registry for the metrics endpoint.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// UpdateUptime refreshes the uptime gauge
func (m *Metrics) UpdateUptime() {
	m.Uptime.Set(time.Since(m.startTime).Seconds())
}
