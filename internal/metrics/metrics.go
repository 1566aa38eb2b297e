package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkup_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "linkup_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// LiveConnections tracks currently open websocket connections.
	LiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "linkup_ws_connections",
			Help: "Currently open websocket connections",
		},
	)

	// OnlineUsers tracks users with at least one open connection.
	OnlineUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "linkup_online_users",
			Help: "Users with at least one live connection",
		},
	)

	// EventsFanned counts realtime events delivered to clients.
	EventsFanned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkup_ws_events_fanned_total",
			Help: "Realtime events delivered to clients",
		},
		[]string{"event"},
	)

	// MessagesSent counts persisted chat messages.
	MessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "linkup_messages_sent_total",
			Help: "Chat messages persisted",
		},
	)

	// NotificationsCreated counts notification records written.
	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkup_notifications_created_total",
			Help: "Notification records created",
		},
		[]string{"type"},
	)
)

// ObserveRequest records one completed HTTP request.
func ObserveRequest(method, path string, status int, elapsed time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}
