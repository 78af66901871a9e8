package metrics

import "github.com/prometheus/client_golang/prometheus"

// WebSocketMetrics holds Prometheus metrics for the live fan-out.
type WebSocketMetrics struct {
	ActiveConnections   prometheus.Gauge
	Subscriptions       prometheus.Gauge
	MessagesSent        *prometheus.CounterVec
	MessagesDropped     prometheus.Counter
	LivenessEvictions   prometheus.Counter
	InvalidFrames       prometheus.Counter
	RejectedConnections *prometheus.CounterVec
}

// NewWebSocketMetrics creates and registers WebSocket metrics on the given registry.
func NewWebSocketMetrics(reg prometheus.Registerer) *WebSocketMetrics {
	m := &WebSocketMetrics{
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "active_connections",
			Help:      "Number of registered WebSocket connections.",
		}),
		Subscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "subscriptions",
			Help:      "Number of (connection, match) subscription pairs.",
		}),
		MessagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "messages_sent_total",
			Help:      "Total number of messages enqueued to connections, by message type.",
		}, []string{"type"}),
		MessagesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "messages_dropped_total",
			Help:      "Total number of broadcast messages skipped because the connection was not writable.",
		}),
		LivenessEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "liveness_evictions_total",
			Help:      "Total number of connections closed for not answering a liveness probe.",
		}),
		InvalidFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "invalid_frames_total",
			Help:      "Total number of inbound frames that could not be parsed.",
		}),
		RejectedConnections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "rejected_connections_total",
			Help:      "Total number of refused WebSocket upgrades, by reason.",
		}, []string{"reason"}),
	}

	reg.MustRegister(
		m.ActiveConnections,
		m.Subscriptions,
		m.MessagesSent,
		m.MessagesDropped,
		m.LivenessEvictions,
		m.InvalidFrames,
		m.RejectedConnections,
	)
	return m
}
