package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sportzlive"

// Metrics bundles every metric group the service exports.
type Metrics struct {
	Registry  *prometheus.Registry
	HTTP      *HTTPMetrics
	WebSocket *WebSocketMetrics
	Redis     *RedisMetrics
	Cache     *CacheMetrics
	Database  *DatabaseMetrics
}

// New creates a registry with Go runtime and process collectors and registers all service metrics on it.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &Metrics{
		Registry:  reg,
		HTTP:      NewHTTPMetrics(reg),
		WebSocket: NewWebSocketMetrics(reg),
		Redis:     NewRedisMetrics(reg),
		Cache:     NewCacheMetrics(reg),
		Database:  NewDatabaseMetrics(reg),
	}
}

// Handler returns an http.Handler that serves the registry in Prometheus or OpenMetrics format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{
		Registry:          m.Registry,
		EnableOpenMetrics: true,
	})
}
