package metrics

import "github.com/prometheus/client_golang/prometheus"

// CacheMetrics holds Prometheus metrics for the Redis match cache.
type CacheMetrics struct {
	Hits          prometheus.Counter
	Misses        prometheus.Counter
	Errors        prometheus.Counter
	Invalidations prometheus.Counter
}

func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	m := &CacheMetrics{
		Hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "match_cache",
			Name:      "hits_total",
			Help:      "Total number of match cache hits.",
		}),
		Misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "match_cache",
			Name:      "misses_total",
			Help:      "Total number of match cache misses.",
		}),
		Errors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "match_cache",
			Name:      "errors_total",
			Help:      "Total number of match cache read or write failures.",
		}),
		Invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "match_cache",
			Name:      "invalidations_total",
			Help:      "Total number of match cache invalidations.",
		}),
	}

	reg.MustRegister(m.Hits, m.Misses, m.Errors, m.Invalidations)
	return m
}
