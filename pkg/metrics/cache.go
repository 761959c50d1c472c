package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CacheMetrics records hit/miss/invalidation counts and compute latency for
// the cache coordinator, labeled by key scope (the segment before the first
// colon, e.g. "coffre-balance" or "dashboard").
type CacheMetrics struct {
	hits          *prometheus.CounterVec
	misses        *prometheus.CounterVec
	invalidations *prometheus.CounterVec
	computeTime   *prometheus.HistogramVec
}

// NewCacheMetrics registers the cache metrics on the provided registerer.
func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	if reg == nil {
		return &CacheMetrics{}
	}
	hits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Cache lookups served from a stored entry.",
	}, []string{"scope"})
	misses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Cache lookups that required a compute.",
	}, []string{"scope"})
	invalidations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_invalidations_total",
		Help: "Explicit cache invalidations (point and pattern).",
	}, []string{"scope"})
	computeTime := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cache_compute_duration_seconds",
		Help:    "Duration of cache-miss computations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"scope"})
	reg.MustRegister(hits, misses, invalidations, computeTime)
	return &CacheMetrics{
		hits:          hits,
		misses:        misses,
		invalidations: invalidations,
		computeTime:   computeTime,
	}
}

// IncHit increments the hit counter for the key's scope.
func (c *CacheMetrics) IncHit(key string) {
	if c == nil || c.hits == nil {
		return
	}
	c.hits.WithLabelValues(KeyScope(key)).Inc()
}

// IncMiss increments the miss counter for the key's scope.
func (c *CacheMetrics) IncMiss(key string) {
	if c == nil || c.misses == nil {
		return
	}
	c.misses.WithLabelValues(KeyScope(key)).Inc()
}

// IncInvalidation increments the invalidation counter for the key's scope.
func (c *CacheMetrics) IncInvalidation(key string) {
	if c == nil || c.invalidations == nil {
		return
	}
	c.invalidations.WithLabelValues(KeyScope(key)).Inc()
}

// ObserveCompute records how long a cache-miss computation took.
func (c *CacheMetrics) ObserveCompute(key string, duration time.Duration) {
	if c == nil || c.computeTime == nil {
		return
	}
	c.computeTime.WithLabelValues(KeyScope(key)).Observe(duration.Seconds())
}

// KeyScope extracts the label segment before the first colon.
func KeyScope(key string) string {
	if idx := strings.IndexByte(key, ':'); idx > 0 {
		return key[:idx]
	}
	if key == "" {
		return "unknown"
	}
	return key
}
