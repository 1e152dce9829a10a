package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsSnapshot is a point-in-time summary of the collectors.
type MetricsSnapshot struct {
	CacheHitRatio            float64        `json:"cache_hit_ratio"`
	CacheHits                uint64         `json:"cache_hits"`
	CacheMisses              uint64         `json:"cache_misses"`
	RequestsTotal            uint64         `json:"requests_total"`
	AverageRequestDurationMs float64        `json:"average_request_duration_ms"`
	StoreQueryCount          uint64         `json:"store_query_count"`
	AverageStoreQueryMs      float64        `json:"average_store_query_ms"`
	EnrichmentFallbacks      uint64         `json:"enrichment_fallbacks"`
	Goroutines               int            `json:"goroutines"`
	QueueDepths              map[string]int `json:"queue_depths,omitempty"`
	GeneratedAt              time.Time      `json:"generated_at"`
}

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry            *prometheus.Registry
	handler             http.Handler
	requestDuration     *prometheus.HistogramVec
	requestTotal        *prometheus.CounterVec
	cacheLatency        prometheus.Observer
	cacheWrite          prometheus.Observer
	cacheHitRatio       prometheus.Gauge
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	storeQueryDuration  *prometheus.HistogramVec
	upstreamFailures    *prometheus.CounterVec
	enrichmentFallbacks *prometheus.CounterVec
	reportsAssembled    *prometheus.CounterVec

	cacheHitCount         uint64
	cacheMissCount        uint64
	requestCount          uint64
	requestDurationTotal  uint64
	storeQueryCount       uint64
	storeQueryDurationSum uint64
	fallbackCount         uint64

	queueMu sync.RWMutex
	queues  map[string]func() int
}

// NewMetricsService registers the service collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	m := &MetricsService{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		cacheLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_latency_seconds",
			Help:    "Latency for cache lookups",
			Buckets: prometheus.DefBuckets,
		}),
		cacheWrite: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_write_seconds",
			Help:    "Latency for cache writes",
			Buckets: prometheus.DefBuckets,
		}),
		cacheHitRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cache_hit_ratio",
			Help: "Ratio of cache hits to total cache lookups",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total cache hits",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total cache misses",
		}),
		storeQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "store_query_duration_seconds",
			Help:    "Duration of record store queries",
			Buckets: prometheus.DefBuckets,
		}, []string{"query"}),
		upstreamFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "upstream_failures_total",
			Help: "Failed calls to storage dependencies",
		}, []string{"dependency"}),
		enrichmentFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "enrichment_fallbacks_total",
			Help: "Enrichment calls that degraded to their default",
		}, []string{"source"}),
		reportsAssembled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reports_assembled_total",
			Help: "Reports served by kind",
		}, []string{"kind"}),
	}

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(
		m.requestDuration, m.requestTotal,
		m.cacheLatency.(prometheus.Collector), m.cacheWrite.(prometheus.Collector),
		m.cacheHitRatio, m.cacheHits, m.cacheMisses,
		m.storeQueryDuration, m.upstreamFailures, m.enrichmentFallbacks, m.reportsAssembled,
		goroutines,
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler exposes the Prometheus scrape endpoint.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records a cache hit or miss and updates the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks cache write duration.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveDBQuery records store query timing under label.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.storeQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
	atomic.AddUint64(&m.storeQueryCount, 1)
	atomic.AddUint64(&m.storeQueryDurationSum, uint64(duration.Nanoseconds()))
}

// RecordUpstreamFailure counts a failed dependency call.
func (m *MetricsService) RecordUpstreamFailure(dependency string) {
	if m == nil {
		return
	}
	m.upstreamFailures.WithLabelValues(dependency).Inc()
}

// RecordEnrichmentFallback counts an enrichment degraded to its default.
func (m *MetricsService) RecordEnrichmentFallback(source string) {
	if m == nil {
		return
	}
	m.enrichmentFallbacks.WithLabelValues(source).Inc()
	atomic.AddUint64(&m.fallbackCount, 1)
}

// RecordReport counts a served report.
func (m *MetricsService) RecordReport(kind string) {
	if m == nil {
		return
	}
	m.reportsAssembled.WithLabelValues(kind).Inc()
}

// TrackQueue exposes depth as the job_queue_depth gauge for the named queue.
func (m *MetricsService) TrackQueue(name string, depth func() int) {
	if m == nil || depth == nil {
		return
	}
	m.queueMu.Lock()
	defer m.queueMu.Unlock()
	if m.queues == nil {
		m.queues = make(map[string]func() int)
	}
	if _, exists := m.queues[name]; exists {
		return
	}
	m.queues[name] = depth
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name:        "job_queue_depth",
		Help:        "Jobs waiting for a worker",
		ConstLabels: prometheus.Labels{"queue": name},
	}, func() float64 {
		return float64(depth())
	}))
}

// Snapshot returns aggregated metrics.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	queries := atomic.LoadUint64(&m.storeQueryCount)
	queryDuration := atomic.LoadUint64(&m.storeQueryDurationSum)

	snap := MetricsSnapshot{
		CacheHits:           hits,
		CacheMisses:         misses,
		RequestsTotal:       requests,
		StoreQueryCount:     queries,
		EnrichmentFallbacks: atomic.LoadUint64(&m.fallbackCount),
		Goroutines:          runtime.NumGoroutine(),
		GeneratedAt:         time.Now().UTC(),
	}
	m.queueMu.RLock()
	if len(m.queues) > 0 {
		snap.QueueDepths = make(map[string]int, len(m.queues))
		for name, depth := range m.queues {
			snap.QueueDepths[name] = depth()
		}
	}
	m.queueMu.RUnlock()
	if total := hits + misses; total > 0 {
		snap.CacheHitRatio = float64(hits) / float64(total)
	}
	if requests > 0 {
		snap.AverageRequestDurationMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}
	if queries > 0 {
		snap.AverageStoreQueryMs = float64(queryDuration) / float64(queries) / float64(time.Millisecond)
	}
	return snap
}
