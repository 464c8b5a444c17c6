package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/sma-insights-api/internal/models"
)

const metricsNamespace = "sma_insights"

// Outcomes reported by RecordNotification.
const (
	NotificationQueued    = "queued"
	NotificationRejected  = "rejected"
	NotificationDelivered = "delivered"
	NotificationFailed    = "failed"
)

// MetricsService owns a private Prometheus registry and mirrors a few counters for the JSON snapshot.
// All methods are safe on a nil receiver.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	httpDuration  *prometheus.HistogramVec
	cacheLookups  *prometheus.CounterVec
	cacheLatency  *prometheus.HistogramVec
	cacheRatio    prometheus.Gauge
	loadDuration  *prometheus.HistogramVec
	alerts        *prometheus.CounterVec
	notifications *prometheus.CounterVec
	reports       *prometheus.CounterVec

	requests      atomic.Uint64
	requestNanos  atomic.Uint64
	cacheHits     atomic.Uint64
	cacheMisses   atomic.Uint64
	loads         atomic.Uint64
	loadNanos     atomic.Uint64
	alertTotal    atomic.Uint64
	notifyQueued  atomic.Uint64
	reportsServed atomic.Uint64
}

func newHistogram(subsystem, name, help string, labels ...string) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
		Buckets:   prometheus.DefBuckets,
	}, labels)
}

func newCounter(subsystem, name, help string, labels ...string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	}, labels)
}

// NewMetricsService builds and registers the collectors.
func NewMetricsService() *MetricsService {
	m := &MetricsService{
		registry:      prometheus.NewRegistry(),
		httpDuration:  newHistogram("http", "request_duration_seconds", "HTTP request latency by route template", "method", "route", "status"),
		cacheLookups:  newCounter("cache", "lookups_total", "Insights cache lookups by result", "result"),
		cacheLatency:  newHistogram("cache", "operation_seconds", "Insights cache latency by operation", "op"),
		loadDuration:  newHistogram("store", "load_seconds", "Latency of snapshot reads by source", "source"),
		alerts:        newCounter("alerts", "generated_total", "Alerts produced by type and priority", "type", "priority"),
		notifications: newCounter("notifications", "events_total", "Notification events by type and outcome", "type", "outcome"),
		reports:       newCounter("reports", "rendered_total", "Student reports rendered by format and delivery", "format", "delivery"),
		cacheRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "hit_ratio",
			Help:      "Share of cache lookups served from cache",
		}),
	}
	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "goroutines",
		Help:      "Current number of goroutines",
	}, func() float64 { return float64(runtime.NumGoroutine()) })

	m.registry.MustRegister(m.httpDuration, m.cacheLookups, m.cacheLatency, m.cacheRatio, m.loadDuration,
		m.alerts, m.notifications, m.reports, goroutines)
	m.handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one served request.
func (m *MetricsService) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
	m.requests.Add(1)
	m.requestNanos.Add(uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records a cache lookup and refreshes the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.WithLabelValues("get").Observe(duration.Seconds())
	result := "miss"
	if hit {
		result = "hit"
		m.cacheHits.Add(1)
	} else {
		m.cacheMisses.Add(1)
	}
	m.cacheLookups.WithLabelValues(result).Inc()
	m.cacheRatio.Set(ratio(m.cacheHits.Load(), m.cacheMisses.Load()))
}

// ObserveCacheWrite records the latency of a cache write.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.WithLabelValues("set").Observe(duration.Seconds())
}

// ObserveDBQuery records how long a snapshot source took to load.
func (m *MetricsService) ObserveDBQuery(source string, duration time.Duration) {
	if m == nil {
		return
	}
	m.loadDuration.WithLabelValues(source).Observe(duration.Seconds())
	m.loads.Add(1)
	m.loadNanos.Add(uint64(duration.Nanoseconds()))
}

// RecordAlerts counts generated alerts.
func (m *MetricsService) RecordAlerts(alerts []models.Alert) {
	if m == nil {
		return
	}
	for _, alert := range alerts {
		m.alerts.WithLabelValues(string(alert.Type), string(alert.Priority)).Inc()
	}
	m.alertTotal.Add(uint64(len(alerts)))
}

// RecordNotification counts a notification outcome.
func (m *MetricsService) RecordNotification(eventType models.EventType, outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(string(eventType), outcome).Inc()
	if outcome == NotificationQueued {
		m.notifyQueued.Add(1)
	}
}

// RecordReport counts a rendered report. delivery is "inline" or "archived".
func (m *MetricsService) RecordReport(format, delivery string) {
	if m == nil {
		return
	}
	m.reports.WithLabelValues(format, delivery).Inc()
	m.reportsServed.Add(1)
}

// Snapshot returns the JSON view served by the system metrics endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits, misses := m.cacheHits.Load(), m.cacheMisses.Load()
	return models.SystemMetrics{
		CacheHitRatio:            ratio(hits, misses),
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            m.requests.Load(),
		AverageRequestDurationMs: averageMillis(m.requestNanos.Load(), m.requests.Load()),
		DBQueryCount:             m.loads.Load(),
		AverageDBQueryDurationMs: averageMillis(m.loadNanos.Load(), m.loads.Load()),
		AlertsGenerated:          m.alertTotal.Load(),
		NotificationsPublished:   m.notifyQueued.Load(),
		ReportsRendered:          m.reportsServed.Load(),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}

func ratio(hits, misses uint64) float64 {
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}

func averageMillis(totalNanos, count uint64) float64 {
	if count == 0 {
		return 0
	}
	return float64(totalNanos) / float64(count) / float64(time.Millisecond)
}
