package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Ingestion outcomes recorded per unit.
const (
	OutcomeCommitted = "committed"
	OutcomeAborted   = "aborted"
)

// MetricsService wraps a private Prometheus registry for HTTP, cache and ingestion metrics.
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
	ingestionUnits      *prometheus.CounterVec
	batchRows           *prometheus.CounterVec
	curriculumConflicts prometheus.Counter
	recomputeDuration   prometheus.Histogram
	reconcileRuns       *prometheus.CounterVec

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService registers the collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	ingestionUnits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ingestion_units_total",
		Help: "Grade ingestion units by mode, outcome and error code",
	}, []string{"mode", "outcome", "code"})

	batchRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ingestion_batch_rows_total",
		Help: "Rows processed or skipped by document imports",
	}, []string{"result"})

	curriculumConflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "curriculum_conflicts_total",
		Help: "Classifications where more than one curriculum governed the batch",
	})

	recomputeDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "progress_recompute_seconds",
		Help:    "Duration of student progress recomputation including persistence",
		Buckets: prometheus.DefBuckets,
	})

	reconcileRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "progress_reconcile_students_total",
		Help: "Students visited by reconciliation runs",
	}, []string{"result"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		ingestionUnits, batchRows, curriculumConflicts, recomputeDuration, reconcileRuns, goroutines)

	return &MetricsService{
		registry:            registry,
		handler:             promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:     requestDuration,
		requestTotal:        requestTotal,
		cacheLatency:        cacheLatency,
		cacheWrite:          cacheWrite,
		cacheHitRatio:       cacheHitRatio,
		cacheHits:           cacheHits,
		cacheMisses:         cacheMisses,
		ingestionUnits:      ingestionUnits,
		batchRows:           batchRows,
		curriculumConflicts: curriculumConflicts,
		recomputeDuration:   recomputeDuration,
		reconcileRuns:       reconcileRuns,
	}
}

// Registry exposes the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
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
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
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
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordIngestion counts one ingestion unit reaching a terminal state.
func (m *MetricsService) RecordIngestion(mode, outcome, code string) {
	if m == nil {
		return
	}
	m.ingestionUnits.WithLabelValues(mode, outcome, code).Inc()
}

// RecordBatchRows counts processed and skipped rows of a document import.
func (m *MetricsService) RecordBatchRows(processed, skipped int) {
	if m == nil {
		return
	}
	m.batchRows.WithLabelValues("processed").Add(float64(processed))
	m.batchRows.WithLabelValues("skipped").Add(float64(skipped))
}

// RecordCurriculumConflict counts an ambiguous curriculum lookup.
func (m *MetricsService) RecordCurriculumConflict() {
	if m == nil {
		return
	}
	m.curriculumConflicts.Inc()
}

// ObserveRecompute records the duration of one progress recomputation.
func (m *MetricsService) ObserveRecompute(duration time.Duration) {
	if m == nil {
		return
	}
	m.recomputeDuration.Observe(duration.Seconds())
}

// RecordReconcile counts students visited by a reconciliation run.
func (m *MetricsService) RecordReconcile(succeeded, failed int) {
	if m == nil {
		return
	}
	m.reconcileRuns.WithLabelValues("succeeded").Add(float64(succeeded))
	m.reconcileRuns.WithLabelValues("failed").Add(float64(failed))
}
