package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation. A nil *MetricsService is a no-op.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheLookups    *prometheus.CounterVec
	dbQueryDuration *prometheus.HistogramVec
	studentsImport  *prometheus.CounterVec
	attendanceWrite *prometheus.CounterVec
	reportExports   *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors on a private registry.
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

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Cache lookups by result",
	}, []string{"result"})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	studentsImport := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "students_imported_total",
		Help: "Roster import rows by outcome",
	}, []string{"outcome"})

	attendanceWrite := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_records_written_total",
		Help: "Attendance records written by operation",
	}, []string{"operation"})

	reportExports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "report_exports_total",
		Help: "Monthly report exports by format",
	}, []string{"format"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheLookups, dbQueryDuration,
		studentsImport, attendanceWrite, reportExports, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheLookups:    cacheLookups,
		dbQueryDuration: dbQueryDuration,
		studentsImport:  studentsImport,
		attendanceWrite: attendanceWrite,
		reportExports:   reportExports,
	}
}

// Registry exposes the underlying registry for tests and extra collectors.
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

// RecordCacheOperation records a cache lookup and its latency.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveDBQuery records database query timing under label.
func (m *MetricsService) ObserveDBQuery(label string, start time.Time) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
}

// RecordImport counts created and failed roster rows.
func (m *MetricsService) RecordImport(created, failed int) {
	if m == nil {
		return
	}
	m.studentsImport.WithLabelValues("created").Add(float64(created))
	m.studentsImport.WithLabelValues("failed").Add(float64(failed))
}

// RecordAttendanceWrite counts attendance records written by operation.
func (m *MetricsService) RecordAttendanceWrite(operation string, count int) {
	if m == nil {
		return
	}
	m.attendanceWrite.WithLabelValues(operation).Add(float64(count))
}

// RecordExport counts a rendered report export.
func (m *MetricsService) RecordExport(format string) {
	if m == nil {
		return
	}
	m.reportExports.WithLabelValues(format).Inc()
}
