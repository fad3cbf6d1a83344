package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/lunch-rotation-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	notifications   *prometheus.CounterVec
	jobRuns         *prometheus.CounterVec
	jobDuration     *prometheus.HistogramVec
	lockContention  *prometheus.CounterVec

	requestCount         uint64
	requestDurationTotal uint64
	sentCount            uint64
	failedCount          uint64
	duplicateCount       uint64
	jobRunCount          uint64
	contentionCount      uint64
}

// NewMetricsService registers core Prometheus collectors.
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

	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_total",
		Help: "Notification delivery attempts by job and outcome",
	}, []string{"job", "status"})

	jobRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_runs_total",
		Help: "Scheduled job runs by outcome",
	}, []string{"job", "outcome"})

	jobDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "job_duration_seconds",
		Help:    "Duration of scheduled job runs",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})

	lockContention := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_lock_contention_total",
		Help: "Job runs rejected because another run held the lock",
	}, []string{"job"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, notifications, jobRuns, jobDuration, lockContention, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		notifications:   notifications,
		jobRuns:         jobRuns,
		jobDuration:     jobDuration,
		lockContention:  lockContention,
	}
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

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
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

// RecordNotification counts one delivery outcome for a job.
func (m *MetricsService) RecordNotification(job models.JobType, status models.NotificationStatus) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(string(job), string(status)).Inc()
	switch status {
	case models.NotificationSent:
		atomic.AddUint64(&m.sentCount, 1)
	case models.NotificationFailed:
		atomic.AddUint64(&m.failedCount, 1)
	case models.NotificationSkippedDuplicate:
		atomic.AddUint64(&m.duplicateCount, 1)
	}
}

// ObserveJobRun records the outcome and duration of a job run.
func (m *MetricsService) ObserveJobRun(job models.JobType, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(string(job), outcome).Inc()
	m.jobDuration.WithLabelValues(string(job)).Observe(duration.Seconds())
	atomic.AddUint64(&m.jobRunCount, 1)
}

// RecordLockContention counts a run that found the job lock already held.
func (m *MetricsService) RecordLockContention(job models.JobType) {
	if m == nil {
		return
	}
	m.lockContention.WithLabelValues(string(job)).Inc()
	atomic.AddUint64(&m.contentionCount, 1)
}

// Snapshot returns aggregated metrics suitable for the admin API.
func (m *MetricsService) Snapshot() models.MetricsSnapshot {
	if m == nil {
		return models.MetricsSnapshot{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.MetricsSnapshot{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		NotificationsSent:        atomic.LoadUint64(&m.sentCount),
		NotificationsFailed:      atomic.LoadUint64(&m.failedCount),
		NotificationsDuplicate:   atomic.LoadUint64(&m.duplicateCount),
		JobRuns:                  atomic.LoadUint64(&m.jobRunCount),
		LockContention:           atomic.LoadUint64(&m.contentionCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
