package models

import "time"

// MetricsSnapshot is a lightweight summary of the Prometheus counters.
type MetricsSnapshot struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	NotificationsSent        uint64    `json:"notifications_sent"`
	NotificationsFailed      uint64    `json:"notifications_failed"`
	NotificationsDuplicate   uint64    `json:"notifications_duplicate"`
	JobRuns                  uint64    `json:"job_runs"`
	LockContention           uint64    `json:"lock_contention"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
