// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RegistrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registrations_total",
			Help: "Total number of completed student registrations",
		},
		[]string{"year", "section"},
	)

	RegistrationFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registration_failures_total",
			Help: "Registrations rejected, by reason",
		},
		[]string{"reason"},
	)

	ReportsGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reports_generated_total",
			Help: "Generated xlsx reports, by scope",
		},
		[]string{"scope"},
	)

	ReportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "report_generation_duration_seconds",
			Help:    "Report generation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"scope"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)
