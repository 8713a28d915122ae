// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Assignment outcomes
const (
	OutcomeAssigned = "assigned"
	OutcomeRejected = "rejected"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

type Metrics struct {
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	Assignments         *prometheus.CounterVec
	StatusTransitions   *prometheus.CounterVec
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		Assignments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "appointment_assignments_total",
				Help: "Appointment assignment attempts by outcome",
			},
			[]string{"outcome"},
		),
		StatusTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "appointment_status_transitions_total",
				Help: "Applied appointment status transitions",
			},
			[]string{"from", "to"},
		),
	}

	reg.MustRegister(m.HTTPRequests, m.HTTPRequestDuration, m.Assignments, m.StatusTransitions)
	return m
}
