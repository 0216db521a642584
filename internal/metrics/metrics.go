// Package metrics exposes orchestrator activity as Prometheus collectors.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/deepstock/pkg/domain"
)

// Outcome label values for deepstock_requests_total.
const (
	OutcomeSucceeded = "succeeded"
)

// Metrics groups the collectors fed by the orchestrator hooks.
type Metrics struct {
	Submissions prometheus.Counter
	Requests    *prometheus.CounterVec
	Superseded  prometheus.Counter
	Duration    prometheus.Histogram
	InFlight    prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Submissions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "deepstock_submissions_total",
			Help: "Total number of accepted research submissions",
		}),
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deepstock_requests_total",
				Help: "Total number of requests that reached a terminal state, by outcome",
			},
			[]string{"outcome"},
		),
		Superseded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "deepstock_superseded_total",
			Help: "Total number of generator results dropped because a newer request replaced them",
		}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "deepstock_generation_duration_seconds",
			Help:    "Duration of generator calls",
			Buckets: []float64{1, 5, 10, 20, 30, 45, 60, 90, 120, 180},
		}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "deepstock_in_flight",
			Help: "Number of generator calls currently running, including superseded ones",
		}),
	}
	reg.MustRegister(m.Submissions, m.Requests, m.Superseded, m.Duration, m.InFlight)
	return m
}

// Hooks records metrics from orchestrator lifecycle events.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			switch e.To.Phase {
			case domain.PhaseValidating:
				m.Submissions.Inc()
			case domain.PhaseInFlight:
				m.InFlight.Inc()
			case domain.PhaseSucceeded:
				m.Requests.WithLabelValues(OutcomeSucceeded).Inc()
			case domain.PhaseFailed:
				m.Requests.WithLabelValues(string(e.To.ErrorKind)).Inc()
			}
		},
		OnGenerate: func(ctx context.Context, e *domain.GenerateEvent) {
			m.InFlight.Dec()
			m.Duration.Observe(e.Duration.Seconds())
		},
		OnDiscard: func(ctx context.Context, e *domain.DiscardEvent) {
			m.Superseded.Inc()
		},
	}
}
