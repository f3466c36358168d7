// Package metrics provides Prometheus metrics for index-rotator runs.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

const (
	// MetricsNamespace is the namespace for all index-rotator metrics.
	MetricsNamespace = "index_rotator"

	// DefaultJob is the Pushgateway job label.
	DefaultJob = "index-rotator"

	// Outcomes.
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds the run metrics and the registry they live on.
type Metrics struct {
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	LastSuccess       *prometheus.GaugeVec

	gatherer prometheus.Gatherer
	pushURL  string
	job      string
}

// Option configures Metrics.
type Option func(*Metrics)

// WithPushgateway enables Push to url under job.
func WithPushgateway(url, job string) Option {
	return func(m *Metrics) {
		m.pushURL = url
		if job != "" {
			m.job = job
		}
	}
}

// New registers the metrics on reg. A nil reg gets a fresh registry.
func New(reg *prometheus.Registry, opts ...Option) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	factory := promauto.With(reg)
	m := &Metrics{
		OperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Name:      "operations_total",
				Help:      "Total number of create, rotate and dump operations",
			},
			[]string{"manager", "mode", "outcome"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: MetricsNamespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of operations in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"mode"},
		),
		LastSuccess: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: MetricsNamespace,
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time of the last successful operation per manager",
			},
			[]string{"manager"},
		),
		gatherer: reg,
		job:      DefaultJob,
	}

	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ObserveOperation records one finished operation.
func (m *Metrics) ObserveOperation(manager, mode string, success bool, duration time.Duration) {
	outcome := OutcomeFailure
	if success {
		outcome = OutcomeSuccess
		m.LastSuccess.WithLabelValues(manager).SetToCurrentTime()
	}
	m.OperationsTotal.WithLabelValues(manager, mode, outcome).Inc()
	m.OperationDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// Push sends the registry to the Pushgateway. It is a no-op without one.
func (m *Metrics) Push(ctx context.Context) error {
	if m.pushURL == "" {
		return nil
	}

	if err := push.New(m.pushURL, m.job).Gatherer(m.gatherer).PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", m.pushURL, err)
	}
	return nil
}
