// Package metrics exposes Prometheus instrumentation for instruction building
// and transaction submission.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tradeyard"

// Transaction outcome labels.
const (
	StatusConfirmed = "confirmed"
	StatusFailed    = "failed"
)

// Metrics holds the collectors of one client instance. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	instructionsBuilt *prometheus.CounterVec
	transactions      *prometheus.CounterVec
	submitDuration    *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		instructionsBuilt: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "instructions_built_total",
				Help:      "Marketplace instructions built, by kind.",
			},
			[]string{"kind"},
		),
		transactions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transactions_total",
				Help:      "Marketplace transactions submitted, by kind and outcome.",
			},
			[]string{"kind", "status"},
		),
		submitDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "submit_duration_seconds",
				Help:      "Time from submission to confirmation or failure.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
	}

	for _, c := range []prometheus.Collector{m.instructionsBuilt, m.transactions, m.submitDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordInstructionBuilt counts one built instruction.
func (m *Metrics) RecordInstructionBuilt(kind string) {
	if m == nil {
		return
	}
	m.instructionsBuilt.WithLabelValues(kind).Inc()
}

// RecordSubmission counts a finished submission and observes its duration.
func (m *Metrics) RecordSubmission(kind string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	status := StatusConfirmed
	if err != nil {
		status = StatusFailed
	}
	m.transactions.WithLabelValues(kind, status).Inc()
	m.submitDuration.WithLabelValues(kind).Observe(duration.Seconds())
}
