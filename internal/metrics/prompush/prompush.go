// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package. A migration is a batch job, so metrics are pushed once at
// the end instead of being scraped.
package prompush

import (
	"fmt"

	"dbetl/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// DefaultJob is the Pushgateway grouping job when none is given.
const DefaultJob = "dbetl"

// Backend is a Prometheus Pushgateway metrics backend. The job label is the
// Pushgateway grouping key and is not repeated on each series.
type Backend struct {
	gatewayURL string
	jobName    string
	reg        *prometheus.Registry

	steps    *prometheus.CounterVec   // step, status
	duration *prometheus.HistogramVec // step, status
	rowsN    *prometheus.CounterVec   // kind
	batches  prometheus.Counter
	tables   *prometheus.CounterVec // status
}

// NewBackend builds a backend pushing to gatewayURL under jobName.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = DefaultJob
	}

	b := &Backend{
		gatewayURL: gatewayURL,
		jobName:    jobName,
		reg:        prometheus.NewRegistry(),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.StepTotal,
			Help: "Migration steps executed, by step and status.",
		}, []string{"step", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: metrics.StepSeconds,
			Help: "Duration of migration steps in seconds.",
			// 10ms .. ~3h
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{"step", "status"}),
		rowsN: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.RowsTotal,
			Help: "Rows handled, by kind.",
		}, []string{"kind"}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metrics.BatchesTotal,
			Help: "Load batches flushed.",
		}),
		tables: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.TablesTotal,
			Help: "Tables processed, by outcome.",
		}, []string{"status"}),
	}

	for _, c := range []prometheus.Collector{b.steps, b.duration, b.rowsN, b.batches, b.tables} {
		if err := b.reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register: %w", err)
		}
	}
	return b, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.StepTotal:
		b.steps.WithLabelValues(labels["step"], labels["status"]).Add(delta)
	case metrics.RowsTotal:
		b.rowsN.WithLabelValues(labels["kind"]).Add(delta)
	case metrics.BatchesTotal:
		b.batches.Add(delta)
	case metrics.TablesTotal:
		b.tables.WithLabelValues(labels["status"]).Add(delta)
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.StepSeconds {
		return
	}
	b.duration.WithLabelValues(labels["step"], labels["status"]).Observe(value)
}

// Flush pushes the registry, replacing the job's previous group.
func (b *Backend) Flush() error {
	if err := push.New(b.gatewayURL, b.jobName).Gatherer(b.reg).Push(); err != nil {
		return fmt.Errorf("prompush: push: %w", err)
	}
	return nil
}
