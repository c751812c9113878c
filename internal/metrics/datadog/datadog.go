// Package datadog implements a DogStatsD backend for the metrics package.
// Metric names are rewritten to Datadog's dotted form and labels become
// "key:value" tags.
package datadog

import (
	"fmt"
	"sort"
	"strings"

	"dbetl/internal/metrics"

	"github.com/DataDog/datadog-go/v5/statsd"
)

// Config holds Datadog backend configuration.
type Config struct {
	// Addr is the DogStatsD address, e.g. "127.0.0.1:8125" or "unix:///path/to/socket".
	Addr string
	// GlobalTags are applied to every metric, e.g. "env:prod".
	GlobalTags []string
}

// client is the subset of statsd.ClientInterface the backend uses.
type client interface {
	Count(name string, value int64, tags []string, rate float64) error
	Histogram(name string, value float64, tags []string, rate float64) error
	Flush() error
	Close() error
}

// Backend is a Datadog implementation of metrics.Backend.
type Backend struct {
	client client
}

// NewBackend connects a statsd client to cfg.Addr.
func NewBackend(cfg Config) (*Backend, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("datadog: Addr is required")
	}
	c, err := statsd.New(cfg.Addr, statsd.WithTags(cfg.GlobalTags))
	if err != nil {
		return nil, fmt.Errorf("datadog: create client: %w", err)
	}
	return &Backend{client: c}, nil
}

// metricName turns "dbetl_rows_total" into "dbetl.rows.total".
func metricName(name string) string {
	return strings.ReplaceAll(name, "_", ".")
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	// DogStatsD counts are integers.
	_ = b.client.Count(metricName(name), int64(delta), tags(labels), 1)
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	_ = b.client.Histogram(metricName(name), value, tags(labels), 1)
}

// Flush sends buffered metrics and closes the client; call it once at exit.
func (b *Backend) Flush() error {
	if err := b.client.Flush(); err != nil {
		return fmt.Errorf("datadog: flush: %w", err)
	}
	return b.client.Close()
}

// tags renders labels sorted by key.
func tags(lbls metrics.Labels) []string {
	if len(lbls) == 0 {
		return nil
	}
	out := make([]string, 0, len(lbls))
	for k, v := range lbls {
		out = append(out, k+":"+v)
	}
	sort.Strings(out)
	return out
}
