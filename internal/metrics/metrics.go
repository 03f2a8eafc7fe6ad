// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics exposes Prometheus counters for a fetch run. A run can
// dump them to a node-exporter textfile when it ends.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "shelfgrab"

// Metrics holds the collectors for one run on their own registry.
type Metrics struct {
	registry *prometheus.Registry

	searches     *prometheus.CounterVec
	acquisitions *prometheus.CounterVec
	queueDepth   prometheus.Gauge
	downloaded   prometheus.Counter
}

// New registers a fresh set of collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Provider searches by provider, strategy and result",
		}, []string{"provider", "strategy", "result"}),
		acquisitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "acquisitions_total",
			Help:      "Item outcomes by flow and outcome",
		}, []string{"flow", "outcome"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "deferred_queue_depth",
			Help:      "Items waiting for the deferred worker",
		}),
		downloaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downloaded_bytes_total",
			Help:      "Bytes written to the output directory",
		}),
	}
	m.registry.MustRegister(m.searches, m.acquisitions, m.queueDepth, m.downloaded)
	return m
}

// Nil-receiver safe helpers so callers can run without metrics.

func (m *Metrics) Search(provider, strategy, result string) {
	if m != nil {
		m.searches.WithLabelValues(provider, strategy, result).Inc()
	}
}

func (m *Metrics) Outcome(flow, outcome string) {
	if m != nil {
		m.acquisitions.WithLabelValues(flow, outcome).Inc()
	}
}

func (m *Metrics) QueueDepth(n int) {
	if m != nil {
		m.queueDepth.Set(float64(n))
	}
}

func (m *Metrics) Downloaded(bytes int64) {
	if m != nil && bytes > 0 {
		m.downloaded.Add(float64(bytes))
	}
}

// Gatherer exposes the registry, mainly for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer { return m.registry }

// WriteTextfile writes all collectors in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
