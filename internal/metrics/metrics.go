// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics holds the Prometheus collectors shared by the pipeline
// stages. Collectors are registered on an injected Registerer so tests can use
// a private registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "research_orchestrator"

// Fallback reasons recorded on FallbacksTotal.
const (
	ReasonProviderError = "provider_error"
	ReasonTimeout       = "timeout"
	ReasonNoSources     = "no_sources"
)

// Metrics groups the pipeline collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	QueriesTotal          *prometheus.CounterVec
	FallbacksTotal        *prometheus.CounterVec
	ProviderCallsTotal    *prometheus.CounterVec
	ProviderLatency       *prometheus.HistogramVec
	CitationWriteFailures prometheus.Counter
}

// New creates the collectors and registers them on reg. A nil reg skips
// registration.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		QueriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Submitted queries by final outcome.",
		}, []string{"outcome"}),
		FallbacksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_total",
			Help:      "Results synthesized locally, by reason.",
		}, []string{"reason"}),
		ProviderCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_calls_total",
			Help:      "Provider calls by agent and result.",
		}, []string{"agent", "result"}),
		ProviderLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_call_duration_seconds",
			Help:      "Provider call latency including retries.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 20, 30},
		}, []string{"agent"}),
		CitationWriteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "citation_write_failures_total",
			Help:      "Citation batches that failed to persist.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.QueriesTotal,
			m.FallbacksTotal,
			m.ProviderCallsTotal,
			m.ProviderLatency,
			m.CitationWriteFailures,
		)
	}
	return m
}

// ObserveQuery counts a query outcome (completed, fallback, failed, canceled, error).
func (m *Metrics) ObserveQuery(outcome string) {
	if m == nil {
		return
	}
	m.QueriesTotal.WithLabelValues(outcome).Inc()
}

// ObserveFallback counts a fallback result.
func (m *Metrics) ObserveFallback(reason string) {
	if m == nil {
		return
	}
	m.FallbacksTotal.WithLabelValues(reason).Inc()
}

// ObserveProviderCall records one agent call and its latency.
func (m *Metrics) ObserveProviderCall(agent string, d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.ProviderCallsTotal.WithLabelValues(agent, result).Inc()
	m.ProviderLatency.WithLabelValues(agent).Observe(d.Seconds())
}

// ObserveCitationFailure counts a failed citation batch.
func (m *Metrics) ObserveCitationFailure() {
	if m == nil {
		return
	}
	m.CitationWriteFailures.Inc()
}
