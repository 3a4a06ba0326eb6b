// Package metrics provides Prometheus metrics for the habit engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the process-wide Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	// Ledger metrics
	toggles   *prometheus.CounterVec
	rollbacks *prometheus.CounterVec
	fetches   *prometheus.CounterVec

	// Analytics cache metrics
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	// Calendar sync metrics
	calendarErrors *prometheus.CounterVec
}

// New creates the metrics set on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{registry: registry}

	m.toggles = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rutina_toggles_total",
		Help: "Total completion toggles by ledger and result",
	}, []string{"ledger", "result"})

	m.rollbacks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rutina_rollbacks_total",
		Help: "Total optimistic-state rollbacks by ledger",
	}, []string{"ledger"})

	m.fetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rutina_range_fetches_total",
		Help: "Total range fetches by outcome (fetched, coalesced, error)",
	}, []string{"outcome"})

	m.cacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rutina_analytics_cache_hits_total",
		Help: "Analytics cache hits by derivation",
	}, []string{"derivation"})

	m.cacheMisses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rutina_analytics_cache_misses_total",
		Help: "Analytics cache misses by derivation",
	}, []string{"derivation"})

	m.calendarErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rutina_calendar_sync_errors_total",
		Help: "Calendar sync failures by operation",
	}, []string{"operation"})

	registry.MustRegister(m.toggles, m.rollbacks, m.fetches, m.cacheHits, m.cacheMisses, m.calendarErrors)
	return m
}

// Handler returns the HTTP handler exposing the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) CountToggle(ledger, result string) {
	m.toggles.WithLabelValues(ledger, result).Inc()
}

func (m *Metrics) CountRollback(ledger string) {
	m.rollbacks.WithLabelValues(ledger).Inc()
}

func (m *Metrics) CountRangeFetch(outcome string) {
	m.fetches.WithLabelValues(outcome).Inc()
}

func (m *Metrics) CountCacheHit(derivation string) {
	m.cacheHits.WithLabelValues(derivation).Inc()
}

func (m *Metrics) CountCacheMiss(derivation string) {
	m.cacheMisses.WithLabelValues(derivation).Inc()
}

func (m *Metrics) CountCalendarError(operation string) {
	m.calendarErrors.WithLabelValues(operation).Inc()
}

// Default is the shared metrics instance used when callers do not inject one.
var Default = New()
