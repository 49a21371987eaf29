package catalog

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the cache-aside layer. Each
// instance owns its registry, so several can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	lookups       *prometheus.CounterVec
	populates     *prometheus.CounterVec
	invalidations *prometheus.CounterVec
	storeLoads    *prometheus.CounterVec
}

// NewMetrics creates the catalog collectors under namespace.
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by result (hit, miss, error).",
		}, []string{"result"}),
		populates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_writes_total",
			Help:      "Cache writes (read-through populates and point refreshes) by result.",
		}, []string{"result"}),
		invalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_invalidations_total",
			Help:      "Cache key invalidations by result.",
		}, []string{"result"}),
		storeLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_loads_total",
			Help:      "Entity store loads triggered by cache misses, by result (ok, not_found, error).",
		}, []string{"result"}),
	}
	m.registry.MustRegister(
		m.lookups,
		m.populates,
		m.invalidations,
		m.storeLoads,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry for additional collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
