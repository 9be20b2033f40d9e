// Package metrics exposes Prometheus counters for the admin console.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the registry and the counters the API layer increments.
type Metrics struct {
	registry *prometheus.Registry

	Evaluations      prometheus.Counter
	Triggers         prometheus.Counter
	Publishes        prometheus.Counter
	PublishConflicts prometheus.Counter
}

// New creates a registry with process and Go runtime collectors plus the
// console's own counters.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		Evaluations: factory.NewCounter(prometheus.CounterOpts{
			Name: "fraudgate_rule_evaluations_total",
			Help: "Number of rule evaluations performed.",
		}),
		Triggers: factory.NewCounter(prometheus.CounterOpts{
			Name: "fraudgate_rule_triggers_total",
			Help: "Number of evaluations that triggered a rule.",
		}),
		Publishes: factory.NewCounter(prometheus.CounterOpts{
			Name: "fraudgate_version_publishes_total",
			Help: "Number of rule versions published.",
		}),
		PublishConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "fraudgate_publish_conflicts_total",
			Help: "Number of publish or status changes rejected on version conflict.",
		}),
	}

	reg.MustRegister(collectors.NewGoCollector())
	return m
}

// Handler returns the scrape endpoint handler for the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
