// Package metrics exposes reconciliation counters. A nil Recorder is a
// valid no-op so library users can skip metrics entirely.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Recorder struct {
	registry  *prometheus.Registry
	decisions *prometheus.CounterVec
	failures  *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()

	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "declincus",
		Name:      "reconcile_decisions_total",
		Help:      "Transitions selected by the reconciler, by resource kind and operation.",
	}, []string{"kind", "op"})

	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "declincus",
		Name:      "reconcile_failures_total",
		Help:      "Failed reconciliations, by resource kind and error category.",
	}, []string{"kind", "category"})

	registry.MustRegister(decisions, failures)

	return &Recorder{
		registry:  registry,
		decisions: decisions,
		failures:  failures,
	}
}

func (r *Recorder) ObserveDecision(kind, op string) {
	if r == nil {
		return
	}
	r.decisions.WithLabelValues(kind, op).Inc()
}

func (r *Recorder) ObserveFailure(kind, category string) {
	if r == nil {
		return
	}
	r.failures.WithLabelValues(kind, category).Inc()
}

// Handler serves the recorder's registry in the Prometheus exposition
// format. Used by apply --metrics-listen.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
