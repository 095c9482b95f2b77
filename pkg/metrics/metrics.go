// Package metrics exposes the governance core's Prometheus instrumentation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles every counter/histogram the core components record to.
type Metrics struct {
	registry *prometheus.Registry

	PolicyDecisions       *prometheus.CounterVec
	LedgerEntriesAppended prometheus.Counter
	LedgerBlocksSealed    prometheus.Counter
	ContractTransitions   *prometheus.CounterVec
	ReflexiveDecisions    *prometheus.CounterVec
	LedgerAppendDuration  prometheus.Histogram
}

// New constructs a Metrics bundle on its own registry, so the module
// never pulls in process/Go-runtime collectors it didn't ask for.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		PolicyDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "policy_decisions_total",
			Help: "Count of policy evaluation decisions by policy and outcome.",
		}, []string{"policy", "allow"}),
		LedgerEntriesAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_entries_appended_total",
			Help: "Count of entries appended to the provenance ledger.",
		}),
		LedgerBlocksSealed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_blocks_sealed_total",
			Help: "Count of ledger blocks sealed.",
		}),
		ContractTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contract_transitions_total",
			Help: "Count of contract state transitions by from/to state.",
		}, []string{"from", "to"}),
		ReflexiveDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reflexive_decisions_total",
			Help: "Count of reflexive engine decisions by decision type and risk level.",
		}, []string{"decision_type", "risk_level"}),
		LedgerAppendDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledger_append_duration_seconds",
			Help:    "Latency of ledger append operations.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	registry.MustRegister(
		m.PolicyDecisions,
		m.LedgerEntriesAppended,
		m.LedgerBlocksSealed,
		m.ContractTransitions,
		m.ReflexiveDecisions,
		m.LedgerAppendDuration,
	)

	return m
}

// Handler returns the HTTP handler serving this bundle's Prometheus
// exposition format, meant to be mounted on a dedicated metrics listener.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
