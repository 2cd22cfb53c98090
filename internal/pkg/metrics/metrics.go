/*
Package metrics defines the Prometheus collectors exported by the client.

Collectors are registered on a caller-supplied registry so that several clients
(and tests) can coexist in one process.
*/
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "watchparty"

// Metrics groups every collector the client updates.
type Metrics struct {
	// PollFetches counts message fetches issued by the polling scheduler, by result.
	PollFetches *prometheus.CounterVec

	// StaleDiscards counts fetch results dropped because their poll session was cancelled.
	StaleDiscards prometheus.Counter

	// ActivePolls is 1 while a poll session is live, 0 otherwise.
	ActivePolls prometheus.Gauge

	// ViewEntries counts router transitions by the view that was entered.
	ViewEntries *prometheus.CounterVec

	// APIRequests counts backend calls by endpoint and outcome code.
	APIRequests *prometheus.CounterVec
}

// New creates the collectors and registers them on reg. A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PollFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poll",
			Name:      "fetches_total",
			Help:      "Message fetches issued by the polling scheduler.",
		}, []string{"result"}),
		StaleDiscards: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poll",
			Name:      "stale_discards_total",
			Help:      "Fetch results discarded because their poll session was no longer active.",
		}),
		ActivePolls: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "poll",
			Name:      "active",
			Help:      "Number of live poll sessions (0 or 1).",
		}),
		ViewEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "nav",
			Name:      "view_entries_total",
			Help:      "Views entered by the navigation router.",
		}, []string{"view"}),
		APIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Backend requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
	}

	if reg != nil {
		reg.MustRegister(m.PollFetches, m.StaleDiscards, m.ActivePolls, m.ViewEntries, m.APIRequests)
	}

	return m
}

// Nop returns unregistered collectors for callers that do not export metrics.
func Nop() *Metrics {
	return New(nil)
}
