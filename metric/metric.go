// Package metric registers the service's prometheus collectors.
package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Messages counts messages handled per adapter.
	Messages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chatflow",
		Name:      "messages_total",
		Help:      "Messages handled, by adapter.",
	}, []string{"adapter"})

	// Fallbacks counts replies that fell back because classification
	// found no intent or the call failed.
	Fallbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "chatflow",
		Name:      "fallbacks_total",
		Help:      "Generic fallback replies sent.",
	})

	// NoRoutes counts classified intents with no table entry.
	NoRoutes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "chatflow",
		Name:      "no_routes_total",
		Help:      "Routing lookups that found no transition.",
	})

	// Rebuilds counts successful routing-table rebuilds.
	Rebuilds = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "chatflow",
		Name:      "table_rebuilds_total",
		Help:      "Routing table rebuilds installed.",
	})

	// SyncFailures counts failed provider synchronizations.
	SyncFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "chatflow",
		Name:      "sync_failures_total",
		Help:      "Failed intent synchronizations.",
	})
)

func init() {
	prometheus.MustRegister(Messages, Fallbacks, NoRoutes, Rebuilds, SyncFailures)
}
