// Package metrics defines the custom Prometheus metrics of the PorchLite
// coordinator. It is the single source of truth for metric names, labels and
// help strings. All metrics register with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "porchlite"

// ── Session metrics ───────────────────────────────────────────────────────────

// AuthEventsTotal counts auth events pushed by the backend.
// Labels:
//   - type: the event type (e.g. "SIGNED_IN", "TOKEN_REFRESHED")
//   - result: "applied" or "ignored"
var AuthEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_events_total",
		Help:      "Total number of auth events received, by type and result.",
	},
	[]string{"type", "result"},
)

// SessionRefreshesTotal counts session refresh attempts.
// Label:
//   - result: "ok" or "error"
var SessionRefreshesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_refreshes_total",
		Help:      "Total number of session refresh attempts, by result.",
	},
	[]string{"result"},
)

// ── Property metrics ──────────────────────────────────────────────────────────

// PropertyLoadDuration measures how long a property list fetch takes.
// Label:
//   - result: "ok" or "error"
var PropertyLoadDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "property_load_duration_seconds",
		Help:      "Duration of property list fetches.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"result"},
)

// PropertiesAccessible is the size of the last successfully loaded list.
var PropertiesAccessible = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "properties_accessible",
		Help:      "Number of properties in the last successfully loaded list.",
	},
)

// StaleResultsTotal counts results discarded because a newer load superseded them.
// Label:
//   - store: "session" or "properties"
var StaleResultsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stale_results_discarded_total",
		Help:      "Total number of superseded async results that were discarded.",
	},
	[]string{"store"},
)

// ── Readiness metrics ─────────────────────────────────────────────────────────

// ReadinessTransitionsTotal counts readiness signal changes.
// Label:
//   - to: the new readiness value
var ReadinessTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "readiness_transitions_total",
		Help:      "Total number of readiness transitions, by target state.",
	},
	[]string{"to"},
)

// ForcedReloadsTotal counts full state reloads.
// Label:
//   - reason: "idle_on_focus", "idle_periodic" or "refresh_failed"
var ForcedReloadsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "forced_reloads_total",
		Help:      "Total number of forced reloads, by reason.",
	},
	[]string{"reason"},
)
