// Package metrics defines and registers all custom Prometheus metrics for the
// records dashboard. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics register with the default Prometheus registry through promauto when
// the package is first imported.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dashboard"

// ── Session metrics ───────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", "rate_limited" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// LogoutsTotal counts completed logouts.
var LogoutsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logouts_total",
		Help:      "Total number of logouts.",
	},
)

// ── Record metrics ────────────────────────────────────────────────────────────

// RecordsCreatedTotal counts newly created records.
// Label:
//   - status: initial status of the record
var RecordsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_created_total",
		Help:      "Total number of records created, by initial status.",
	},
	[]string{"status"},
)

// StatusUpdatesTotal counts status changes.
// Label:
//   - status: the status applied
var StatusUpdatesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "status_updates_total",
		Help:      "Total number of record status updates, by new status.",
	},
	[]string{"status"},
)

// ── Directory metrics ─────────────────────────────────────────────────────────

// IdentitiesChangedTotal counts directory mutations.
// Label:
//   - change: "added" or "removed"
var IdentitiesChangedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "identities_changed_total",
		Help:      "Total number of identities added or removed.",
	},
	[]string{"change"},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditQueueDepth tracks the current number of entries waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit entries pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// AuditDroppedTotal counts audit entries that were never stored.
// Label:
//   - reason: "queue_full" or "closed"
var AuditDroppedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_dropped_total",
		Help:      "Total number of audit entries dropped before persistence.",
	},
	[]string{"reason"},
)

// ── Operation metrics ─────────────────────────────────────────────────────────

// OperationDuration measures service calls as seen by the HTTP handlers,
// simulated latency included.
// Labels:
//   - operation: service operation name (e.g. "list_records")
//   - outcome: "ok" or "error"
var OperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "operation_duration_seconds",
		Help:      "Duration of service operations invoked by HTTP handlers.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
	[]string{"operation", "outcome"},
)
