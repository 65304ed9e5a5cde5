// Package metrics defines the custom Prometheus metrics of the back-office API.
// All metrics register with the default registry through promauto, which is
// also what the /metrics endpoint serves.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "backoffice"

// RecordsMutatedTotal counts records changed by a successful lifecycle operation.
// Labels:
//   - resource: catalog name (e.g. "reports")
//   - operation: create, update, remove, restore, hard_remove
var RecordsMutatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_mutated_total",
		Help:      "Total number of records changed by lifecycle operations.",
	},
	[]string{"resource", "operation"},
)

// OperationsRejectedTotal counts lifecycle operations refused by the engine.
// Label reason is one of validation, not_found, forbidden.
var OperationsRejectedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "operations_rejected_total",
		Help:      "Total number of lifecycle operations rejected, by reason.",
	},
	[]string{"resource", "operation", "reason"},
)

// IdempotentReplaysTotal counts creates answered from an earlier Idempotency-Key.
var IdempotentReplaysTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "idempotent_replays_total",
		Help:      "Total number of creates replayed from an idempotency key.",
	},
	[]string{"resource"},
)
