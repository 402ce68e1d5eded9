// Package metrics defines and registers the Prometheus metrics of the
// counseling admin tool. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics register with the default registry on package init and are served
// by the HTTP front end on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "counsel"

// ── Authentication metrics ────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: "success" or "failure"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// PasswordChangesTotal counts password change attempts.
// Label:
//   - result: "success", "rejected" (validation) or "error"
var PasswordChangesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "password_changes_total",
		Help:      "Total number of password change attempts, by result.",
	},
	[]string{"result"},
)

// ── Import metrics ────────────────────────────────────────────────────────────

// ImportsTotal counts roster import runs.
// Labels:
//   - target: "student" or "teacher"
//   - outcome: "ok", "missing_column" or "error"
var ImportsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "imports_total",
		Help:      "Total number of roster import runs, by target and outcome.",
	},
	[]string{"target", "outcome"},
)

// ImportRowsTotal counts roster rows handled by imports.
// Labels:
//   - target: "student" or "teacher"
//   - result: "processed" or "skipped"
var ImportRowsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "import_rows_total",
		Help:      "Total number of roster rows handled, by target and result.",
	},
	[]string{"target", "result"},
)

// AccountsProvisionedTotal counts credential records created by imports.
var AccountsProvisionedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "accounts_provisioned_total",
		Help:      "Total number of login accounts created by roster imports, by role.",
	},
	[]string{"role"},
)

// ImportDuration measures a whole import run.
var ImportDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "import_duration_seconds",
		Help:      "Duration of a roster import run from column check to last write.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"target"},
)
