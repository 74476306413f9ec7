// Package metrics defines the custom Prometheus metrics of the auth service.
// It is the single source of truth for metric names, labels and help strings.
//
// Every metric is registered with the default registry on package init and
// exposed by the /metrics route. Per-request HTTP metrics come from the
// echoprometheus middleware installed by the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "auth"

// Result label values shared by the authentication counters.
const (
	ResultOK        = "ok"
	ResultDuplicate = "duplicate"
	ResultInvalid   = "invalid"
	ResultFailed    = "failed"
	ResultError     = "error"
)

// ── Authentication metrics ────────────────────────────────────────────────────

// SignUpsTotal counts sign-up attempts.
// Label:
//   - result: "ok", "duplicate", "invalid" or "error"
var SignUpsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signups_total",
		Help:      "Total number of sign-up attempts, by result.",
	},
	[]string{"result"},
)

// SignInsTotal counts sign-in attempts.
// Label:
//   - result: "ok", "failed" (unknown user or wrong password), "invalid" or "error"
var SignInsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signins_total",
		Help:      "Total number of sign-in attempts, by result.",
	},
	[]string{"result"},
)

// TokenValidationsTotal counts bearer tokens checked by the authorization gate.
// Label:
//   - result: "valid", "missing", "malformed", "signature" or "expired"
var TokenValidationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_validations_total",
		Help:      "Total number of bearer token validations, by result.",
	},
	[]string{"result"},
)

// RoleGrantsTotal counts self-promotions to ADMIN.
var RoleGrantsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "role_grants_total",
		Help:      "Total number of callers promoted to ADMIN through the demo route.",
	},
)
