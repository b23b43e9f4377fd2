// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Sale metrics
	ContributionsAccepted prometheus.Counter
	ContributionsRejected *prometheus.CounterVec
	ValueContributed      prometheus.Counter
	TokensAllocated       prometheus.Counter
	InventoryRemaining    prometheus.Gauge
	CollectedValue        prometheus.Gauge
	AllowlistSize         prometheus.Gauge

	// Release metrics
	ReleaseTransfers prometheus.Counter
	ReleaseDuration  prometheus.Histogram

	// Withdrawal metrics
	WithdrawalsTotal prometheus.Counter
	ValueWithdrawn   prometheus.Counter

	// API metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	WSClientsConnected  prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "crowdsale"
	}

	return &Metrics{
		// Sale metrics
		ContributionsAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sale",
			Name:      "contributions_accepted_total",
			Help:      "Total number of accepted contributions",
		}),
		ContributionsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sale",
			Name:      "contributions_rejected_total",
			Help:      "Total number of rejected contributions by reason",
		}, []string{"reason"}),
		ValueContributed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sale",
			Name:      "value_contributed_total",
			Help:      "Total contributed value across all purchases",
		}),
		TokensAllocated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sale",
			Name:      "tokens_allocated_total",
			Help:      "Total tokens allocated across all purchases",
		}),
		InventoryRemaining: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sale",
			Name:      "inventory_remaining",
			Help:      "Tokens still available for purchase",
		}),
		CollectedValue: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sale",
			Name:      "collected_value",
			Help:      "Contributed value retained by the coordinator",
		}),
		AllowlistSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sale",
			Name:      "allowlist_size",
			Help:      "Number of allowlisted identities",
		}),

		// Release metrics
		ReleaseTransfers: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "release",
			Name:      "transfers_total",
			Help:      "Total number of release transfers executed",
		}),
		ReleaseDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "release",
			Name:      "duration_seconds",
			Help:      "Release batch execution duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		// Withdrawal metrics
		WithdrawalsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "withdrawal",
			Name:      "withdrawals_total",
			Help:      "Total number of withdrawals",
		}),
		ValueWithdrawn: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "withdrawal",
			Name:      "value_withdrawn_total",
			Help:      "Total value withdrawn by the administrator",
		}),

		// API metrics
		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and status",
		}, []string{"endpoint", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		WSClientsConnected: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "ws_clients_connected",
			Help:      "Number of connected event feed clients",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordContribution records an accepted contribution.
func RecordContribution(value, quantity int64) {
	DefaultMetrics.ContributionsAccepted.Inc()
	DefaultMetrics.ValueContributed.Add(float64(value))
	DefaultMetrics.TokensAllocated.Add(float64(quantity))
}

// RecordContributionRejected records a rejected contribution by reason.
func RecordContributionRejected(reason string) {
	DefaultMetrics.ContributionsRejected.WithLabelValues(reason).Inc()
}

// SetInventoryRemaining updates the remaining inventory gauge.
func SetInventoryRemaining(remaining int64) {
	DefaultMetrics.InventoryRemaining.Set(float64(remaining))
}

// SetCollectedValue updates the retained value gauge.
func SetCollectedValue(value int64) {
	DefaultMetrics.CollectedValue.Set(float64(value))
}

// SetAllowlistSize updates the allowlist size gauge.
func SetAllowlistSize(n int64) {
	DefaultMetrics.AllowlistSize.Set(float64(n))
}

// RecordRelease records a completed release batch.
func RecordRelease(transfers int, durationSeconds float64) {
	DefaultMetrics.ReleaseTransfers.Add(float64(transfers))
	DefaultMetrics.ReleaseDuration.Observe(durationSeconds)
}

// RecordWithdrawal records an administrator withdrawal.
func RecordWithdrawal(amount int64) {
	DefaultMetrics.WithdrawalsTotal.Inc()
	DefaultMetrics.ValueWithdrawn.Add(float64(amount))
}

// RecordHTTPRequest records an API request.
func RecordHTTPRequest(endpoint, status string, durationSeconds float64) {
	DefaultMetrics.HTTPRequestsTotal.WithLabelValues(endpoint, status).Inc()
	DefaultMetrics.HTTPRequestDuration.WithLabelValues(endpoint).Observe(durationSeconds)
}

// SetWSClients updates the connected event feed client gauge.
func SetWSClients(n int) {
	DefaultMetrics.WSClientsConnected.Set(float64(n))
}
