// Package metrics holds the Prometheus collectors of the service and the gin
// middleware that records HTTP traffic.
package metrics

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "piggybank"

// Outcome labels for ledger operations.
const (
	OutcomeSuccess           = "success"
	OutcomeRejected          = "rejected"
	OutcomeInsufficientFunds = "insufficient_funds"
	OutcomeInconsistent      = "inconsistent"
	OutcomeError             = "error"
)

var requestCount = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "How many HTTP requests processed, partitioned by status code, method and route.",
	},
	[]string{"code", "method", "route"},
)

var requestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "The HTTP request latencies in seconds.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"code", "method", "route"},
)

var ledgerOperations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ledger_operations_total",
		Help:      "Ledger engine operations, partitioned by operation and outcome.",
	},
	[]string{"operation", "outcome"},
)

var ledgerVolume = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ledger_volume_cents_total",
		Help:      "Money moved by successful ledger operations, in cents.",
	},
	[]string{"operation"},
)

var reconciliationFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ledger_reconciliation_failures_total",
		Help:      "Compensating reversals that failed and need manual reconciliation.",
	},
	[]string{"operation"},
)

var interestBatchAccounts = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "interest_batch_accounts_total",
		Help:      "Accounts processed by interest batches, partitioned by result status.",
	},
	[]string{"status"},
)

var interestBatchDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "interest_batch_duration_seconds",
		Help:      "Wall time of interest batch runs.",
	},
)

var collectors = []prometheus.Collector{
	requestCount,
	requestDuration,
	ledgerOperations,
	ledgerVolume,
	reconciliationFailures,
	interestBatchAccounts,
	interestBatchDuration,
}

// Register registers all collectors with reg. Collectors that are already
// registered are left in place, so Register may be called once per router.
func Register(reg prometheus.Registerer) error {
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return fmt.Errorf("could not register %v with Prometheus: %w", c, err)
		}
	}
	return nil
}

// Unregister removes all collectors from reg.
func Unregister(reg prometheus.Registerer) bool {
	ok := true
	for _, c := range collectors {
		if !reg.Unregister(c) {
			ok = false
		}
	}
	return ok
}

// ObserveOperation counts one ledger operation with the given outcome.
func ObserveOperation(operation, outcome string) {
	ledgerOperations.WithLabelValues(operation, outcome).Inc()
}

// AddVolume adds the absolute value of cents to the moved-money counter.
func AddVolume(operation string, cents int64) {
	if cents < 0 {
		cents = -cents
	}
	ledgerVolume.WithLabelValues(operation).Add(float64(cents))
}

// ReconciliationFailure counts a failed compensation.
func ReconciliationFailure(operation string) {
	reconciliationFailures.WithLabelValues(operation).Inc()
}

// ObserveInterestAccount counts one account result of an interest batch.
func ObserveInterestAccount(status string) {
	interestBatchAccounts.WithLabelValues(status).Inc()
}

// ObserveInterestBatch records how long a batch took.
func ObserveInterestBatch(elapsed time.Duration) {
	interestBatchDuration.Observe(elapsed.Seconds())
}

// Middleware updates the HTTP request metrics.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		// route templates keep label cardinality bounded
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		requestDuration.WithLabelValues(status, c.Request.Method, route).Observe(time.Since(start).Seconds())
		requestCount.WithLabelValues(status, c.Request.Method, route).Inc()
	}
}
