// Package metrics provides Prometheus metrics for the marketplace integration.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PublishTotal counts draft publish attempts by result.
	PublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "partstock",
			Subsystem: "olx",
			Name:      "publish_total",
			Help:      "Total number of draft publish attempts",
		},
		[]string{"result"},
	)

	// RequestsTotal counts outbound marketplace calls by operation and HTTP code.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "partstock",
			Subsystem: "olx",
			Name:      "requests_total",
			Help:      "Total number of marketplace API requests",
		},
		[]string{"op", "code"},
	)

	// RequestDuration measures outbound marketplace call latency.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "partstock",
			Subsystem: "olx",
			Name:      "request_duration_seconds",
			Help:      "Duration of marketplace API requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	// TokenAcquisitions counts token grants by token type and outcome.
	TokenAcquisitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "partstock",
			Subsystem: "olx",
			Name:      "token_acquisitions_total",
			Help:      "Total number of OAuth token acquisitions and refreshes",
		},
		[]string{"token_type", "grant", "outcome"},
	)

	// ReconcileTotal counts local listings visited by a status refresh.
	ReconcileTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "partstock",
			Subsystem: "olx",
			Name:      "reconcile_listings_total",
			Help:      "Local listings processed by status refresh, by outcome",
		},
		[]string{"outcome"},
	)
)

// RecordRequest records one outbound marketplace call.
func RecordRequest(op, code string, seconds float64) {
	RequestsTotal.WithLabelValues(op, code).Inc()
	RequestDuration.WithLabelValues(op).Observe(seconds)
}

// RecordPublish records the outcome of one draft.
func RecordPublish(success bool) {
	if success {
		PublishTotal.WithLabelValues("success").Inc()
		return
	}
	PublishTotal.WithLabelValues("failure").Inc()
}

// RecordToken records a token grant attempt.
func RecordToken(tokenType, grant string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	TokenAcquisitions.WithLabelValues(tokenType, grant, outcome).Inc()
}

// RecordReconcile adds n listings to an outcome bucket.
func RecordReconcile(outcome string, n int) {
	if n <= 0 {
		return
	}
	ReconcileTotal.WithLabelValues(outcome).Add(float64(n))
}
