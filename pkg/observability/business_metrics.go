package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Featured-listing payment metrics
	paymentTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "featured_payment_transitions_total",
		Help: "Payment status transitions by gateway and source",
	}, []string{
		"gateway",
		"source", // initiate, callback, webhook, verify, refund
		"status", // processing, completed, failed, refunded
	})

	paymentRevenue = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "featured_payment_revenue_total",
		Help: "Completed featured-listing revenue in major currency units",
	}, []string{
		"gateway",
		"currency",
	})

	// Gateway call metrics
	gatewayRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_requests_total",
		Help: "Outbound payment gateway requests",
	}, []string{
		"gateway",
		"operation", // initiate, status, refund
		"outcome",   // ok, rejected, unavailable
	})

	gatewayRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_request_duration_seconds",
		Help:    "Outbound payment gateway request latency",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{
		"gateway",
		"operation",
	})

	// Inbound webhook metrics
	webhooksReceivedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_webhooks_received_total",
		Help: "Inbound gateway webhooks by result",
	}, []string{
		"gateway",
		"result", // applied, duplicate, invalid_signature, invalid_payload, error
	})

	featuredActivationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "featured_listing_activations_total",
		Help: "Featured listing windows activated, by plan duration",
	}, []string{
		"duration_days",
	})

	featuredExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "featured_listing_expired_total",
		Help: "Featured listing windows deactivated by the expiry sweep",
	})
)

// RecordPaymentTransition records a payment status change
func RecordPaymentTransition(gateway, source, status string) {
	paymentTransitionsTotal.WithLabelValues(gateway, source, status).Inc()
}

// RecordPaymentRevenue adds a completed payment amount
func RecordPaymentRevenue(gateway, currency string, amount float64) {
	paymentRevenue.WithLabelValues(gateway, currency).Add(amount)
}

// RecordGatewayRequest records one outbound provider call
func RecordGatewayRequest(gateway, operation, outcome string, durationSeconds float64) {
	gatewayRequestsTotal.WithLabelValues(gateway, operation, outcome).Inc()
	gatewayRequestDuration.WithLabelValues(gateway, operation).Observe(durationSeconds)
}

// RecordWebhook records an inbound webhook outcome
func RecordWebhook(gateway, result string) {
	webhooksReceivedTotal.WithLabelValues(gateway, result).Inc()
}

// RecordFeaturedActivation records a newly activated featured window
func RecordFeaturedActivation(durationDays string) {
	featuredActivationsTotal.WithLabelValues(durationDays).Inc()
}

// RecordFeaturedExpired records windows closed by the sweep
func RecordFeaturedExpired(count int64) {
	featuredExpiredTotal.Add(float64(count))
}
