package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shopify_billing"

var (
	// ChargesCreated counts charges sent to the merchant for confirmation.
	ChargesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "charges_created_total",
		Help:      "Charges created and awaiting merchant confirmation.",
	}, []string{"type"})

	// ChargesActivated counts charges accepted and recorded locally.
	ChargesActivated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "charges_activated_total",
		Help:      "Charges activated after merchant confirmation.",
	}, []string{"type"})

	// ChargesAbandoned counts merchants returning without a charge id.
	ChargesAbandoned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "charges_abandoned_total",
		Help:      "Confirmations cancelled by the merchant.",
	})

	// ChargesDeclined counts charges the platform reported as not accepted.
	ChargesDeclined = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "charges_declined_total",
		Help:      "Charges that were declined or expired at activation.",
	}, []string{"status"})

	UsageChargesRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "usage_charges_recorded_total",
		Help:      "Usage charges recorded against a recurring charge.",
	})

	// SignatureFailures counts rejected signed requests by source.
	SignatureFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signature_failures_total",
		Help:      "Signed requests that failed verification.",
	}, []string{"source"})

	// APIErrors counts failed calls to the remote billing API by operation.
	APIErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_errors_total",
		Help:      "Failed billing API calls.",
	}, []string{"operation"})

	WebhooksReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webhooks_received_total",
		Help:      "Webhook deliveries by topic and outcome.",
	}, []string{"topic", "outcome"})
)

// Handler exposes the default registry for Fiber.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
