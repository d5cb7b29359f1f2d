package constants

// Static route constants
const (
	BillingRoute              = "/billing"
	BillingProcessRoute       = "/billing/process"
	WebhookSubscriptionsRoute = "/webhooks/app-subscriptions-update"
	APIRoute                  = "/api"
	MetricsRoute              = "/metrics"
	DocsRoute                 = "/docs"
)
