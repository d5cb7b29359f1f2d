package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/ShopifyBilling/app/controllers"
	"github.com/ManuelReschke/ShopifyBilling/internal/pkg/constants"
	"github.com/ManuelReschke/ShopifyBilling/internal/pkg/middleware"
)

func (h HttpRouter) registerBillingRoutes(app *fiber.App) {
	bc := controllers.GetBillingController()

	billing := app.Group(constants.BillingRoute, middleware.RequireShop)
	// Return URL of the confirmation page
	billing.Get("/process/:plan", bc.HandleBillingProcess)
	// Signed usage charges posted by the embedding app
	billing.Post("/usage-charge", bc.HandleUsageCharge)
	billing.Get("/:plan?", bc.HandleBilling)
}

func (h HttpRouter) registerWebhookRoutes(app *fiber.App) {
	bc := controllers.GetBillingController()

	// Platform webhooks (signature-verified in controller)
	app.Post(constants.WebhookSubscriptionsRoute, bc.HandleAppSubscriptionWebhook)
}
