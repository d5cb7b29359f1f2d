package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/ShopifyBilling/app/controllers"
	"github.com/ManuelReschke/ShopifyBilling/internal/pkg/constants"
	"github.com/ManuelReschke/ShopifyBilling/internal/pkg/env"
	"github.com/ManuelReschke/ShopifyBilling/internal/pkg/metrics"
	"github.com/ManuelReschke/ShopifyBilling/internal/pkg/middleware"
	"github.com/ManuelReschke/ShopifyBilling/internal/pkg/session"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// Apply ShopContext middleware globally as first middleware
	app.Use(middleware.ShopContextMiddleware(env.LoadConfig().APISecret))

	// Initialize billing controller with repositories, api client and cache
	controllers.InitializeBillingController()

	app.Get(constants.MetricsRoute, metrics.Handler())

	h.registerBillingRoutes(app)
	h.registerWebhookRoutes(app)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
