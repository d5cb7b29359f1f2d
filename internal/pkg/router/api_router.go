package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ManuelReschke/ShopifyBilling/app/repository"
	apiv1 "github.com/ManuelReschke/ShopifyBilling/internal/api/v1"
	"github.com/ManuelReschke/ShopifyBilling/internal/pkg/constants"
	"github.com/ManuelReschke/ShopifyBilling/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group(constants.APIRoute, limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// API v1 routes
	v1 := api.Group("/v1")
	apiServer := apiv1.NewAPIServer(repository.GetGlobalFactory().GetRepositories())
	apiv1.RegisterHandlers(v1, apiServer, middleware.RequireAuthenticatedShop)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
