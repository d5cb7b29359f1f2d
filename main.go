package main

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ManuelReschke/ShopifyBilling/app/controllers"
	"github.com/ManuelReschke/ShopifyBilling/app/repository"
	"github.com/ManuelReschke/ShopifyBilling/internal/pkg/apidocs"
	"github.com/ManuelReschke/ShopifyBilling/internal/pkg/cache"
	"github.com/ManuelReschke/ShopifyBilling/internal/pkg/constants"
	"github.com/ManuelReschke/ShopifyBilling/internal/pkg/database"
	"github.com/ManuelReschke/ShopifyBilling/internal/pkg/env"
	"github.com/ManuelReschke/ShopifyBilling/internal/pkg/router"
	"github.com/ManuelReschke/ShopifyBilling/views"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	repository.InitializeFactory(database.GetDB())
	if cache.Enabled() {
		cache.SetupCache()
	}

	app := fiber.New(fiber.Config{
		Views:        views.NewEngine(),
		ErrorHandler: controllers.ErrorHandler,
	})
	app.Use(recover.New(), logger.New())
	app.Get(constants.DocsRoute+"/openapi.yml", apidocs.Handler())

	// ROUTER
	router.InstallRouter(app)

	return app
}
