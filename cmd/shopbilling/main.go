package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
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
	if !env.SetupEnvFile() {
		fiberlog.Info("No .env file found, using process environment")
	}
	if env.IsDev() {
		fiberlog.SetLevel(fiberlog.LevelDebug)
	}
	if err := env.LoadConfig().Validate(); err != nil {
		log.Fatal(err)
	}

	database.SetupDatabase()
	repository.InitializeFactory(database.GetDB())
	if cache.Enabled() {
		cache.SetupCache()
	}

	if _, err := apidocs.Load(context.Background()); err != nil {
		log.Fatal(err)
	}

	// Define possible base paths
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/shopbilling to project root
		"../../../", // Fallback
	}

	// Find the correct base path
	basePath := ""
	for _, path := range basePaths {
		if _, err := os.Stat(path + "docs/openapi.yml"); !os.IsNotExist(err) {
			basePath = path
			break
		}
	}

	// init fiber app
	app := fiber.New(fiber.Config{
		Views:        views.NewEngine(),
		ErrorHandler: controllers.ErrorHandler,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// SWAGGER / OPENAPI
	app.Get(constants.DocsRoute+"/openapi.yml", apidocs.Handler())
	if basePath != "" {
		app.Use(swagger.New(swagger.Config{
			BasePath: constants.DocsRoute + "/api/",
			FilePath: basePath + "docs/openapi.yml",
			Path:     "v1",
		}))
	}

	// ROUTER
	router.InstallRouter(app)

	return app
}
