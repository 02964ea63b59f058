package main

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/TobiasKrahl/Velora/internal/pkg/cache"
	"github.com/TobiasKrahl/Velora/internal/pkg/checkout"
	"github.com/TobiasKrahl/Velora/internal/pkg/database"
	"github.com/TobiasKrahl/Velora/internal/pkg/env"
	"github.com/TobiasKrahl/Velora/internal/pkg/hook"
	"github.com/TobiasKrahl/Velora/internal/pkg/paypal"
	"github.com/TobiasKrahl/Velora/internal/pkg/router"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	// PayPal integration: hook into the checkout lifecycle and expose the
	// subscription agreement endpoints on the bus.
	client, err := paypal.NewClientFromEnv()
	if err != nil {
		log.Fatalf("paypal setup failed: %v", err)
	}
	svc := checkout.NewServiceFromDB(database.GetDB(), client, hook.Default())
	svc.RegisterHooks(hook.Default())
	svc.RegisterEndpoints(hook.Default())

	app := fiber.New(fiber.Config{})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", monitor.New())

	// ROUTER
	router.InstallRouter(app)

	return app
}
