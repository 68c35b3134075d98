package routes

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// apiPrefixes lists the mount points; every route is served under /api and at the root.
var apiPrefixes = []string{"/api", ""}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	log.Printf("[ERROR] %v | Path: %s | Method: %s", err, c.Path(), c.Method())
	return c.Status(code).JSON(fiber.Map{"detail": err.Error()})
}

// NewApp builds the HTTP application with middleware and every route mounted.
func NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:       "Coderr",
		CaseSensitive: true,
		StrictRouting: false,
		Immutable:     true,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  60 * time.Second,
		IdleTimeout:   60 * time.Second,
		BodyLimit:     10 * 1024 * 1024,
		ErrorHandler:  errorHandler,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Content-Disposition",
		MaxAge:        86400,
	}))
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	for _, prefix := range apiPrefixes {
		api := app.Group(prefix)
		AuthRoutes(api)
		PublicRoutes(api)
		OfferRoutes(api)
		OrderRoutes(api)
		ReviewRoutes(api)
		ProfileRoutes(api)
		UploadRoutes(api)
		RealtimeRoutes(api)
	}

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "Not found."})
	})

	return app
}
