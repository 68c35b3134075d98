package routes

import (
	"github.com/anjiri1684/coderr/handlers"
	"github.com/gofiber/fiber/v2"
)

func PublicRoutes(api fiber.Router) {
	api.Get("/base-info", handlers.GetBaseInfo)
}
