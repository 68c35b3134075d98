package routes

import (
	"github.com/anjiri1684/coderr/handlers"
	"github.com/gofiber/fiber/v2"
)

func AuthRoutes(api fiber.Router) {
	api.Post("/registration", handlers.RegisterUser)
	api.Post("/login", handlers.LoginUser)
	api.Post("/Login", handlers.LoginUser)
}
