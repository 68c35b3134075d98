package routes

import (
	"github.com/anjiri1684/coderr/handlers"
	"github.com/anjiri1684/coderr/middleware"
	"github.com/gofiber/fiber/v2"
)

func UploadRoutes(api fiber.Router) {
	api.Get("/uploads/signature", middleware.Protected(), handlers.GenerateUploadSignature)
}
