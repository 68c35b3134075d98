package routes

import (
	"github.com/anjiri1684/coderr/handlers"
	"github.com/anjiri1684/coderr/middleware"
	"github.com/gofiber/fiber/v2"
)

func ProfileRoutes(api fiber.Router) {
	protected := middleware.Protected()

	// business routes first so "business" is never taken as a ref
	api.Get("/profile/business", protected, handlers.FirstBusinessProfile)
	api.Get("/profile/business/:ref", protected, handlers.GetBusinessProfile)
	api.Patch("/profile/business/:ref", protected, handlers.UpdateBusinessProfile)
	api.Get("/profile/:ref", protected, handlers.GetProfile)
	api.Patch("/profile/:ref", protected, handlers.UpdateProfile)

	api.Get("/profiles/business", protected, handlers.GetBusinessProfiles)
	api.Get("/profiles/customer", protected, handlers.GetCustomerProfiles)
}
