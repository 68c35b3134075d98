package routes

import (
	"github.com/anjiri1684/coderr/handlers"
	"github.com/anjiri1684/coderr/middleware"
	"github.com/anjiri1684/coderr/models"
	"github.com/gofiber/fiber/v2"
)

func OfferRoutes(api fiber.Router) {
	protected := middleware.Protected()

	offers := api.Group("/offers")
	offers.Get("", handlers.GetOffers)
	offers.Post("", protected,
		middleware.RoleRequired(models.RoleBusiness, "Only business users can create offers."),
		handlers.CreateOffer)
	offers.Get("/:id", protected, handlers.GetOffer)
	offers.Patch("/:id", protected, handlers.UpdateOffer)
	offers.Delete("/:id", protected, handlers.DeleteOffer)

	api.Get("/offerdetails/:id", protected, handlers.GetOfferDetail)
}
