package routes

import (
	"github.com/anjiri1684/coderr/handlers"
	"github.com/anjiri1684/coderr/middleware"
	"github.com/gofiber/fiber/v2"
)

func ReviewRoutes(api fiber.Router) {
	reviews := api.Group("/reviews")
	protected := middleware.Protected()

	reviews.Get("", protected, handlers.GetReviews)
	reviews.Post("", protected, handlers.CreateReview)
	reviews.Get("/:id", protected, handlers.GetReview)
	reviews.Patch("/:id", protected, handlers.UpdateReview)
	reviews.Delete("/:id", protected, handlers.DeleteReview)
}
