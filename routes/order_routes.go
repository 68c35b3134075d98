package routes

import (
	"github.com/anjiri1684/coderr/handlers"
	"github.com/anjiri1684/coderr/middleware"
	"github.com/anjiri1684/coderr/models"
	"github.com/gofiber/fiber/v2"
)

func OrderRoutes(api fiber.Router) {
	protected := middleware.Protected()

	orders := api.Group("/orders")
	orders.Get("", protected, handlers.GetOrders)
	orders.Post("", protected,
		middleware.RoleRequired(models.RoleCustomer, "Only customers can create orders."),
		handlers.CreateOrder)
	orders.Get("/:id/receipt", protected, handlers.GetOrderReceipt)
	orders.Get("/:id", protected, handlers.GetOrder)
	orders.Patch("/:id", protected, handlers.UpdateOrderStatus)
	orders.Delete("/:id", protected, handlers.DeleteOrder)

	api.Get("/order-count/:business_user_id?", protected, handlers.GetOrderCount)
	api.Get("/completed-order-count/:business_user_id?", protected, handlers.GetCompletedOrderCount)
}
