package handlers

import (
	"github.com/anjiri1684/coderr/database"
	"github.com/anjiri1684/coderr/services"
	"github.com/gofiber/fiber/v2"
)

// GetBaseInfo is public and backs the landing page counters.
func GetBaseInfo(c *fiber.Ctx) error {
	info, err := services.PlatformStats(database.DB)
	if err != nil {
		return serverError(c, "collect platform stats", err)
	}
	return c.JSON(info)
}
