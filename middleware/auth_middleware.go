package middleware

import (
	"strings"

	config "github.com/anjiri1684/coderr/configs"
	"github.com/anjiri1684/coderr/database"
	"github.com/anjiri1684/coderr/models"
	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
)

const currentUserKey = "currentUser"

// Protected accepts "Authorization: Token <key>" and loads the key's owner.
func Protected() fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:     []byte(config.Config("JWT_SECRET")),
		AuthScheme:     "Token",
		SuccessHandler: resolveUser,
		ErrorHandler:   jwtError,
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	if strings.EqualFold(err.Error(), "missing or malformed JWT") {
		return c.Status(fiber.StatusUnauthorized).
			JSON(fiber.Map{"detail": "Authentication credentials were not provided."})
	}
	return c.Status(fiber.StatusUnauthorized).
		JSON(fiber.Map{"detail": "Invalid token."})
}

func resolveUser(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)

	user, err := UserForKey(token.Raw)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"detail": "Invalid token."})
	}
	c.Locals(currentUserKey, user)
	return c.Next()
}

// UserForKey returns the active user owning the stored key.
func UserForKey(key string) (*models.User, error) {
	if key == "" {
		return nil, fiber.ErrUnauthorized
	}
	var stored models.AuthToken
	if err := database.DB.Preload("User").Where(&models.AuthToken{Key: key}).First(&stored).Error; err != nil {
		return nil, err
	}
	if !stored.User.IsActive {
		return nil, fiber.ErrUnauthorized
	}
	return &stored.User, nil
}

// CurrentUser is only valid behind Protected.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(currentUserKey).(*models.User)
	return user
}

// RoleRequired rejects authenticated users whose role differs from role.
func RoleRequired(role, message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil || user.Role != role {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"detail": message})
		}
		return c.Next()
	}
}
