package handlers

import (
	"errors"

	"github.com/anjiri1684/coderr/media"
	"github.com/gofiber/fiber/v2"
)

// GenerateUploadSignature signs a direct browser upload into the profile folder.
func GenerateUploadSignature(c *fiber.Ctx) error {
	signature, err := media.SignUpload(media.ProfileFolder)
	if err != nil {
		if errors.Is(err, media.ErrNotConfigured) {
			return detail(c, fiber.StatusServiceUnavailable, "File uploads are not configured.")
		}
		return serverError(c, "sign upload params", err)
	}
	return c.JSON(signature)
}
