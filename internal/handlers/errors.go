package handlers

import (
	"github.com/gofiber/fiber/v2"

	"canopy/backend/internal/errs"
)

// respondError maps service-layer errors onto HTTP statuses: missing
// resources to 404, rejected input to 400, upstream provider failures to 502,
// everything else to 500.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errs.IsNotFound(err):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errs.IsValidation(err):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errs.IsExternal(err):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}
