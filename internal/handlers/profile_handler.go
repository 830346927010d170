package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"canopy/backend/internal/models"
	"canopy/backend/internal/services"
)

type ProfileHandler struct {
	profile services.ProfileService
}

func NewProfileHandler(profile services.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		profile: profile,
	}
}

func (h *ProfileHandler) HandleGetProfile(c *fiber.Ctx) error {
	profile, err := h.profile.Get()
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(profile)
}

// HandleUpdateProfile replaces the stored profile wholesale. Scores computed
// against the previous profile keep their values; rescoring is explicit.
func (h *ProfileHandler) HandleUpdateProfile(c *fiber.Ctx) error {
	var profile models.Profile
	if err := c.BodyParser(&profile); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if strings.TrimSpace(profile.Name) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Profile name is required",
		})
	}

	if err := h.profile.Save(&profile); err != nil {
		return respondError(c, err)
	}

	return c.JSON(profile)
}
