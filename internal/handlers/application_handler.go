package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"canopy/backend/internal/models"
	"canopy/backend/internal/repositories"
)

type ApplicationHandler struct {
	appRepo repositories.ApplicationRepository
	jobRepo repositories.JobRepository
}

func NewApplicationHandler(appRepo repositories.ApplicationRepository, jobRepo repositories.JobRepository) *ApplicationHandler {
	return &ApplicationHandler{
		appRepo: appRepo,
		jobRepo: jobRepo,
	}
}

// HandleCreateApplication stores generated application material for a job.
func (h *ApplicationHandler) HandleCreateApplication(c *fiber.Ctx) error {
	var req models.ApplicationCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.JobID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "job_id is required",
		})
	}

	tone := models.CoverTone(req.CoverTone)
	if req.CoverTone == "" {
		tone = models.CoverToneProfessional
	} else if !validCoverTone(tone) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid cover_tone value",
		})
	}

	// The job must exist before material can be attached to it.
	if _, err := h.jobRepo.FindByID(req.JobID); err != nil {
		return respondError(c, err)
	}

	app := &models.Application{
		ID:               uuid.New(),
		JobID:            req.JobID,
		TailoredResume:   req.TailoredResume,
		ResumeHighlights: req.ResumeHighlights,
		CoverLetter:      req.CoverLetter,
		CoverTone:        tone,
		CreatedAt:        time.Now(),
	}

	if err := h.appRepo.Create(app); err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(app)
}

func (h *ApplicationHandler) HandleGetApplication(c *fiber.Ctx) error {
	appID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid application ID format",
		})
	}

	app, err := h.appRepo.FindByID(appID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(app)
}

func (h *ApplicationHandler) HandleListJobApplications(c *fiber.Ctx) error {
	apps, err := h.appRepo.FindByJobID(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"items": apps,
	})
}

func validCoverTone(tone models.CoverTone) bool {
	switch tone {
	case models.CoverToneProfessional, models.CoverToneEnthusiastic, models.CoverToneCasual:
		return true
	}
	return false
}
