package handlers

import (
	"github.com/gofiber/fiber/v2"

	"canopy/backend/internal/models"
	"canopy/backend/internal/repositories"
	"canopy/backend/internal/services"
)

type EmbeddingHandler struct {
	embedder      services.EmbedderService
	searchService services.SimilaritySearchService
	jobRepo       repositories.JobRepository
}

func NewEmbeddingHandler(
	embedder services.EmbedderService,
	searchService services.SimilaritySearchService,
	jobRepo repositories.JobRepository,
) *EmbeddingHandler {
	return &EmbeddingHandler{
		embedder:      embedder,
		searchService: searchService,
		jobRepo:       jobRepo,
	}
}

// HandleEmbedJob embeds one job. An unchanged text basis is reported as
// skipped rather than recomputed.
func (h *EmbeddingHandler) HandleEmbedJob(c *fiber.Ctx) error {
	skipped, err := h.embedder.EmbedJobByID(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	message := "Job embedded"
	if skipped {
		message = "Job text unchanged, embedding skipped"
	}
	return c.JSON(models.MessageResponse{Message: message})
}

// HandleEmbedAll embeds every canonical job that has no stored vector yet.
func (h *EmbeddingHandler) HandleEmbedAll(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 500)
	if limit < 1 || limit > 2000 {
		limit = 500
	}

	jobs, err := h.jobRepo.FindUnembedded(limit)
	if err != nil {
		return respondError(c, err)
	}

	embedded, skipped, failed := h.embedder.EmbedJobs(c.Context(), jobs)

	return c.JSON(models.EmbedAllResponse{
		Embedded: embedded,
		Skipped:  skipped,
		Failed:   failed,
	})
}

// HandleSimilarJobs returns the k stored jobs most similar to the given one,
// never including the job itself.
func (h *EmbeddingHandler) HandleSimilarJobs(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 10)
	if limit < 1 || limit > 50 {
		limit = 10
	}

	matches, err := h.searchService.SimilarToJob(c.Context(), c.Params("id"), limit)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(toSimilarJobsResponse(matches))
}
