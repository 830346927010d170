package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"canopy/backend/internal/models"
	"canopy/backend/internal/repositories"
	"canopy/backend/internal/services"
)

type SearchHandler struct {
	orchestrator    services.OrchestratorService
	searchService   services.SimilaritySearchService
	runRepo         repositories.SearchRunRepository
	defaultSources  []string
	defaultMaxPages int
}

func NewSearchHandler(
	orchestrator services.OrchestratorService,
	searchService services.SimilaritySearchService,
	runRepo repositories.SearchRunRepository,
	defaultSources []string,
	defaultMaxPages int,
) *SearchHandler {
	return &SearchHandler{
		orchestrator:    orchestrator,
		searchService:   searchService,
		runRepo:         runRepo,
		defaultSources:  defaultSources,
		defaultMaxPages: defaultMaxPages,
	}
}

// HandleRunSearch triggers one synchronous search run across the requested
// sources and returns the persisted run record.
func (h *SearchHandler) HandleRunSearch(c *fiber.Ctx) error {
	var req models.RunSearchRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}
	}

	sources := h.defaultSources
	if req.Sources != "" {
		sources = splitSources(req.Sources)
	}
	if len(sources) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No sources configured or requested",
		})
	}

	maxPages := req.MaxPages
	if maxPages < 1 {
		maxPages = h.defaultMaxPages
	}

	params := services.RunParams{
		Sources:   sources,
		Location:  req.Location,
		Keywords:  req.Keywords,
		MaxPages:  maxPages,
		AutoScore: req.AutoScore == nil || *req.AutoScore,
		AutoEmbed: req.AutoEmbed == nil || *req.AutoEmbed,
	}

	run, err := h.orchestrator.Run(c.Context(), params)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(run)
}

func (h *SearchHandler) HandleListRuns(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	runs, err := h.runRepo.FindRecent(limit)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"items": runs,
	})
}

// HandleSemanticSearch ranks stored jobs against a free-text query by vector
// similarity.
func (h *SearchHandler) HandleSemanticSearch(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Query parameter 'q' is required",
		})
	}

	limit := c.QueryInt("limit", 10)
	if limit < 1 || limit > 50 {
		limit = 10
	}

	matches, err := h.searchService.SemanticSearch(c.Context(), query, limit)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(toSimilarJobsResponse(matches))
}

func splitSources(raw string) []string {
	var sources []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			sources = append(sources, trimmed)
		}
	}
	return sources
}

func toSimilarJobsResponse(matches []services.Match) models.SimilarJobsResponse {
	items := make([]models.SimilarJob, 0, len(matches))
	for _, match := range matches {
		items = append(items, models.SimilarJob{
			Job:   match.Job,
			Score: match.Score,
		})
	}
	return models.SimilarJobsResponse{Items: items}
}
