package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"canopy/backend/internal/models"
	"canopy/backend/internal/repositories"
)

type JobHandler struct {
	jobRepo repositories.JobRepository
}

func NewJobHandler(jobRepo repositories.JobRepository) *JobHandler {
	return &JobHandler{
		jobRepo: jobRepo,
	}
}

// HandleListJobs returns a filtered, paginated page of jobs. Duplicates are
// hidden unless include_duplicates=true.
func (h *JobHandler) HandleListJobs(c *fiber.Ctx) error {
	filter := repositories.JobFilter{
		Status:            c.Query("status"),
		Source:            c.Query("source"),
		Company:           c.Query("company"),
		WorkType:          c.Query("work_type"),
		IncludeDuplicates: c.QueryBool("include_duplicates", false),
		Page:              c.QueryInt("page", 1),
		PageSize:          c.QueryInt("page_size", 20),
	}

	if filter.Status != "" && !models.ValidJobStatus(filter.Status) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid status filter",
		})
	}

	if minScore := c.QueryFloat("min_score", -1); minScore >= 0 {
		filter.MinScore = &minScore
	}

	jobs, total, err := h.jobRepo.List(filter)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(models.JobListResponse{
		Items:    jobs,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	})
}

// HandleSearchJobs runs an exact keyword search over title, company,
// description and requirements. Lexical only; vector search lives under
// /search/semantic.
func (h *JobHandler) HandleSearchJobs(c *fiber.Ctx) error {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "q query parameter is required",
		})
	}

	limit := c.QueryInt("limit", 20)
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	jobs, err := h.jobRepo.SearchKeyword(q, limit)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(models.JobListResponse{
		Items:    jobs,
		Total:    int64(len(jobs)),
		Page:     1,
		PageSize: limit,
	})
}

func (h *JobHandler) HandleGetJob(c *fiber.Ctx) error {
	job, err := h.jobRepo.FindByID(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(job)
}

// HandleUpdateJob patches the user-owned fields only: status and notes.
// Scraped fields never change through this endpoint.
func (h *JobHandler) HandleUpdateJob(c *fiber.Ctx) error {
	var req models.JobUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Status == nil && req.Notes == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Nothing to update: provide status or notes",
		})
	}

	var status *models.JobStatus
	if req.Status != nil {
		if !models.ValidJobStatus(*req.Status) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid status value",
			})
		}
		s := models.JobStatus(*req.Status)
		status = &s
	}

	job, err := h.jobRepo.UpdateUserFields(c.Params("id"), status, req.Notes)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(job)
}

func (h *JobHandler) HandleDeleteJob(c *fiber.Ctx) error {
	if err := h.jobRepo.Delete(c.Params("id")); err != nil {
		return respondError(c, err)
	}

	return c.JSON(models.MessageResponse{
		Message: "Job deleted",
	})
}
