package handlers

import (
	"context"
	"sync"

	"github.com/gofiber/fiber/v2"

	"canopy/backend/internal/models"
	"canopy/backend/internal/services"
)

type ScoreHandler struct {
	scorer services.ScorerService
	worker services.Worker
}

func NewScoreHandler(scorer services.ScorerService, worker services.Worker) *ScoreHandler {
	return &ScoreHandler{
		scorer: scorer,
		worker: worker,
	}
}

// HandleScoreJob scores one job synchronously and returns the fit result.
func (h *ScoreHandler) HandleScoreJob(c *fiber.Ctx) error {
	result, err := h.scorer.ScoreJob(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(result)
}

// HandleScoreBatch scores the requested jobs over the bounded worker pool and
// reports per-unit outcomes; one failing job never aborts its siblings.
func (h *ScoreHandler) HandleScoreBatch(c *fiber.Ctx) error {
	var req models.BatchScoreRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if len(req.JobIDs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "job_ids must not be empty",
		})
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		scored = []models.ScoredJob{}
		failed = []models.FailedJob{}
	)

	for _, jobID := range req.JobIDs {
		jobID := jobID
		wg.Add(1)
		submitted := h.worker.Submit(func(taskCtx context.Context) {
			defer wg.Done()

			result, err := h.scorer.ScoreJob(taskCtx, jobID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed = append(failed, models.FailedJob{JobID: jobID, Error: err.Error()})
				return
			}
			scored = append(scored, models.ScoredJob{
				JobID:     jobID,
				FitScore:  result.Score,
				Rationale: result.Rationale,
			})
		})
		if !submitted {
			wg.Done()
			mu.Lock()
			failed = append(failed, models.FailedJob{JobID: jobID, Error: "worker pool is shutting down"})
			mu.Unlock()
		}
	}
	wg.Wait()

	return c.JSON(models.BatchScoreResponse{
		Scored: scored,
		Failed: failed,
	})
}
