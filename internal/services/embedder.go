package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"canopy/backend/internal/models"
	"canopy/backend/internal/repositories"
)

// embedWordLimit bounds the text sent to the provider, mirroring its token
// limits.
const embedWordLimit = 256

type EmbedderService interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedJob(ctx context.Context, job *models.Job) (skipped bool, err error)
	EmbedJobByID(ctx context.Context, jobID string) (skipped bool, err error)
	EmbedJobs(ctx context.Context, jobs []models.Job) (embedded, skippedCount int, failed []models.FailedJob)
}

type embedderService struct {
	jobRepo       repositories.JobRepository
	geminiService GeminiService
	vectorIndex   VectorIndexService
	callTimeout   time.Duration
}

func NewEmbedderService(
	jobRepo repositories.JobRepository,
	geminiService GeminiService,
	vectorIndex VectorIndexService,
	callTimeout time.Duration,
) EmbedderService {
	return &embedderService{
		jobRepo:       jobRepo,
		geminiService: geminiService,
		vectorIndex:   vectorIndex,
		callTimeout:   callTimeout,
	}
}

// EmbedText computes the vector for arbitrary text. The provider is
// deterministic for a fixed model version, so identical text always yields
// the identical vector.
func (e *embedderService) EmbedText(ctx context.Context, text string) ([]float32, error) {
	callCtx := ctx
	if e.callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.callTimeout)
		defer cancel()
	}

	vector, err := e.geminiService.GenerateEmbeddingWithRetry(callCtx, truncateWords(text, embedWordLimit))
	if err != nil {
		return nil, err
	}

	if len(vector) != e.vectorIndex.VectorSize() {
		return nil, fmt.Errorf("provider returned %d dimensions, expected %d",
			len(vector), e.vectorIndex.VectorSize())
	}

	return vector, nil
}

// EmbedJob embeds the job's text basis (title + description + requirements)
// and stores the vector. When the stored hash matches the current text the
// provider call is skipped entirely: content unchanged means vector
// unchanged. A job with no description still gets a vector over whatever
// text it has.
func (e *embedderService) EmbedJob(ctx context.Context, job *models.Job) (bool, error) {
	text := job.EmbeddingText()
	hash := TextHash(text)

	if job.EmbeddingHash != nil && *job.EmbeddingHash == hash {
		return true, nil
	}

	vector, err := e.EmbedText(ctx, text)
	if err != nil {
		return false, err
	}

	if err := e.vectorIndex.UpsertJob(ctx, job.ID, vector); err != nil {
		return false, err
	}

	if err := e.jobRepo.SetEmbedded(job.ID, hash, time.Now()); err != nil {
		return false, err
	}

	return false, nil
}

func (e *embedderService) EmbedJobByID(ctx context.Context, jobID string) (bool, error) {
	job, err := e.jobRepo.FindByID(jobID)
	if err != nil {
		return false, err
	}
	return e.EmbedJob(ctx, job)
}

// EmbedJobs embeds a batch with per-unit outcomes; one failing job never
// aborts the rest.
func (e *embedderService) EmbedJobs(ctx context.Context, jobs []models.Job) (int, int, []models.FailedJob) {
	var embedded, skipped int
	failed := []models.FailedJob{}

	for i := range jobs {
		job := &jobs[i]
		wasSkipped, err := e.EmbedJob(ctx, job)
		if err != nil {
			log.Printf("⚠️  Failed to embed job %s: %v\n", job.ID, err)
			failed = append(failed, models.FailedJob{JobID: job.ID, Error: err.Error()})
			continue
		}
		if wasSkipped {
			skipped++
		} else {
			embedded++
		}
	}

	return embedded, skipped, failed
}

func truncateWords(text string, limit int) string {
	words := strings.Fields(text)
	if len(words) <= limit {
		return text
	}
	return strings.Join(words[:limit], " ")
}
