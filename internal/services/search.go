package services

import (
	"context"
	"sort"

	"canopy/backend/internal/errs"
	"canopy/backend/internal/models"
	"canopy/backend/internal/repositories"
)

// Match pairs a job with its similarity score against the query.
type Match struct {
	Job   models.Job
	Score float32
}

type SimilaritySearchService interface {
	TopK(ctx context.Context, vector []float32, k int, excludeID string) ([]Match, error)
	SimilarToJob(ctx context.Context, jobID string, k int) ([]Match, error)
	SemanticSearch(ctx context.Context, query string, k int) ([]Match, error)
}

type similaritySearchService struct {
	jobRepo     repositories.JobRepository
	embedder    EmbedderService
	vectorIndex VectorIndexService
}

func NewSimilaritySearchService(
	jobRepo repositories.JobRepository,
	embedder EmbedderService,
	vectorIndex VectorIndexService,
) SimilaritySearchService {
	return &similaritySearchService{
		jobRepo:     jobRepo,
		embedder:    embedder,
		vectorIndex: vectorIndex,
	}
}

// TopK returns up to k jobs ordered by descending cosine similarity, ties
// broken by more recent scraped_at. Duplicates and the excluded id never
// appear. A corpus smaller than k just yields fewer results, never an
// error.
func (s *similaritySearchService) TopK(ctx context.Context, vector []float32, k int, excludeID string) ([]Match, error) {
	if k <= 0 {
		return []Match{}, nil
	}

	// Over-fetch: some hits are dropped below (duplicates, rows deleted
	// since indexing).
	matches, err := s.vectorIndex.Query(ctx, vector, k*2+8, excludeID)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return []Match{}, nil
	}

	ids := make([]string, 0, len(matches))
	scores := make(map[string]float32, len(matches))
	for _, m := range matches {
		ids = append(ids, m.JobID)
		scores[m.JobID] = m.Score
	}

	jobs, err := s.jobRepo.FindByIDs(ids)
	if err != nil {
		return nil, err
	}

	results := make([]Match, 0, k)
	for i := range jobs {
		job := jobs[i]
		if job.ID == excludeID || !job.IsCanonical() {
			continue
		}
		results = append(results, Match{Job: job, Score: scores[job.ID]})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Job.ScrapedAt.After(results[j].Job.ScrapedAt)
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// SimilarToJob finds the k nearest neighbors of an existing job, excluding
// the job itself. An already-embedded job reuses its indexed vector; the
// provider is only called when no point exists yet.
func (s *similaritySearchService) SimilarToJob(ctx context.Context, jobID string, k int) ([]Match, error) {
	job, err := s.jobRepo.FindByID(jobID)
	if err != nil {
		return nil, err
	}

	var vector []float32
	if job.EmbeddingHash != nil {
		vector, err = s.vectorIndex.FetchVector(ctx, job.ID)
		if err != nil && !errs.IsNotFound(err) {
			return nil, err
		}
	}
	if vector == nil {
		vector, err = s.embedder.EmbedText(ctx, job.EmbeddingText())
		if err != nil {
			return nil, err
		}
	}

	return s.TopK(ctx, vector, k, job.ID)
}

// SemanticSearch embeds free text and ranks the corpus against it.
func (s *similaritySearchService) SemanticSearch(ctx context.Context, query string, k int) ([]Match, error) {
	vector, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, err
	}

	return s.TopK(ctx, vector, k, "")
}
