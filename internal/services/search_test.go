package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"canopy/backend/internal/models"
)

func seedSearchFixture(t *testing.T) (*memJobRepo, *memVectorIndex, SimilaritySearchService, *fakeGemini) {
	t.Helper()

	repo := newMemJobRepo()
	index := newMemVectorIndex(3)
	gemini := newFakeGemini(3)
	embedder := NewEmbedderService(repo, gemini, index, time.Minute)
	search := NewSimilaritySearchService(repo, embedder, index)
	return repo, index, search, gemini
}

func seedJob(t *testing.T, repo *memJobRepo, index *memVectorIndex, url, title string, vector []float32, scrapedAt time.Time) *models.Job {
	t.Helper()

	job := embeddableJob(url, title, "")
	job.ScrapedAt = scrapedAt
	require.NoError(t, repo.Insert(job))
	require.NoError(t, index.UpsertJob(context.Background(), job.ID, vector))
	return job
}

func TestTopK(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Should order by similarity and exclude the anchor", func(t *testing.T) {
		repo, index, search, _ := seedSearchFixture(t)

		anchor := seedJob(t, repo, index, "https://a.com/0", "ML Engineer", []float32{1, 0, 0}, base)
		close1 := seedJob(t, repo, index, "https://a.com/1", "ML Scientist", []float32{0.9, 0.1, 0}, base)
		far := seedJob(t, repo, index, "https://a.com/2", "Accountant", []float32{0, 1, 0}, base)

		results, err := search.TopK(context.Background(), []float32{1, 0, 0}, 5, anchor.ID)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, close1.ID, results[0].Job.ID)
		assert.Equal(t, far.ID, results[1].Job.ID)
		assert.Greater(t, results[0].Score, results[1].Score)
	})

	t.Run("Should drop duplicates from results", func(t *testing.T) {
		repo, index, search, _ := seedSearchFixture(t)

		canonical := seedJob(t, repo, index, "https://a.com/1", "ML Engineer", []float32{0.9, 0.1, 0}, base)
		dup := seedJob(t, repo, index, "https://b.com/1", "ML Engineer", []float32{1, 0, 0}, base)
		require.NoError(t, repo.MarkDuplicate(dup.ID, canonical.ID))

		results, err := search.TopK(context.Background(), []float32{1, 0, 0}, 5, "")
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, canonical.ID, results[0].Job.ID)
	})

	t.Run("Should break score ties by newer scraped_at", func(t *testing.T) {
		repo, index, search, _ := seedSearchFixture(t)

		older := seedJob(t, repo, index, "https://a.com/1", "ML Engineer", []float32{1, 0, 0}, base)
		newer := seedJob(t, repo, index, "https://a.com/2", "ML Engineer", []float32{1, 0, 0}, base.Add(time.Hour))

		results, err := search.TopK(context.Background(), []float32{1, 0, 0}, 5, "")
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, newer.ID, results[0].Job.ID)
		assert.Equal(t, older.ID, results[1].Job.ID)
	})

	t.Run("Should return fewer than k on a small corpus", func(t *testing.T) {
		repo, index, search, _ := seedSearchFixture(t)

		seedJob(t, repo, index, "https://a.com/1", "ML Engineer", []float32{1, 0, 0}, base)

		results, err := search.TopK(context.Background(), []float32{1, 0, 0}, 10, "")
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("Should return empty on an empty corpus", func(t *testing.T) {
		_, _, search, _ := seedSearchFixture(t)

		results, err := search.TopK(context.Background(), []float32{1, 0, 0}, 10, "")
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("Should return empty for non-positive k", func(t *testing.T) {
		_, _, search, _ := seedSearchFixture(t)

		results, err := search.TopK(context.Background(), []float32{1, 0, 0}, 0, "")
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("Should trim to k", func(t *testing.T) {
		repo, index, search, _ := seedSearchFixture(t)

		seedJob(t, repo, index, "https://a.com/1", "A", []float32{1, 0, 0}, base)
		seedJob(t, repo, index, "https://a.com/2", "B", []float32{0.8, 0.2, 0}, base)
		seedJob(t, repo, index, "https://a.com/3", "C", []float32{0.6, 0.4, 0}, base)

		results, err := search.TopK(context.Background(), []float32{1, 0, 0}, 2, "")
		require.NoError(t, err)
		assert.Len(t, results, 2)
	})
}

func TestSimilarToJob(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo, index, search, gemini := seedSearchFixture(t)

	gemini.embedFn = func(text string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}

	anchor := seedJob(t, repo, index, "https://a.com/0", "ML Engineer", []float32{1, 0, 0}, base)
	neighbor := seedJob(t, repo, index, "https://a.com/1", "ML Scientist", []float32{0.9, 0.1, 0}, base)

	results, err := search.SimilarToJob(context.Background(), anchor.ID, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, neighbor.ID, results[0].Job.ID)

	t.Run("Should error on an unknown job", func(t *testing.T) {
		_, err := search.SimilarToJob(context.Background(), "ffffffffffffffff", 5)
		require.Error(t, err)
	})

	t.Run("Should reuse the indexed vector for an embedded job", func(t *testing.T) {
		repo, index, search, gemini := seedSearchFixture(t)

		embedded := seedJob(t, repo, index, "https://b.com/0", "ML Engineer", []float32{1, 0, 0}, base)
		neighbor := seedJob(t, repo, index, "https://b.com/1", "ML Scientist", []float32{0.9, 0.1, 0}, base)
		require.NoError(t, repo.SetEmbedded(embedded.ID, TextHash(embedded.EmbeddingText()), base))

		gemini.embedFn = func(text string) ([]float32, error) {
			return nil, fmt.Errorf("provider must not be called")
		}

		results, err := search.SimilarToJob(context.Background(), embedded.ID, 5)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, neighbor.ID, results[0].Job.ID)
		assert.Equal(t, 0, gemini.embedCallCount())
	})
}

func TestSemanticSearch(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo, index, search, gemini := seedSearchFixture(t)

	gemini.embedFn = func(text string) ([]float32, error) {
		return []float32{0, 1, 0}, nil
	}

	ml := seedJob(t, repo, index, "https://a.com/1", "ML Engineer", []float32{1, 0, 0}, base)
	acct := seedJob(t, repo, index, "https://a.com/2", "Accountant", []float32{0, 1, 0}, base)

	results, err := search.SemanticSearch(context.Background(), "tax accounting roles", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, acct.ID, results[0].Job.ID)
	assert.Equal(t, ml.ID, results[1].Job.ID)
}
