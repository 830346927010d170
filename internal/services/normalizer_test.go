package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTitle(t *testing.T) {
	t.Run("Should expand abbreviations and strip level markers", func(t *testing.T) {
		assert.Equal(t, "senior software engineer", NormalizeTitle("Sr. Software Engineer II"))
		assert.Equal(t, "machine learning engineer", NormalizeTitle("ML Engineer"))
		assert.Equal(t, "senior data science engineer", NormalizeTitle("Lead DS Engr."))
	})

	t.Run("Should fold diacritics", func(t *testing.T) {
		assert.Equal(t, "developpeur", NormalizeTitle("Développeur"))
	})

	t.Run("Should collapse punctuation and whitespace", func(t *testing.T) {
		assert.Equal(t, "backend developer", NormalizeTitle("  Back-End   Developer!  "))
	})

	t.Run("Should return empty for empty input", func(t *testing.T) {
		assert.Equal(t, "", NormalizeTitle(""))
	})
}

func TestNormalizeCompany(t *testing.T) {
	t.Run("Should strip legal suffixes and hyphens", func(t *testing.T) {
		assert.Equal(t, "heb", NormalizeCompany("H-E-B, Inc."))
		assert.Equal(t, "heb", NormalizeCompany("HEB"))
	})

	t.Run("Should drop generic corporate words", func(t *testing.T) {
		assert.Equal(t, "kroger", NormalizeCompany("The Kroger Co."))
		assert.Equal(t, "acme", NormalizeCompany("Acme Technologies LLC"))
	})

	t.Run("Should remove internal spaces entirely", func(t *testing.T) {
		assert.Equal(t, "bigdata", NormalizeCompany("Big Data"))
	})
}

func TestNormalizeLocation(t *testing.T) {
	t.Run("Should expand state abbreviations", func(t *testing.T) {
		assert.Equal(t, "austin texas", NormalizeLocation("Austin, TX"))
		assert.Equal(t, "austin texas", NormalizeLocation("Austin, TX, USA"))
	})

	t.Run("Should collapse remote variants", func(t *testing.T) {
		assert.Equal(t, "remote", NormalizeLocation("Remote (US)"))
		assert.Equal(t, "remote", NormalizeLocation("Remote - Anywhere"))
	})
}

func TestDedupKey(t *testing.T) {
	t.Run("Should be identical for equivalent listings", func(t *testing.T) {
		a := DedupKey("Sr. ML Engineer", "H-E-B Inc", "Austin, TX")
		b := DedupKey("Senior Machine Learning Engineer", "HEB", "Austin, Texas")
		assert.Equal(t, a, b)
	})

	t.Run("Should ignore generic remote locations", func(t *testing.T) {
		a := DedupKey("Platform Engineer", "Acme", "Remote")
		b := DedupKey("Platform Engineer", "Acme", "Remote - US")
		c := DedupKey("Platform Engineer", "Acme", "")
		assert.Equal(t, a, b)
		assert.Equal(t, a, c)
	})

	t.Run("Should differ when the company differs", func(t *testing.T) {
		a := DedupKey("Platform Engineer", "Acme", "Austin, TX")
		b := DedupKey("Platform Engineer", "Initech", "Austin, TX")
		assert.NotEqual(t, a, b)
	})

	t.Run("Should differ when the city differs", func(t *testing.T) {
		a := DedupKey("Platform Engineer", "Acme", "Austin, TX")
		b := DedupKey("Platform Engineer", "Acme", "Dallas, TX")
		assert.NotEqual(t, a, b)
	})

	t.Run("Should be 16 hex characters", func(t *testing.T) {
		assert.Len(t, DedupKey("a", "b", "c"), 16)
	})
}

func TestJobID(t *testing.T) {
	t.Run("Should be stable for the same URL", func(t *testing.T) {
		assert.Equal(t, JobID("https://example.com/jobs/1"), JobID("https://example.com/jobs/1"))
	})

	t.Run("Should differ per URL", func(t *testing.T) {
		assert.NotEqual(t, JobID("https://example.com/jobs/1"), JobID("https://example.com/jobs/2"))
	})

	t.Run("Should be 16 hex characters", func(t *testing.T) {
		assert.Len(t, JobID("https://example.com/jobs/1"), 16)
	})
}

func TestTitleSimilarity(t *testing.T) {
	t.Run("Should be 1 for identical titles", func(t *testing.T) {
		assert.Equal(t, 1.0, titleSimilarity("senior engineer", "senior engineer"))
	})

	t.Run("Should be 0 for empty input", func(t *testing.T) {
		assert.Equal(t, 0.0, titleSimilarity("", "senior engineer"))
	})

	t.Run("Should be high for near matches", func(t *testing.T) {
		sim := titleSimilarity("senior software engineer", "senior software engineers")
		assert.Greater(t, sim, 0.9)
	})

	t.Run("Should be low for unrelated titles", func(t *testing.T) {
		sim := titleSimilarity("accountant", "software engineer")
		assert.Less(t, sim, 0.5)
	})
}
