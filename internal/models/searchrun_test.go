package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchRunErrors(t *testing.T) {
	run := &SearchRun{ID: uuid.New(), RunAt: time.Now()}

	t.Run("Should round-trip the error list", func(t *testing.T) {
		run.SetErrors([]string{"alpha: timeout", "beta: 500"})
		assert.Equal(t, []string{"alpha: timeout", "beta: 500"}, run.ErrorList())
	})

	t.Run("Should decode an empty list", func(t *testing.T) {
		run.SetErrors(nil)
		assert.Empty(t, run.ErrorList())
	})

	t.Run("Should inline errors in the JSON shape", func(t *testing.T) {
		run.SetSources([]string{"alpha", "beta"})
		run.SetErrors([]string{"alpha: timeout"})

		data, err := json.Marshal(run)
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, []any{"alpha: timeout"}, decoded["errors"])
		assert.Equal(t, "alpha,beta", decoded["sources"])
	})
}

func TestJobEmbeddingText(t *testing.T) {
	job := &Job{Title: "ML Engineer", Description: "Build models.", Requirements: "Python."}
	assert.Equal(t, "ML Engineer Build models. Python.", job.EmbeddingText())

	t.Run("Should skip empty segments", func(t *testing.T) {
		job := &Job{Title: "ML Engineer"}
		assert.Equal(t, "ML Engineer", job.EmbeddingText())
	})
}

func TestSourceList(t *testing.T) {
	run := &SearchRun{}
	assert.Empty(t, run.SourceList())

	run.SetSources([]string{"alpha", "beta"})
	assert.Equal(t, []string{"alpha", "beta"}, run.SourceList())
}
