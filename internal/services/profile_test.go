package services

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"canopy/backend/internal/errs"
)

func TestProfileService(t *testing.T) {
	t.Run("Should round-trip a saved profile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "data", "profile.json")
		svc := NewProfileService(path)
		require.NoError(t, svc.EnsureDataDir())

		profile := testProfile()
		require.NoError(t, svc.Save(profile))

		loaded, err := svc.Get()
		require.NoError(t, err)
		assert.Equal(t, profile.Name, loaded.Name)
		assert.Equal(t, profile.Dealbreakers, loaded.Dealbreakers)
		assert.Equal(t, profile.Skills.Languages, loaded.Skills.Languages)
	})

	t.Run("Should report not-found when no profile exists", func(t *testing.T) {
		svc := NewProfileService(filepath.Join(t.TempDir(), "missing.json"))

		_, err := svc.Get()
		require.Error(t, err)
		assert.True(t, errs.IsNotFound(err))
	})
}
