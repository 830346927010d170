package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"canopy/backend/internal/errs"
	"canopy/backend/internal/models"
)

// ProfileService owns the user profile document on disk. The profile is
// read-only input to the pipeline; only the profile endpoints write it.
type ProfileService interface {
	Get() (*models.Profile, error)
	Save(profile *models.Profile) error
	EnsureDataDir() error
}

type profileService struct {
	path string
	mu   sync.RWMutex
}

func NewProfileService(path string) ProfileService {
	return &profileService{path: path}
}

func (s *profileService) EnsureDataDir() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

// Get returns a fresh copy of the profile; callers can't mutate shared state
// through it.
func (s *profileService) Get() (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("profile %s: %w", s.path, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	var profile models.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}

	return &profile, nil
}

func (s *profileService) Save(profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}

	return nil
}
