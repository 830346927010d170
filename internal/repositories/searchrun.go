package repositories

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"canopy/backend/internal/errs"
	"canopy/backend/internal/models"
)

type SearchRunRepository interface {
	Create(run *models.SearchRun) error
	FindByID(id uuid.UUID) (*models.SearchRun, error)
	FindRecent(limit int) ([]models.SearchRun, error)
}

type searchRunRepository struct {
	db *gorm.DB
}

func NewSearchRunRepository(db *gorm.DB) SearchRunRepository {
	return &searchRunRepository{db: db}
}

func (r *searchRunRepository) Create(run *models.SearchRun) error {
	if err := r.db.Create(run).Error; err != nil {
		return fmt.Errorf("failed to create search run: %w", err)
	}
	return nil
}

func (r *searchRunRepository) FindByID(id uuid.UUID) (*models.SearchRun, error) {
	var run models.SearchRun
	if err := r.db.Where("id = ?", id).First(&run).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find search run: %w", err)
	}
	return &run, nil
}

func (r *searchRunRepository) FindRecent(limit int) ([]models.SearchRun, error) {
	var runs []models.SearchRun
	err := r.db.
		Order("run_at DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list search runs: %w", err)
	}
	return runs, nil
}
