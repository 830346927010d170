package repositories

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"canopy/backend/internal/errs"
	"canopy/backend/internal/models"
)

type JobFilter struct {
	Status            string
	Source            string
	Company           string
	WorkType          string
	MinScore          *float64
	IncludeDuplicates bool
	Page              int
	PageSize          int
}

type JobRepository interface {
	Insert(job *models.Job) error
	RefreshScraped(job *models.Job) error
	FindByID(id string) (*models.Job, error)
	FindByIDs(ids []string) ([]models.Job, error)
	FindCanonicalByKey(key string) ([]models.Job, error)
	FindRecentCanonicals(limit int) ([]models.Job, error)
	List(filter JobFilter) ([]models.Job, int64, error)
	SearchKeyword(query string, limit int) ([]models.Job, error)
	UpdateUserFields(id string, status *models.JobStatus, notes *string) (*models.Job, error)
	UpdateScore(id string, score float64, rationale string) error
	MarkScoreFailed(id string, reason string) error
	MarkDuplicate(id, canonicalID string) error
	RepointDuplicates(oldCanonicalID, newCanonicalID string) error
	SetEmbedded(id, textHash string, at time.Time) error
	FindUnembedded(limit int) ([]models.Job, error)
	Delete(id string) error
}

type jobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepository{db: db}
}

func (r *jobRepository) Insert(job *models.Job) error {
	if err := r.db.Create(job).Error; err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// RefreshScraped updates scraped metadata only. User-owned fields (status,
// notes) and computed fields (fit_score, fit_rationale, embedding metadata)
// are never touched, so re-ingesting a known URL preserves them.
func (r *jobRepository) RefreshScraped(job *models.Job) error {
	updates := map[string]interface{}{
		"title":        job.Title,
		"company":      job.Company,
		"location":     job.Location,
		"work_type":    job.WorkType,
		"salary_min":   job.SalaryMin,
		"salary_max":   job.SalaryMax,
		"description":  job.Description,
		"requirements": job.Requirements,
		"posted_date":  job.PostedDate,
		"scraped_at":   job.ScrapedAt,
		"source":       job.Source,
		"dedup_key":    job.DedupKey,
		"updated_at":   time.Now(),
	}

	result := r.db.Model(&models.Job{}).Where("id = ?", job.ID).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to refresh job: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *jobRepository) FindByID(id string) (*models.Job, error) {
	var job models.Job
	if err := r.db.Where("id = ?", id).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find job: %w", err)
	}
	return &job, nil
}

func (r *jobRepository) FindByIDs(ids []string) ([]models.Job, error) {
	var jobs []models.Job
	if err := r.db.Where("id IN ?", ids).Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("failed to find jobs: %w", err)
	}
	return jobs, nil
}

// FindCanonicalByKey returns non-archived canonical jobs sharing a dedup key.
// There should be at most one; the slice shape lets the deduplicator repair
// older data that predates per-key serialization.
func (r *jobRepository) FindCanonicalByKey(key string) ([]models.Job, error) {
	var jobs []models.Job
	err := r.db.
		Where("dedup_key = ? AND duplicate_of IS NULL AND status <> ?", key, models.JobStatusArchived).
		Order("scraped_at ASC, id ASC").
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find jobs by dedup key: %w", err)
	}
	return jobs, nil
}

func (r *jobRepository) FindRecentCanonicals(limit int) ([]models.Job, error) {
	var jobs []models.Job
	err := r.db.
		Where("duplicate_of IS NULL AND status <> ?", models.JobStatusArchived).
		Order("scraped_at DESC").
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find recent canonicals: %w", err)
	}
	return jobs, nil
}

func (r *jobRepository) List(filter JobFilter) ([]models.Job, int64, error) {
	query := r.db.Model(&models.Job{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Source != "" {
		query = query.Where("source = ?", filter.Source)
	}
	if filter.Company != "" {
		query = query.Where("company ILIKE ?", "%"+filter.Company+"%")
	}
	if filter.WorkType != "" {
		query = query.Where("work_type = ?", filter.WorkType)
	}
	if filter.MinScore != nil {
		query = query.Where("fit_score >= ?", *filter.MinScore)
	}
	if !filter.IncludeDuplicates {
		query = query.Where("duplicate_of IS NULL")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count jobs: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	var jobs []models.Job
	err := query.
		Order("scraped_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&jobs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list jobs: %w", err)
	}

	return jobs, total, nil
}

// SearchKeyword runs a lexical substring search over title, company,
// description and requirements. Canonical rows only, newest first. Exact
// keyword retrieval; the semantic path is a separate endpoint.
func (r *jobRepository) SearchKeyword(query string, limit int) ([]models.Job, error) {
	like := "%" + query + "%"

	var jobs []models.Job
	err := r.db.
		Where("duplicate_of IS NULL").
		Where("title ILIKE ? OR company ILIKE ? OR description ILIKE ? OR requirements ILIKE ?",
			like, like, like, like).
		Order("scraped_at DESC").
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search jobs: %w", err)
	}
	return jobs, nil
}

func (r *jobRepository) UpdateUserFields(id string, status *models.JobStatus, notes *string) (*models.Job, error) {
	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if status != nil {
		updates["status"] = *status
	}
	if notes != nil {
		updates["notes"] = *notes
	}

	result := r.db.Model(&models.Job{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update job: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, errs.ErrNotFound
	}

	return r.FindByID(id)
}

func (r *jobRepository) UpdateScore(id string, score float64, rationale string) error {
	result := r.db.Model(&models.Job{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"fit_score":     score,
			"fit_rationale": rationale,
			"score_status":  models.ScoreStatusScored,
			"updated_at":    time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update score: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// MarkScoreFailed flags the job after retries are exhausted. The fit score
// stays null so the job can be retried later.
func (r *jobRepository) MarkScoreFailed(id string, reason string) error {
	result := r.db.Model(&models.Job{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"score_status":  models.ScoreStatusFailed,
			"fit_rationale": reason,
			"updated_at":    time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to mark score failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *jobRepository) MarkDuplicate(id, canonicalID string) error {
	result := r.db.Model(&models.Job{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"duplicate_of": canonicalID,
			"updated_at":   time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to mark duplicate: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// RepointDuplicates moves every duplicate of oldCanonicalID (and the old
// canonical itself) under newCanonicalID, keeping reference chains at length
// one.
func (r *jobRepository) RepointDuplicates(oldCanonicalID, newCanonicalID string) error {
	err := r.db.Model(&models.Job{}).
		Where("duplicate_of = ?", oldCanonicalID).
		Updates(map[string]interface{}{
			"duplicate_of": newCanonicalID,
			"updated_at":   time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to repoint duplicates: %w", err)
	}

	return r.MarkDuplicate(oldCanonicalID, newCanonicalID)
}

func (r *jobRepository) SetEmbedded(id, textHash string, at time.Time) error {
	result := r.db.Model(&models.Job{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"embedding_hash": textHash,
			"embedded_at":    at,
			"updated_at":     time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to set embedding metadata: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *jobRepository) FindUnembedded(limit int) ([]models.Job, error) {
	var jobs []models.Job
	query := r.db.
		Where("embedding_hash IS NULL AND duplicate_of IS NULL").
		Order("scraped_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("failed to find unembedded jobs: %w", err)
	}
	return jobs, nil
}

func (r *jobRepository) Delete(id string) error {
	result := r.db.Where("id = ?", id).Delete(&models.Job{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete job: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}
