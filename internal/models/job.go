package models

import (
	"time"
)

type JobStatus string

const (
	JobStatusNew      JobStatus = "new"
	JobStatusReviewed JobStatus = "reviewed"
	JobStatusApplied  JobStatus = "applied"
	JobStatusRejected JobStatus = "rejected"
	JobStatusArchived JobStatus = "archived"
)

func ValidJobStatus(s string) bool {
	switch JobStatus(s) {
	case JobStatusNew, JobStatusReviewed, JobStatusApplied, JobStatusRejected, JobStatusArchived:
		return true
	}
	return false
}

type WorkType string

const (
	WorkTypeRemote      WorkType = "remote"
	WorkTypeHybrid      WorkType = "hybrid"
	WorkTypeOnsite      WorkType = "onsite"
	WorkTypeUnspecified WorkType = "unspecified"
)

type ScoreStatus string

const (
	ScoreStatusNone   ScoreStatus = ""
	ScoreStatusQueued ScoreStatus = "queued"
	ScoreStatusScored ScoreStatus = "scored"
	ScoreStatusFailed ScoreStatus = "failed"
)

// Job is a canonical (or duplicate) posting. The id is a pure function of the
// source URL, so re-scraping the same URL is always an upsert.
type Job struct {
	ID           string      `gorm:"type:varchar(16);primary_key" json:"id"`
	URL          string      `gorm:"type:text;uniqueIndex;not null" json:"url"`
	Source       string      `gorm:"type:text;index;not null" json:"source"`
	Title        string      `gorm:"type:text;not null" json:"title"`
	Company      string      `gorm:"type:text;index;not null" json:"company"`
	Location     string      `gorm:"type:text" json:"location"`
	WorkType     WorkType    `gorm:"type:text;default:'unspecified'" json:"work_type"`
	SalaryMin    *int        `json:"salary_min,omitempty"`
	SalaryMax    *int        `json:"salary_max,omitempty"`
	Description  string      `gorm:"type:text" json:"description"`
	Requirements string      `gorm:"type:text" json:"requirements"`
	PostedDate   *time.Time  `gorm:"type:date" json:"posted_date,omitempty"`
	ScrapedAt    time.Time   `gorm:"index;not null" json:"scraped_at"`
	Status       JobStatus   `gorm:"type:text;index;default:'new'" json:"status"`
	Notes        string      `gorm:"type:text" json:"notes"`
	FitScore     *float64    `json:"fit_score,omitempty"`
	FitRationale *string     `gorm:"type:text" json:"fit_rationale,omitempty"`
	ScoreStatus  ScoreStatus `gorm:"type:text;default:''" json:"score_status,omitempty"`
	DedupKey     string      `gorm:"type:varchar(16);index" json:"dedup_key"`
	DuplicateOf  *string     `gorm:"type:varchar(16);index" json:"duplicate_of,omitempty"`

	// The vector itself lives in the qdrant collection; the row only tracks
	// what text was embedded and when, so unchanged jobs skip recomputation.
	EmbeddingHash *string    `gorm:"type:varchar(64)" json:"embedding_hash,omitempty"`
	EmbeddedAt    *time.Time `json:"embedded_at,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Job) TableName() string {
	return "jobs"
}

// IsCanonical reports whether the job is the authoritative record for its
// dedup key (duplicates reference the canonical via DuplicateOf).
func (j *Job) IsCanonical() bool {
	return j.DuplicateOf == nil
}

// EmbeddingText is the text basis for the job's vector: title, description
// and requirements joined. Empty segments are simply skipped.
func (j *Job) EmbeddingText() string {
	text := j.Title
	if j.Description != "" {
		text += " " + j.Description
	}
	if j.Requirements != "" {
		text += " " + j.Requirements
	}
	return text
}
