package models

import (
	"time"

	"github.com/google/uuid"
)

type CoverTone string

const (
	CoverToneProfessional CoverTone = "professional"
	CoverToneEnthusiastic CoverTone = "enthusiastic"
	CoverToneCasual       CoverTone = "casual"
)

// Application holds generated material for a job. The resume and cover letter
// are produced by external collaborators; this service only stores them.
type Application struct {
	ID               uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	JobID            string     `gorm:"type:varchar(16);index;not null" json:"job_id"`
	TailoredResume   string     `gorm:"type:text" json:"tailored_resume"`
	ResumeHighlights string     `gorm:"type:text" json:"resume_highlights"`
	CoverLetter      string     `gorm:"type:text" json:"cover_letter"`
	CoverTone        CoverTone  `gorm:"type:text" json:"cover_tone"`
	CreatedAt        time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	AppliedAt        *time.Time `json:"applied_at,omitempty"`

	Job Job `gorm:"foreignKey:JobID" json:"-"`
}

func (Application) TableName() string {
	return "applications"
}
