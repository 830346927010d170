package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SearchRun summarizes one orchestrated ingestion across one or more sources.
// It is created once per run and never mutated afterwards.
type SearchRun struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	RunAt           time.Time `gorm:"index;not null" json:"run_at"`
	Sources         string    `gorm:"type:text" json:"sources"`
	JobsFound       int       `json:"jobs_found"`
	NewJobs         int       `json:"new_jobs"`
	DuplicateJobs   int       `json:"duplicate_jobs"`
	DurationSeconds float64   `json:"duration_seconds"`
	Errors          string    `gorm:"type:text" json:"-"`
}

func (SearchRun) TableName() string {
	return "search_runs"
}

func (r *SearchRun) SetSources(sources []string) {
	r.Sources = strings.Join(sources, ",")
}

// SourceList splits the persisted comma-joined source names.
func (r *SearchRun) SourceList() []string {
	if r.Sources == "" {
		return []string{}
	}
	return strings.Split(r.Sources, ",")
}

func (r *SearchRun) SetErrors(errs []string) {
	if len(errs) == 0 {
		r.Errors = "[]"
		return
	}
	data, _ := json.Marshal(errs)
	r.Errors = string(data)
}

// ErrorList decodes the persisted error strings, oldest first.
func (r *SearchRun) ErrorList() []string {
	if r.Errors == "" {
		return []string{}
	}
	var errs []string
	if err := json.Unmarshal([]byte(r.Errors), &errs); err != nil {
		return []string{}
	}
	return errs
}

// MarshalJSON inlines the decoded error list into the API shape.
func (r *SearchRun) MarshalJSON() ([]byte, error) {
	type alias SearchRun
	return json.Marshal(struct {
		*alias
		Errors []string `json:"errors"`
	}{
		alias:  (*alias)(r),
		Errors: r.ErrorList(),
	})
}
