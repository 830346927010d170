package models

type JobListResponse struct {
	Items    []Job `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

type JobUpdateRequest struct {
	Status *string `json:"status,omitempty"`
	Notes  *string `json:"notes,omitempty"`
}

type RunSearchRequest struct {
	Location  string `json:"location"`
	Keywords  string `json:"keywords"`
	Sources   string `json:"sources"`
	MaxPages  int    `json:"max_pages"`
	AutoScore *bool  `json:"auto_score,omitempty"`
	AutoEmbed *bool  `json:"auto_embed,omitempty"`
}

type BatchScoreRequest struct {
	JobIDs []string `json:"job_ids"`
}

type ScoredJob struct {
	JobID     string  `json:"job_id"`
	FitScore  float64 `json:"fit_score"`
	Rationale string  `json:"rationale"`
}

type FailedJob struct {
	JobID string `json:"job_id"`
	Error string `json:"error"`
}

// BatchScoreResponse reports per-unit outcomes; a batch never aborts as a
// whole.
type BatchScoreResponse struct {
	Scored []ScoredJob `json:"scored"`
	Failed []FailedJob `json:"failed"`
}

type EmbedAllResponse struct {
	Embedded int         `json:"embedded"`
	Skipped  int         `json:"skipped"`
	Failed   []FailedJob `json:"failed"`
}

type SimilarJob struct {
	Job   Job     `json:"job"`
	Score float32 `json:"score"`
}

type SimilarJobsResponse struct {
	Items []SimilarJob `json:"items"`
}

type ApplicationCreateRequest struct {
	JobID            string `json:"job_id"`
	TailoredResume   string `json:"tailored_resume"`
	ResumeHighlights string `json:"resume_highlights"`
	CoverLetter      string `json:"cover_letter"`
	CoverTone        string `json:"cover_tone"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
