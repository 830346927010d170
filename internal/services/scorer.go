package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"canopy/backend/internal/models"
	"canopy/backend/internal/repositories"
)

// FitResult is the outcome of scoring one job against the profile.
type FitResult struct {
	Score          float64  `json:"score"`
	Rationale      string   `json:"rationale"`
	Dealbreaker    string   `json:"dealbreaker,omitempty"`
	MatchingSkills []string `json:"matching_skills,omitempty"`
	MissingSkills  []string `json:"missing_skills,omitempty"`
}

// rubricResponse mirrors the JSON the evaluator returns: one sub-score per
// rubric line, summed and clamped by the scorer.
type rubricResponse struct {
	TitleMatch     float64  `json:"title_match"`
	SkillsMatch    float64  `json:"skills_match"`
	LocationFit    float64  `json:"location_fit"`
	SalaryFit      float64  `json:"salary_fit"`
	ExperienceFit  float64  `json:"experience_fit"`
	IndustryBonus  float64  `json:"industry_bonus"`
	Rationale      string   `json:"rationale"`
	MatchingSkills []string `json:"matching_skills"`
	MissingSkills  []string `json:"missing_skills"`
}

type ScorerService interface {
	Score(ctx context.Context, job *models.Job, profile *models.Profile) (*FitResult, error)
	ScoreJob(ctx context.Context, jobID string) (*FitResult, error)
}

type scorerService struct {
	jobRepo       repositories.JobRepository
	profile       ProfileService
	geminiService GeminiService
	promptBuilder *PromptBuilder
	callTimeout   time.Duration
}

func NewScorerService(
	jobRepo repositories.JobRepository,
	profile ProfileService,
	geminiService GeminiService,
	callTimeout time.Duration,
) ScorerService {
	return &scorerService{
		jobRepo:       jobRepo,
		profile:       profile,
		geminiService: geminiService,
		promptBuilder: NewPromptBuilder(),
		callTimeout:   callTimeout,
	}
}

// Score evaluates one job against the profile. A triggered dealbreaker
// short-circuits to a zero score without calling the evaluator. The result
// only depends on the given job and profile, so concurrent calls are safe.
func (s *scorerService) Score(ctx context.Context, job *models.Job, profile *models.Profile) (*FitResult, error) {
	if phrase := triggeredDealbreaker(job, profile); phrase != "" {
		return &FitResult{
			Score:       0,
			Rationale:   fmt.Sprintf("Dealbreaker triggered: %q found in the posting.", phrase),
			Dealbreaker: phrase,
		}, nil
	}

	prompt := s.promptBuilder.BuildFitScoringPrompt(job, profile)

	callCtx := ctx
	if s.callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.callTimeout)
		defer cancel()
	}

	// The generate-and-parse unit retries as a whole, so malformed evaluator
	// output is re-asked with the same backoff as a transport failure.
	var rubric rubricResponse
	if err := s.geminiService.GenerateJSONWithRetry(callCtx, prompt, 0.3, &rubric); err != nil {
		return nil, fmt.Errorf("failed to evaluate fit: %w", err)
	}

	total := rubric.TitleMatch + rubric.SkillsMatch + rubric.LocationFit +
		rubric.SalaryFit + rubric.ExperienceFit + rubric.IndustryBonus

	return &FitResult{
		Score:          clampScore(total),
		Rationale:      rubric.Rationale,
		MatchingSkills: rubric.MatchingSkills,
		MissingSkills:  rubric.MissingSkills,
	}, nil
}

// ScoreJob loads the job and profile, scores, and persists the outcome. On
// evaluator failure the job is marked score-failed with the fit score left
// null; the caller's batch continues with its other jobs.
func (s *scorerService) ScoreJob(ctx context.Context, jobID string) (*FitResult, error) {
	job, err := s.jobRepo.FindByID(jobID)
	if err != nil {
		return nil, err
	}

	profile, err := s.profile.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	log.Printf("🤖 Scoring job %s: %s at %s\n", job.ID, job.Title, job.Company)

	result, err := s.Score(ctx, job, profile)
	if err != nil {
		if markErr := s.jobRepo.MarkScoreFailed(job.ID, err.Error()); markErr != nil {
			log.Printf("⚠️  Failed to flag job %s as score-failed: %v\n", job.ID, markErr)
		}
		return nil, err
	}

	if err := s.jobRepo.UpdateScore(job.ID, result.Score, result.Rationale); err != nil {
		return nil, err
	}

	return result, nil
}

// triggeredDealbreaker returns the first dealbreaker phrase found in the
// job's description or requirements, case-insensitively, or "" when none
// match.
func triggeredDealbreaker(job *models.Job, profile *models.Profile) string {
	if len(profile.Dealbreakers) == 0 {
		return ""
	}
	haystack := strings.ToLower(job.Description + " " + job.Requirements)
	for _, phrase := range profile.Dealbreakers {
		if phrase == "" {
			continue
		}
		if strings.Contains(haystack, strings.ToLower(phrase)) {
			return phrase
		}
	}
	return ""
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
