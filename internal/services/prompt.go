package services

import (
	"fmt"
	"strings"

	"canopy/backend/internal/models"
)

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildFitScoringPrompt renders the rubric evaluation prompt for one job
// against the candidate profile. Dealbreakers are pre-checked by the scorer,
// so the rubric never sees a job that already failed one.
func (pb *PromptBuilder) BuildFitScoringPrompt(job *models.Job, profile *models.Profile) string {
	return fmt.Sprintf(`You are an expert career advisor who evaluates job fit for candidates.
Be honest and precise - don't inflate scores. A perfect match is rare.

## Candidate Profile:
- Name: %s
- Target Titles: %s
- Years of Experience: %d
- Skills:
  - Languages: %s
  - ML Tools: %s
  - Platforms: %s
  - Other: %s
- Preferred Locations: %s
- Preferred Work Types: %s
- Preferred Industries: %s
- Minimum Salary: %s

## Job Posting:
- Title: %s
- Company: %s
- Location: %s
- Work Type: %s
- Salary Range: %s
- Description: %s
- Requirements: %s

## Scoring Rubric (100 points total):
1. Title Match (25 pts): How well does the job title align with target titles?
2. Skills Match (35 pts): How many required skills does the candidate have?
3. Location/Work Type (15 pts): Does location and work arrangement fit preferences?
4. Salary Fit (10 pts): Is the salary within acceptable range?
5. Experience Level (10 pts): Does the experience level requirement match?
6. Industry Preference (5 pts bonus): Is this in a preferred industry?

Return your response in the following JSON format:
{
  "title_match": <0-25>,
  "skills_match": <0-35>,
  "location_fit": <0-15>,
  "salary_fit": <0-10>,
  "experience_fit": <0-10>,
  "industry_bonus": <0-5>,
  "rationale": "<2-3 sentences explaining the score>",
  "matching_skills": ["<skills the candidate has that match>"],
  "missing_skills": ["<required skills the candidate lacks>"]
}

Be objective and thorough. Reference specific requirements from the posting.`,
		orDefault(profile.Name, "Candidate"),
		joinOr(profile.TargetTitles, "Any"),
		profile.ExperienceYears,
		joinOr(profile.Skills.Languages, "Not specified"),
		joinOr(profile.Skills.MLTools, "Not specified"),
		joinOr(profile.Skills.Platforms, "Not specified"),
		joinOr(profile.Skills.Other, "Not specified"),
		joinOr(profile.Locations, "Any"),
		joinOr(profile.WorkTypes, "Any"),
		joinOr(profile.Industries, "Any"),
		formatMinSalary(profile.MinSalary),
		orDefault(job.Title, "Unknown"),
		orDefault(job.Company, "Unknown"),
		orDefault(job.Location, "Not specified"),
		orDefault(string(job.WorkType), "Not specified"),
		formatSalaryRange(job.SalaryMin, job.SalaryMax),
		orDefault(job.Description, "Not provided"),
		orDefault(job.Requirements, "Not specified"),
	)
}

func joinOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return strings.Join(items, ", ")
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func formatMinSalary(min *int) string {
	if min == nil {
		return "Not specified"
	}
	return fmt.Sprintf("$%d", *min)
}

func formatSalaryRange(min, max *int) string {
	switch {
	case min != nil && max != nil:
		return fmt.Sprintf("$%d - $%d", *min, *max)
	case min != nil:
		return fmt.Sprintf("$%d+", *min)
	case max != nil:
		return fmt.Sprintf("Up to $%d", *max)
	default:
		return "Not specified"
	}
}
