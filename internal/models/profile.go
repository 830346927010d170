package models

// ProfileSkills groups the user's skills the way the scoring rubric consumes
// them.
type ProfileSkills struct {
	Languages []string `json:"languages"`
	MLTools   []string `json:"ml_tools"`
	Platforms []string `json:"platforms"`
	Other     []string `json:"other"`
}

// Profile is the user-owned search profile. It is read-only input to the
// scorer; nothing in the pipeline mutates it.
type Profile struct {
	Name            string        `json:"name"`
	TargetTitles    []string      `json:"target_titles"`
	Skills          ProfileSkills `json:"skills"`
	ExperienceYears int           `json:"experience_years"`
	Locations       []string      `json:"locations"`
	WorkTypes       []string      `json:"work_types"`
	Industries      []string      `json:"industries"`
	MinSalary       *int          `json:"min_salary,omitempty"`
	Dealbreakers    []string      `json:"dealbreakers"`
}

// RawListing is what a source adapter produces: an unnormalized posting as
// scraped from the board. Missing optional fields stay empty.
type RawListing struct {
	URL          string
	Title        string
	Company      string
	Location     string
	WorkType     WorkType
	SalaryMin    *int
	SalaryMax    *int
	Description  string
	Requirements string
	PostedDate   string // RFC 3339 or YYYY-MM-DD when the board provides it
}
