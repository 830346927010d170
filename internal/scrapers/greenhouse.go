package scrapers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"canopy/backend/internal/models"
)

const greenhouseBaseURL = "https://boards-api.greenhouse.io/v1/boards"

// GreenhouseScraper fetches one company's postings from the Greenhouse board
// API (plain JSON, no HTML parsing). The source name is the board token, so
// "heb" is the adapter for H-E-B's board.
type GreenhouseScraper struct {
	board    string
	baseURL  string
	client   *http.Client
	throttle *throttle
}

func NewGreenhouseScraper(board string, requestDelay time.Duration) *GreenhouseScraper {
	return &GreenhouseScraper{
		board:    board,
		baseURL:  greenhouseBaseURL,
		client:   &http.Client{Timeout: 15 * time.Second},
		throttle: newThrottle(requestDelay),
	}
}

type greenhouseResponse struct {
	Jobs []greenhouseJob `json:"jobs"`
}

type greenhouseJob struct {
	ID          int64              `json:"id"`
	Title       string             `json:"title"`
	AbsoluteURL string             `json:"absolute_url"`
	UpdatedAt   string             `json:"updated_at"`
	Content     string             `json:"content"`
	Location    greenhouseLocation `json:"location"`
}

type greenhouseLocation struct {
	Name string `json:"name"`
}

func (s *GreenhouseScraper) Source() string {
	return s.board
}

// Fetch retrieves the board's postings and applies the query's keyword and
// location filters locally (the board API has no server-side search).
func (s *GreenhouseScraper) Fetch(ctx context.Context, query Query) ([]models.RawListing, error) {
	if err := s.throttle.wait(ctx); err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/%s/jobs?content=true", s.baseURL, s.board)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http GET: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("greenhouse returned %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var apiResp greenhouseResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}

	listings := make([]models.RawListing, 0, len(apiResp.Jobs))
	for _, job := range apiResp.Jobs {
		if !matchesQuery(job.Title, job.Location.Name, query) {
			continue
		}
		listings = append(listings, models.RawListing{
			URL:         job.AbsoluteURL,
			Title:       job.Title,
			Company:     s.board,
			Location:    job.Location.Name,
			WorkType:    workTypeFromLocation(job.Location.Name),
			Description: job.Content,
			PostedDate:  job.UpdatedAt,
		})
	}

	return listings, nil
}

func matchesQuery(title, location string, query Query) bool {
	if query.Keywords != "" && !containsFold(title, query.Keywords) {
		return false
	}
	if query.Location != "" && !containsFold(location, query.Location) {
		return false
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func workTypeFromLocation(location string) models.WorkType {
	loc := strings.ToLower(location)
	switch {
	case strings.Contains(loc, "remote"):
		return models.WorkTypeRemote
	case strings.Contains(loc, "hybrid"):
		return models.WorkTypeHybrid
	case loc == "":
		return models.WorkTypeUnspecified
	default:
		return models.WorkTypeOnsite
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
