package scrapers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"canopy/backend/internal/models"
)

const (
	leverBaseURL  = "https://api.lever.co/v0/postings"
	leverPageSize = 100
)

// LeverScraper fetches one organization's postings from the Lever postings
// API. Pagination uses skip/limit, bounded by the query's MaxPages.
type LeverScraper struct {
	org      string
	baseURL  string
	client   *http.Client
	throttle *throttle
}

func NewLeverScraper(org string, requestDelay time.Duration) *LeverScraper {
	return &LeverScraper{
		org:      org,
		baseURL:  leverBaseURL,
		client:   &http.Client{Timeout: 15 * time.Second},
		throttle: newThrottle(requestDelay),
	}
}

type leverPosting struct {
	ID         string          `json:"id"`
	Text       string          `json:"text"`
	HostedURL  string          `json:"hostedUrl"`
	CreatedAt  int64           `json:"createdAt"` // epoch millis
	Categories leverCategories `json:"categories"`
	Lists      []leverList     `json:"lists"`
	Descr      string          `json:"descriptionPlain"`
}

type leverCategories struct {
	Location   string `json:"location"`
	Commitment string `json:"commitment"`
	Team       string `json:"team"`
}

type leverList struct {
	Text    string `json:"text"`
	Content string `json:"content"`
}

func (s *LeverScraper) Source() string {
	return s.org
}

func (s *LeverScraper) Fetch(ctx context.Context, query Query) ([]models.RawListing, error) {
	maxPages := query.MaxPages
	if maxPages < 1 {
		maxPages = 1
	}

	var listings []models.RawListing
	for page := 0; page < maxPages; page++ {
		batch, err := s.fetchPage(ctx, page)
		if err != nil {
			return listings, fmt.Errorf("page %d: %w", page+1, err)
		}
		if len(batch) == 0 {
			break
		}

		for _, posting := range batch {
			if !matchesQuery(posting.Text, posting.Categories.Location, query) {
				continue
			}
			listings = append(listings, s.toListing(posting))
		}

		if len(batch) < leverPageSize {
			break
		}
	}

	return listings, nil
}

func (s *LeverScraper) fetchPage(ctx context.Context, page int) ([]leverPosting, error) {
	if err := s.throttle.wait(ctx); err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/%s?mode=json&limit=%d&skip=%d",
		s.baseURL, s.org, leverPageSize, page*leverPageSize)
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
		return nil, fmt.Errorf("lever returned %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var postings []leverPosting
	if err := json.Unmarshal(body, &postings); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}

	return postings, nil
}

func (s *LeverScraper) toListing(posting leverPosting) models.RawListing {
	// Requirement lists come through as separate blocks on Lever.
	var requirements string
	for _, list := range posting.Lists {
		if containsFold(list.Text, "requirement") || containsFold(list.Text, "qualification") {
			requirements = list.Content
			break
		}
	}

	var posted string
	if posting.CreatedAt > 0 {
		posted = time.UnixMilli(posting.CreatedAt).UTC().Format("2006-01-02")
	}

	return models.RawListing{
		URL:          posting.HostedURL,
		Title:        posting.Text,
		Company:      s.org,
		Location:     posting.Categories.Location,
		WorkType:     workTypeFromLocation(posting.Categories.Location),
		Description:  posting.Descr,
		Requirements: requirements,
		PostedDate:   posted,
	}
}
