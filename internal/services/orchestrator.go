package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"canopy/backend/internal/models"
	"canopy/backend/internal/repositories"
	"canopy/backend/internal/scrapers"
)

// RunParams configures one orchestrated search run.
type RunParams struct {
	Sources   []string
	Location  string
	Keywords  string
	MaxPages  int
	AutoScore bool
	AutoEmbed bool
}

type OrchestratorService interface {
	Run(ctx context.Context, params RunParams) (*models.SearchRun, error)
}

type orchestratorService struct {
	registry    *scrapers.Registry
	dedup       DeduplicatorService
	scorer      ScorerService
	embedder    EmbedderService
	runRepo     repositories.SearchRunRepository
	worker      Worker
	maxParallel int
}

func NewOrchestratorService(
	registry *scrapers.Registry,
	dedup DeduplicatorService,
	scorer ScorerService,
	embedder EmbedderService,
	runRepo repositories.SearchRunRepository,
	worker Worker,
	maxParallel int,
) OrchestratorService {
	if maxParallel < 1 {
		maxParallel = 1
	}
	return &orchestratorService{
		registry:    registry,
		dedup:       dedup,
		scorer:      scorer,
		embedder:    embedder,
		runRepo:     runRepo,
		worker:      worker,
		maxParallel: maxParallel,
	}
}

// sourceResult keeps per-source outcomes in request order so the run's error
// list is stable.
type sourceResult struct {
	source   string
	listings []models.RawListing
	err      error
}

// Run executes one search across the requested sources. A failing source
// contributes an error entry and never aborts the run; cancellation mid-run
// persists a SearchRun with partial counts and leaves the store consistent.
func (o *orchestratorService) Run(ctx context.Context, params RunParams) (*models.SearchRun, error) {
	start := time.Now()
	log.Printf("🔍 Search run starting: sources=%v keywords=%q location=%q\n",
		params.Sources, params.Keywords, params.Location)

	results := o.fetchAll(ctx, params)

	var (
		jobsFound, newJobs, duplicates int
		errorList                      []string
		newJobIDs                      []string
	)

	for _, res := range results {
		if res.err != nil {
			errorList = append(errorList, fmt.Sprintf("%s: %v", res.source, res.err))
			continue
		}

		for i := range res.listings {
			if ctx.Err() != nil {
				break
			}

			jobsFound++
			resolution, err := o.ingest(&res.listings[i], res.source)
			if err != nil {
				log.Printf("⚠️  Failed to ingest %s listing %s: %v\n", res.source, res.listings[i].URL, err)
				continue
			}
			if resolution.IsNew {
				newJobs++
				newJobIDs = append(newJobIDs, resolution.JobID)
			}
			if resolution.IsDuplicate {
				duplicates++
			}
		}
	}

	if ctx.Err() == nil {
		if params.AutoScore {
			o.dispatch(newJobIDs, func(taskCtx context.Context, jobID string) {
				if _, err := o.scorer.ScoreJob(taskCtx, jobID); err != nil {
					log.Printf("⚠️  Scoring failed for job %s: %v\n", jobID, err)
				}
			})
		}
		if params.AutoEmbed {
			o.dispatch(newJobIDs, func(taskCtx context.Context, jobID string) {
				if _, err := o.embedder.EmbedJobByID(taskCtx, jobID); err != nil {
					log.Printf("⚠️  Embedding failed for job %s: %v\n", jobID, err)
				}
			})
		}
	}

	run := &models.SearchRun{
		ID:              uuid.New(),
		RunAt:           start,
		JobsFound:       jobsFound,
		NewJobs:         newJobs,
		DuplicateJobs:   duplicates,
		DurationSeconds: time.Since(start).Seconds(),
	}
	run.SetSources(params.Sources)
	run.SetErrors(errorList)

	if err := o.runRepo.Create(run); err != nil {
		return nil, err
	}

	log.Printf("✅ Search run %s done: found=%d new=%d duplicates=%d errors=%d\n",
		run.ID, jobsFound, newJobs, duplicates, len(errorList))
	return run, nil
}

// fetchAll runs the adapters concurrently, bounded by maxParallel, and
// returns results in request order.
func (o *orchestratorService) fetchAll(ctx context.Context, params RunParams) []sourceResult {
	query := scrapers.Query{
		Location: params.Location,
		Keywords: params.Keywords,
		MaxPages: params.MaxPages,
	}

	results := make([]sourceResult, len(params.Sources))
	sem := make(chan struct{}, o.maxParallel)
	var wg sync.WaitGroup

	for i, name := range params.Sources {
		scraper, ok := o.registry.Get(name)
		if !ok {
			results[i] = sourceResult{source: name, err: fmt.Errorf("unknown source")}
			continue
		}

		wg.Add(1)
		go func(i int, name string, scraper scrapers.Scraper) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			listings, err := scraper.Fetch(ctx, query)
			results[i] = sourceResult{source: name, listings: listings, err: err}
		}(i, name, scraper)
	}

	wg.Wait()
	return results
}

// ingest normalizes one raw listing and resolves it against the store.
func (o *orchestratorService) ingest(listing *models.RawListing, source string) (*Resolution, error) {
	job := buildJob(listing, source, time.Now())
	return o.dedup.Resolve(job)
}

// dispatch fans the job ids out over the bounded worker pool and waits for
// the batch to finish.
func (o *orchestratorService) dispatch(jobIDs []string, task func(ctx context.Context, jobID string)) {
	var wg sync.WaitGroup
	for _, jobID := range jobIDs {
		jobID := jobID
		wg.Add(1)
		ok := o.worker.Submit(func(taskCtx context.Context) {
			defer wg.Done()
			task(taskCtx, jobID)
		})
		if !ok {
			wg.Done()
		}
	}
	wg.Wait()
}

var postedDateLayouts = []string{time.RFC3339, "2006-01-02", "2006-01-02T15:04:05-07:00"}

// buildJob turns a raw listing into a Job with its derived identifiers set.
// The dedup key is recomputed from the current normalization rules on every
// ingestion, never trusted from a previous scrape.
func buildJob(listing *models.RawListing, source string, scrapedAt time.Time) *models.Job {
	workType := listing.WorkType
	if workType == "" {
		workType = models.WorkTypeUnspecified
	}

	job := &models.Job{
		ID:           JobID(listing.URL),
		URL:          listing.URL,
		Source:       source,
		Title:        listing.Title,
		Company:      listing.Company,
		Location:     listing.Location,
		WorkType:     workType,
		SalaryMin:    listing.SalaryMin,
		SalaryMax:    listing.SalaryMax,
		Description:  listing.Description,
		Requirements: listing.Requirements,
		ScrapedAt:    scrapedAt,
		Status:       models.JobStatusNew,
		DedupKey:     DedupKey(listing.Title, listing.Company, listing.Location),
	}

	if listing.PostedDate != "" {
		for _, layout := range postedDateLayouts {
			if parsed, err := time.Parse(layout, listing.PostedDate); err == nil {
				job.PostedDate = &parsed
				break
			}
		}
	}

	return job
}
