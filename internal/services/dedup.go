package services

import (
	"fmt"
	"hash/fnv"
	"log"
	"sync"

	"canopy/backend/internal/errs"
	"canopy/backend/internal/models"
	"canopy/backend/internal/repositories"
)

// Resolution describes what happened to an ingested listing.
type Resolution struct {
	JobID       string
	CanonicalID string
	IsNew       bool
	IsDuplicate bool
}

type DeduplicatorService interface {
	Resolve(job *models.Job) (*Resolution, error)
}

type deduplicatorService struct {
	jobRepo         repositories.JobRepository
	fuzzyEnabled    bool
	fuzzyThreshold  float64
	fuzzyCandidates int
	keys            keyLocks
}

func NewDeduplicatorService(
	jobRepo repositories.JobRepository,
	fuzzyEnabled bool,
	fuzzyThreshold float64,
	fuzzyCandidates int,
) DeduplicatorService {
	return &deduplicatorService{
		jobRepo:         jobRepo,
		fuzzyEnabled:    fuzzyEnabled,
		fuzzyThreshold:  fuzzyThreshold,
		fuzzyCandidates: fuzzyCandidates,
	}
}

// keyLocks serializes ingestion per dedup key over a fixed pool of striped
// mutexes. The same key always hashes to the same stripe, so racing
// ingestions for one key take turns; two different keys sharing a stripe
// contend harmlessly. Memory stays constant no matter how many keys pass
// through.
type keyLocks struct {
	stripes [64]sync.Mutex
}

func (k *keyLocks) lock(key string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(key))
	l := &k.stripes[h.Sum32()%uint32(len(k.stripes))]
	l.Lock()
	return l
}

// Resolve decides whether the incoming job is a fresh canonical entry, a
// duplicate of an existing one, or a re-scrape of a known URL (an upsert).
// The job's ID and DedupKey must already be set by the caller; Resolve fills
// DuplicateOf before persisting.
func (d *deduplicatorService) Resolve(job *models.Job) (*Resolution, error) {
	if job.ID == "" || job.DedupKey == "" {
		return nil, errs.Validation("job", "id and dedup_key must be set before resolution")
	}

	l := d.keys.lock(job.DedupKey)
	defer l.Unlock()

	// Known URL: refresh scraped metadata, keep user and computed fields.
	existing, err := d.jobRepo.FindByID(job.ID)
	if err != nil && !errs.IsNotFound(err) {
		return nil, err
	}
	if existing != nil {
		if err := d.jobRepo.RefreshScraped(job); err != nil {
			return nil, err
		}
		res := &Resolution{JobID: job.ID, CanonicalID: job.ID, IsNew: false}
		if existing.DuplicateOf != nil {
			res.IsDuplicate = true
			res.CanonicalID = *existing.DuplicateOf
		}
		return res, nil
	}

	canonicals, err := d.jobRepo.FindCanonicalByKey(job.DedupKey)
	if err != nil {
		return nil, err
	}

	if len(canonicals) > 0 {
		return d.resolveExactMatch(job, canonicals)
	}

	if d.fuzzyEnabled {
		if canonical := d.findFuzzyMatch(job); canonical != nil {
			job.DuplicateOf = &canonical.ID
			if err := d.jobRepo.Insert(job); err != nil {
				return nil, err
			}
			log.Printf("🔁 Job %s is a fuzzy duplicate of %s (%s at %s)\n",
				job.ID, canonical.ID, canonical.Title, canonical.Company)
			return &Resolution{JobID: job.ID, CanonicalID: canonical.ID, IsDuplicate: true}, nil
		}
	}

	if err := d.jobRepo.Insert(job); err != nil {
		return nil, err
	}
	return &Resolution{JobID: job.ID, CanonicalID: job.ID, IsNew: true}, nil
}

// resolveExactMatch handles an incoming job whose dedup key already has a
// canonical. The earliest scraped_at wins; ties go to the lexicographically
// smallest id. When the incoming job is older it takes over as canonical and
// the previous canonical's duplicates are re-pointed, so chains never form.
func (d *deduplicatorService) resolveExactMatch(job *models.Job, canonicals []models.Job) (*Resolution, error) {
	canonical := canonicals[0]
	for _, c := range canonicals[1:] {
		if earlierThan(&c, &canonical) {
			canonical = c
		}
	}

	if earlierThan(job, &canonical) {
		if err := d.jobRepo.Insert(job); err != nil {
			return nil, err
		}
		if err := d.jobRepo.RepointDuplicates(canonical.ID, job.ID); err != nil {
			return nil, fmt.Errorf("failed to re-canonicalize key %s: %w", job.DedupKey, err)
		}
		return &Resolution{JobID: job.ID, CanonicalID: job.ID, IsNew: true}, nil
	}

	job.DuplicateOf = &canonical.ID
	if err := d.jobRepo.Insert(job); err != nil {
		return nil, err
	}
	return &Resolution{JobID: job.ID, CanonicalID: canonical.ID, IsDuplicate: true}, nil
}

func earlierThan(a, b *models.Job) bool {
	if a.ScrapedAt.Before(b.ScrapedAt) {
		return true
	}
	if a.ScrapedAt.Equal(b.ScrapedAt) {
		return a.ID < b.ID
	}
	return false
}

// findFuzzyMatch scans recent canonicals for a cross-source near-duplicate:
// the normalized companies must match exactly and the normalized titles must
// clear the similarity threshold. Advisory only: the candidate's scored and
// annotated fields are never touched.
func (d *deduplicatorService) findFuzzyMatch(job *models.Job) *models.Job {
	candidates, err := d.jobRepo.FindRecentCanonicals(d.fuzzyCandidates)
	if err != nil {
		log.Printf("⚠️  Fuzzy pass skipped: %v\n", err)
		return nil
	}

	company := NormalizeCompany(job.Company)
	title := NormalizeTitle(job.Title)
	if company == "" || title == "" {
		return nil
	}

	for i := range candidates {
		c := &candidates[i]
		if NormalizeCompany(c.Company) != company {
			continue
		}
		if titleSimilarity(title, NormalizeTitle(c.Title)) >= d.fuzzyThreshold {
			return c
		}
	}
	return nil
}

// titleSimilarity is normalized Levenshtein similarity over already-normalized
// titles: 1 - distance/maxLen.
func titleSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	return 1 - float64(levenshtein(a, b))/float64(maxLen)
}

func levenshtein(a, b string) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 0; i < len(a); i++ {
		curr[0] = i + 1
		for j := 0; j < len(b); j++ {
			cost := 1
			if a[i] == b[j] {
				cost = 0
			}
			curr[j+1] = min3(prev[j+1]+1, curr[j]+1, prev[j]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
