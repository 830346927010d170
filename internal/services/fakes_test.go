package services

import (
	"context"
	"crypto/sha256"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"canopy/backend/internal/errs"
	"canopy/backend/internal/models"
	"canopy/backend/internal/repositories"
)

// memJobRepo is an in-memory JobRepository with the same visible semantics as
// the postgres-backed one.
type memJobRepo struct {
	mu   sync.Mutex
	jobs map[string]*models.Job
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{jobs: make(map[string]*models.Job)}
}

var _ repositories.JobRepository = (*memJobRepo)(nil)

func (r *memJobRepo) Insert(job *models.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.ID]; ok {
		return fmt.Errorf("duplicate key: %s", job.ID)
	}
	copied := *job
	r.jobs[job.ID] = &copied
	return nil
}

func (r *memJobRepo) RefreshScraped(job *models.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.jobs[job.ID]
	if !ok {
		return errs.ErrNotFound
	}
	existing.Title = job.Title
	existing.Company = job.Company
	existing.Location = job.Location
	existing.WorkType = job.WorkType
	existing.SalaryMin = job.SalaryMin
	existing.SalaryMax = job.SalaryMax
	existing.Description = job.Description
	existing.Requirements = job.Requirements
	existing.PostedDate = job.PostedDate
	existing.ScrapedAt = job.ScrapedAt
	existing.Source = job.Source
	existing.DedupKey = job.DedupKey
	return nil
}

func (r *memJobRepo) FindByID(id string) (*models.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	copied := *job
	return &copied, nil
}

func (r *memJobRepo) FindByIDs(ids []string) ([]models.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Job
	for _, id := range ids {
		if job, ok := r.jobs[id]; ok {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (r *memJobRepo) FindCanonicalByKey(key string) ([]models.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Job
	for _, job := range r.jobs {
		if job.DedupKey == key && job.DuplicateOf == nil && job.Status != models.JobStatusArchived {
			out = append(out, *job)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ScrapedAt.Equal(out[j].ScrapedAt) {
			return out[i].ScrapedAt.Before(out[j].ScrapedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *memJobRepo) FindRecentCanonicals(limit int) ([]models.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Job
	for _, job := range r.jobs {
		if job.DuplicateOf == nil {
			out = append(out, *job)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ScrapedAt.After(out[j].ScrapedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memJobRepo) List(filter repositories.JobFilter) ([]models.Job, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Job
	for _, job := range r.jobs {
		if !filter.IncludeDuplicates && job.DuplicateOf != nil {
			continue
		}
		out = append(out, *job)
	}
	return out, int64(len(out)), nil
}

func (r *memJobRepo) SearchKeyword(query string, limit int) ([]models.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q := strings.ToLower(query)
	var out []models.Job
	for _, job := range r.jobs {
		if job.DuplicateOf != nil {
			continue
		}
		haystack := strings.ToLower(job.Title + " " + job.Company + " " + job.Description + " " + job.Requirements)
		if strings.Contains(haystack, q) {
			out = append(out, *job)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ScrapedAt.After(out[j].ScrapedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memJobRepo) UpdateUserFields(id string, status *models.JobStatus, notes *string) (*models.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	if status != nil {
		job.Status = *status
	}
	if notes != nil {
		job.Notes = *notes
	}
	copied := *job
	return &copied, nil
}

func (r *memJobRepo) UpdateScore(id string, score float64, rationale string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return errs.ErrNotFound
	}
	job.FitScore = &score
	job.FitRationale = &rationale
	job.ScoreStatus = models.ScoreStatusScored
	return nil
}

func (r *memJobRepo) MarkScoreFailed(id string, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return errs.ErrNotFound
	}
	job.ScoreStatus = models.ScoreStatusFailed
	job.FitRationale = &reason
	return nil
}

func (r *memJobRepo) MarkDuplicate(id, canonicalID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return errs.ErrNotFound
	}
	job.DuplicateOf = &canonicalID
	return nil
}

func (r *memJobRepo) RepointDuplicates(oldCanonicalID, newCanonicalID string) error {
	r.mu.Lock()
	for _, job := range r.jobs {
		if job.DuplicateOf != nil && *job.DuplicateOf == oldCanonicalID {
			id := newCanonicalID
			job.DuplicateOf = &id
		}
	}
	r.mu.Unlock()
	return r.MarkDuplicate(oldCanonicalID, newCanonicalID)
}

func (r *memJobRepo) SetEmbedded(id, textHash string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return errs.ErrNotFound
	}
	job.EmbeddingHash = &textHash
	job.EmbeddedAt = &at
	return nil
}

func (r *memJobRepo) FindUnembedded(limit int) ([]models.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Job
	for _, job := range r.jobs {
		if job.EmbeddingHash == nil && job.DuplicateOf == nil {
			out = append(out, *job)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memJobRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[id]; !ok {
		return errs.ErrNotFound
	}
	delete(r.jobs, id)
	return nil
}

// fakeGemini is a scripted provider. Embeddings are a pure function of the
// text unless embedFn overrides them.
type fakeGemini struct {
	mu         sync.Mutex
	dim        int
	embedFn    func(text string) ([]float32, error)
	textFn     func(prompt string) (string, error)
	embedCalls int
	textCalls  int
}

var _ GeminiService = (*fakeGemini)(nil)

func newFakeGemini(dim int) *fakeGemini {
	return &fakeGemini{dim: dim}
}

func (f *fakeGemini) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.embedCalls++
	f.mu.Unlock()

	if f.embedFn != nil {
		return f.embedFn(text)
	}

	sum := sha256.Sum256([]byte(text))
	vector := make([]float32, f.dim)
	for i := range vector {
		vector[i] = float32(sum[i%len(sum)]) / 255.0
	}
	return vector, nil
}

func (f *fakeGemini) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for _, text := range texts {
		v, err := f.GenerateEmbedding(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, v)
	}
	return vectors, nil
}

func (f *fakeGemini) GenerateText(ctx context.Context, prompt string, temperature float32) (string, error) {
	f.mu.Lock()
	f.textCalls++
	f.mu.Unlock()

	if f.textFn != nil {
		return f.textFn(prompt)
	}
	return "{}", nil
}

// The WithRetry fakes run the real backoff helper with a short delay, so the
// services' retry wiring is exercised without slowing the suite down.
const (
	fakeRetryAttempts = 3
	fakeRetryDelay    = time.Millisecond
)

func (f *fakeGemini) GenerateEmbeddingWithRetry(ctx context.Context, text string) ([]float32, error) {
	var vector []float32
	err := retryWithBackoff(ctx, fakeRetryAttempts, fakeRetryDelay, func() error {
		v, embedErr := f.GenerateEmbedding(ctx, text)
		if embedErr != nil {
			return embedErr
		}
		vector = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vector, nil
}

func (f *fakeGemini) GenerateJSONWithRetry(ctx context.Context, prompt string, temperature float32, target interface{}) error {
	return retryWithBackoff(ctx, fakeRetryAttempts, fakeRetryDelay, func() error {
		response, err := f.GenerateText(ctx, prompt, temperature)
		if err != nil {
			return err
		}
		return parseJSONResponse(response, target)
	})
}

func (f *fakeGemini) ModelVersion() string {
	return "fake-embed-001"
}

func (f *fakeGemini) textCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.textCalls
}

func (f *fakeGemini) embedCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.embedCalls
}

// memVectorIndex ranks stored vectors by cosine similarity, mirroring the
// qdrant-backed index.
type memVectorIndex struct {
	mu      sync.Mutex
	dim     int
	vectors map[string][]float32
}

var _ VectorIndexService = (*memVectorIndex)(nil)

func newMemVectorIndex(dim int) *memVectorIndex {
	return &memVectorIndex{dim: dim, vectors: make(map[string][]float32)}
}

func (m *memVectorIndex) EnsureCollection() error { return nil }

func (m *memVectorIndex) VectorSize() int { return m.dim }

func (m *memVectorIndex) UpsertJob(ctx context.Context, jobID string, vector []float32) error {
	if len(vector) != m.dim {
		return fmt.Errorf("vector has %d dimensions, collection expects %d", len(vector), m.dim)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vectors[jobID] = append([]float32(nil), vector...)
	return nil
}

func (m *memVectorIndex) Query(ctx context.Context, vector []float32, limit int, excludeJobID string) ([]VectorMatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matches []VectorMatch
	for jobID, stored := range m.vectors {
		if jobID == excludeJobID {
			continue
		}
		matches = append(matches, VectorMatch{JobID: jobID, Score: cosine(vector, stored)})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].JobID < matches[j].JobID
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (m *memVectorIndex) FetchVector(ctx context.Context, jobID string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.vectors[jobID]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return append([]float32(nil), stored...), nil
}

func (m *memVectorIndex) DeleteJob(ctx context.Context, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.vectors, jobID)
	return nil
}

func cosine(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

// fakeProfile serves a fixed profile without touching disk.
type fakeProfile struct {
	profile *models.Profile
	err     error
}

var _ ProfileService = (*fakeProfile)(nil)

func (f *fakeProfile) Get() (*models.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	copied := *f.profile
	return &copied, nil
}

func (f *fakeProfile) Save(profile *models.Profile) error {
	f.profile = profile
	return nil
}

func (f *fakeProfile) EnsureDataDir() error { return nil }
