package services

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"

	"github.com/qdrant/go-client/qdrant"

	"canopy/backend/internal/errs"
)

type VectorIndexService interface {
	EnsureCollection() error
	VectorSize() int
	UpsertJob(ctx context.Context, jobID string, vector []float32) error
	FetchVector(ctx context.Context, jobID string) ([]float32, error)
	Query(ctx context.Context, vector []float32, limit int, excludeJobID string) ([]VectorMatch, error)
	DeleteJob(ctx context.Context, jobID string) error
}

// VectorMatch is one nearest-neighbor hit, cosine score in [-1, 1].
type VectorMatch struct {
	JobID string
	Score float32
}

type vectorIndexService struct {
	client         *qdrant.Client
	collectionName string
	vectorSize     uint64
}

func NewVectorIndexService(urlStr, apiKey, collectionName string, vectorSize int) (VectorIndexService, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsed.Hostname()
	useTLS := parsed.Scheme == "https"

	// For gRPC client, use port 6334 by default (gRPC port)
	port := 6334
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &vectorIndexService{
		client:         client,
		collectionName: collectionName,
		vectorSize:     uint64(vectorSize),
	}, nil
}

// EnsureCollection implements VectorIndexService.
func (q *vectorIndexService) EnsureCollection() error {
	ctx := context.Background()

	exists, err := q.client.CollectionExists(ctx, q.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}

	if exists {
		log.Println("✅ Collection already exists")
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     q.vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	log.Printf("✅ Qdrant collection '%s' created successfully\n", q.collectionName)
	return nil
}

func (q *vectorIndexService) VectorSize() int {
	return int(q.vectorSize)
}

// pointID maps a job id (16 hex chars) onto a stable numeric point id, so
// re-embedding a job replaces its point instead of adding another.
func pointID(jobID string) (uint64, error) {
	id, err := strconv.ParseUint(jobID, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid job id %q: %w", jobID, err)
	}
	return id, nil
}

// UpsertJob implements VectorIndexService.
func (q *vectorIndexService) UpsertJob(ctx context.Context, jobID string, vector []float32) error {
	if len(vector) != int(q.vectorSize) {
		return fmt.Errorf("vector has %d dimensions, collection expects %d", len(vector), q.vectorSize)
	}

	pid, err := pointID(jobID)
	if err != nil {
		return err
	}

	point := &qdrant.PointStruct{
		Id:      qdrant.NewIDNum(pid),
		Vectors: qdrant.NewVectors(vector...),
		Payload: qdrant.NewValueMap(map[string]interface{}{
			"job_id": jobID,
		}),
	}

	_, err = q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collectionName,
		Points:         []*qdrant.PointStruct{point},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert point: %w", err)
	}

	return nil
}

// FetchVector returns the stored vector for a job's point, or
// errs.ErrNotFound when the job was never indexed.
func (q *vectorIndexService) FetchVector(ctx context.Context, jobID string) ([]float32, error) {
	pid, err := pointID(jobID)
	if err != nil {
		return nil, err
	}

	points, err := q.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: q.collectionName,
		Ids:            []*qdrant.PointId{qdrant.NewIDNum(pid)},
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch point: %w", err)
	}

	if len(points) == 0 {
		return nil, errs.ErrNotFound
	}
	vector := points[0].GetVectors().GetVector().GetData()
	if len(vector) == 0 {
		return nil, errs.ErrNotFound
	}
	return vector, nil
}

// Query implements VectorIndexService. Results come back in descending
// cosine-similarity order; excludeJobID is filtered out server-side.
func (q *vectorIndexService) Query(ctx context.Context, vector []float32, limit int, excludeJobID string) ([]VectorMatch, error) {
	var filter *qdrant.Filter
	if excludeJobID != "" {
		filter = &qdrant.Filter{
			MustNot: []*qdrant.Condition{
				qdrant.NewMatch("job_id", excludeJobID),
			},
		}
	}

	searchResult, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collectionName,
		Query:          qdrant.NewQuery(vector...),
		Filter:         filter,
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	var results []VectorMatch
	for _, point := range searchResult {
		match := VectorMatch{Score: point.Score}

		if jobID, ok := point.Payload["job_id"]; ok {
			if val, ok := jobID.GetKind().(*qdrant.Value_StringValue); ok {
				match.JobID = val.StringValue
			}
		}
		if match.JobID == "" {
			continue
		}

		results = append(results, match)
	}

	return results, nil
}

// DeleteJob implements VectorIndexService.
func (q *vectorIndexService) DeleteJob(ctx context.Context, jobID string) error {
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("job_id", jobID),
		},
	}

	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collectionName,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: filter,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete job vector: %w", err)
	}

	return nil
}
