package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"google.golang.org/genai"

	"canopy/backend/internal/errs"
)

type GeminiService interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	GenerateEmbeddingWithRetry(ctx context.Context, text string) ([]float32, error)
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
	GenerateText(ctx context.Context, prompt string, temperature float32) (string, error)
	GenerateJSONWithRetry(ctx context.Context, prompt string, temperature float32, target interface{}) error
	ModelVersion() string
}

type geminiService struct {
	client       *genai.Client
	modelName    string
	embedModel   string
	maxRetries   int
	initialDelay time.Duration
}

func NewGeminiService(apiKey, model, embedModel string, maxRetries int, initialDelay time.Duration) (GeminiService, error) {
	ctx := context.Background()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &geminiService{
		client:       client,
		modelName:    model,
		embedModel:   embedModel,
		maxRetries:   maxRetries,
		initialDelay: initialDelay,
	}, nil
}

// ModelVersion identifies the embedding model; identical text and model
// version yield an identical vector, which callers rely on to skip
// recomputation.
func (g *geminiService) ModelVersion() string {
	return g.embedModel
}

// GenerateEmbedding implements GeminiService.
func (g *geminiService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	// Truncate text if too long (max ~10000 tokens for embedding)
	if len(text) > 40000 {
		text = text[:40000]
	}

	result, err := g.client.Models.EmbedContent(ctx, g.embedModel, genai.Text(text), nil)
	if err != nil {
		return nil, errs.External("embedding provider", err)
	}

	if result == nil || len(result.Embeddings) == 0 {
		return nil, errs.External("embedding provider", fmt.Errorf("empty embedding result"))
	}

	return result.Embeddings[0].Values, nil
}

// GenerateEmbeddings implements GeminiService. One provider call per text;
// a failed text fails the batch, so callers that want per-unit outcomes
// should loop over GenerateEmbedding instead.
func (g *geminiService) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vector, err := g.GenerateEmbedding(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, vector)
	}
	return vectors, nil
}

// GenerateText implements GeminiService.
func (g *geminiService) GenerateText(ctx context.Context, prompt string, temperature float32) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: 4096,
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(prompt), config)
	if err != nil {
		return "", errs.External("rubric evaluator", err)
	}

	if resp == nil {
		return "", errs.External("rubric evaluator", fmt.Errorf("no response generated"))
	}

	text := resp.Text()
	if text == "" {
		return "", errs.External("rubric evaluator", fmt.Errorf("no text content in response"))
	}

	return text, nil
}

// GenerateEmbeddingWithRetry retries transient embedding failures with the
// same backoff schedule as the text path.
func (g *geminiService) GenerateEmbeddingWithRetry(ctx context.Context, text string) ([]float32, error) {
	var vector []float32
	err := retryWithBackoff(ctx, g.maxRetries, g.initialDelay, func() error {
		v, embedErr := g.GenerateEmbedding(ctx, text)
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

// GenerateJSONWithRetry generates text and unmarshals it into target,
// retrying the whole unit. Malformed output counts as a failed attempt, the
// same as a transport error, so a model that answers with prose instead of
// JSON gets re-asked.
func (g *geminiService) GenerateJSONWithRetry(ctx context.Context, prompt string, temperature float32, target interface{}) error {
	return retryWithBackoff(ctx, g.maxRetries, g.initialDelay, func() error {
		response, err := g.GenerateText(ctx, prompt, temperature)
		if err != nil {
			return err
		}
		return parseJSONResponse(response, target)
	})
}

// retryWithBackoff runs op with exponential backoff: initialDelay, 2×, 4×, …
// up to maxAttempts attempts.
func retryWithBackoff(ctx context.Context, maxAttempts int, initialDelay time.Duration, op func() error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	delay := initialDelay

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if lastErr = op(); lastErr == nil {
			return nil
		}

		if attempt < maxAttempts {
			log.Printf("⚠️ Attempt %d failed: %v. Retrying in %s...\n", attempt, lastErr, delay)
			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled: %w", ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", maxAttempts, lastErr)
}

func parseJSONResponse(response string, target interface{}) error {
	jsonStr := extractJSON(response)

	if err := json.Unmarshal([]byte(jsonStr), target); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	return nil
}

// extractJSON tries to extract JSON from text that might contain markdown or other formatting
func extractJSON(text string) string {
	// Remove markdown code blocks
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end != -1 && end > start {
		return text[start : end+1]
	}

	return text
}
