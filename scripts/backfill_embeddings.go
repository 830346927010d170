package main

import (
	"context"
	"log"
	"os"
	"strings"

	"canopy/backend/internal/config"
	"canopy/backend/internal/repositories"
	"canopy/backend/internal/services"
)

const batchSize = 200

func main() {
	log.Println("🚀 Starting embedding backfill...")

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}
	jobRepo := repositories.NewJobRepository(db)

	// Initialize services
	geminiService, err := services.NewGeminiService(
		cfg.Gemini.APIKey,
		cfg.Gemini.Model,
		cfg.Gemini.EmbedModel,
		cfg.Worker.RetryMaxAttempts,
		cfg.Worker.RetryInitialDelay,
	)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Gemini: %v", err)
	}

	vectorIndex, err := services.NewVectorIndexService(
		cfg.Qdrant.URL,
		cfg.Qdrant.APIKey,
		cfg.Qdrant.Collection,
		cfg.Qdrant.VectorSize,
	)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Qdrant: %v", err)
	}
	if err := vectorIndex.EnsureCollection(); err != nil {
		log.Fatalf("❌ Failed to initialize collection: %v", err)
	}

	embedder := services.NewEmbedderService(jobRepo, geminiService, vectorIndex, cfg.Worker.CallTimeout)

	ctx := context.Background()

	totalEmbedded := 0
	totalSkipped := 0
	totalFailed := 0

	// Work through the unembedded canonicals batch by batch until none remain.
	for {
		jobs, err := jobRepo.FindUnembedded(batchSize)
		if err != nil {
			log.Fatalf("❌ Failed to load unembedded jobs: %v", err)
		}
		if len(jobs) == 0 {
			break
		}

		log.Printf("📦 Processing batch of %d jobs...", len(jobs))
		embedded, skipped, failed := embedder.EmbedJobs(ctx, jobs)

		totalEmbedded += embedded
		totalSkipped += skipped
		totalFailed += len(failed)

		for _, f := range failed {
			log.Printf("   ❌ Job %s: %s", f.JobID, f.Error)
		}

		// Every job in the batch failing means retrying would loop forever.
		if embedded == 0 && skipped == 0 {
			log.Println("⚠️  No progress in this batch, stopping.")
			break
		}
	}

	// Summary
	log.Println("\n" + strings.Repeat("=", 60))
	log.Printf("📊 Backfill Summary:")
	log.Printf("   ✅ Embedded: %d jobs", totalEmbedded)
	log.Printf("   ⏭️  Skipped (unchanged): %d jobs", totalSkipped)
	log.Printf("   ❌ Failed: %d jobs", totalFailed)
	log.Println(strings.Repeat("=", 60))

	if totalFailed > 0 {
		log.Println("⚠️  Some jobs failed to embed. Please check the logs above.")
		os.Exit(1)
	}

	log.Println("✅ Embedding backfill complete!")
}
