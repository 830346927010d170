package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"canopy/backend/internal/config"
	"canopy/backend/internal/handlers"
	"canopy/backend/internal/repositories"
	"canopy/backend/internal/scrapers"
	"canopy/backend/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log.Println("✅ Config loaded successfully")

	// Initialize database
	db, err := config.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	// Initialize repositories
	jobRepo := repositories.NewJobRepository(db)
	runRepo := repositories.NewSearchRunRepository(db)
	appRepo := repositories.NewApplicationRepository(db)
	log.Println("✅ Repositories initialized successfully")

	// Initialize profile storage
	profileService := services.NewProfileService(cfg.Profile.Path)
	if err := profileService.EnsureDataDir(); err != nil {
		log.Fatalf("❌ Failed to create data directory: %v", err)
	}
	log.Println("✅ Profile storage initialized")

	// Initialize Gemini AI
	geminiService, err := services.NewGeminiService(
		cfg.Gemini.APIKey,
		cfg.Gemini.Model,
		cfg.Gemini.EmbedModel,
		cfg.Worker.RetryMaxAttempts,
		cfg.Worker.RetryInitialDelay,
	)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Gemini AI: %v", err)
	}
	log.Println("✅ Gemini AI initialized successfully")

	// Initialize Qdrant
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
		log.Fatalf("❌ Failed to initialize Qdrant collection: %v", err)
	}
	log.Println("✅ Qdrant initialized successfully")

	// Initialize pipeline services
	dedupService := services.NewDeduplicatorService(
		jobRepo,
		cfg.Dedup.FuzzyEnabled,
		cfg.Dedup.FuzzyThreshold,
		cfg.Dedup.FuzzyCandidates,
	)
	scorerService := services.NewScorerService(
		jobRepo,
		profileService,
		geminiService,
		cfg.Worker.CallTimeout,
	)
	embedderService := services.NewEmbedderService(
		jobRepo,
		geminiService,
		vectorIndex,
		cfg.Worker.CallTimeout,
	)
	searchService := services.NewSimilaritySearchService(
		jobRepo,
		embedderService,
		vectorIndex,
	)
	log.Println("✅ Pipeline services initialized")

	// Register job board adapters
	registry := scrapers.NewRegistry()
	for _, board := range splitList(cfg.Scraper.GreenhouseBoards) {
		registry.Register(scrapers.NewGreenhouseScraper(board, cfg.Scraper.RequestDelay))
	}
	for _, org := range splitList(cfg.Scraper.LeverOrgs) {
		registry.Register(scrapers.NewLeverScraper(org, cfg.Scraper.RequestDelay))
	}
	log.Printf("✅ Registered %d job board adapters: %v\n", len(registry.Names()), registry.Names())

	// Initialize worker
	worker := services.NewWorker(cfg.Worker.Concurrency)
	log.Println("✅ Worker initialized successfully")

	// Start worker
	ctx := context.Background()
	worker.Start(ctx)
	log.Println("✅ Worker started successfully")

	// Initialize orchestrator
	orchestrator := services.NewOrchestratorService(
		registry,
		dedupService,
		scorerService,
		embedderService,
		runRepo,
		worker,
		cfg.Scraper.MaxParallel,
	)
	log.Println("✅ Orchestrator initialized")

	// Optional scheduled searches
	var scheduler services.Scheduler
	if cfg.Scheduler.Enabled {
		sources := splitList(cfg.Scheduler.Sources)
		if len(sources) == 0 {
			sources = registry.Names()
		}
		scheduler = services.NewScheduler(
			orchestrator,
			sources,
			cfg.Scheduler.IntervalHours,
			cfg.Scraper.MaxPages,
			true,
			true,
		)
		if err := scheduler.Start(); err != nil {
			log.Fatalf("❌ Failed to start scheduler: %v", err)
		}
	}

	// Initialize handlers
	jobHandler := handlers.NewJobHandler(jobRepo)
	searchHandler := handlers.NewSearchHandler(
		orchestrator,
		searchService,
		runRepo,
		registry.Names(),
		cfg.Scraper.MaxPages,
	)
	scoreHandler := handlers.NewScoreHandler(scorerService, worker)
	embeddingHandler := handlers.NewEmbeddingHandler(embedderService, searchService, jobRepo)
	profileHandler := handlers.NewProfileHandler(profileService)
	applicationHandler := handlers.NewApplicationHandler(appRepo, jobRepo)
	log.Println("✅ Handlers initialized")

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Canopy Job Pipeline API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// Routes
	api := app.Group("/api/v1")

	// Health check
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	// Jobs
	api.Get("/jobs", jobHandler.HandleListJobs)
	api.Get("/jobs/search", jobHandler.HandleSearchJobs)
	api.Get("/jobs/:id", jobHandler.HandleGetJob)
	api.Patch("/jobs/:id", jobHandler.HandleUpdateJob)
	api.Delete("/jobs/:id", jobHandler.HandleDeleteJob)

	// Scoring
	api.Post("/jobs/score", scoreHandler.HandleScoreBatch)
	api.Post("/jobs/:id/score", scoreHandler.HandleScoreJob)

	// Embeddings and similarity
	api.Post("/jobs/embed-all", embeddingHandler.HandleEmbedAll)
	api.Post("/jobs/:id/embed", embeddingHandler.HandleEmbedJob)
	api.Get("/jobs/:id/similar", embeddingHandler.HandleSimilarJobs)

	// Search runs
	api.Post("/search/run", searchHandler.HandleRunSearch)
	api.Get("/search/runs", searchHandler.HandleListRuns)
	api.Get("/search/semantic", searchHandler.HandleSemanticSearch)

	// Profile
	api.Get("/profile", profileHandler.HandleGetProfile)
	api.Put("/profile", profileHandler.HandleUpdateProfile)

	// Applications
	api.Post("/applications", applicationHandler.HandleCreateApplication)
	api.Get("/applications/:id", applicationHandler.HandleGetApplication)
	api.Get("/jobs/:id/applications", applicationHandler.HandleListJobApplications)

	// Root route
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Canopy Job Pipeline API",
			"version": "1.0.0",
			"endpoints": []string{
				"GET /api/v1/jobs",
				"POST /api/v1/search/run",
				"GET /api/v1/search/semantic",
				"POST /api/v1/jobs/:id/score",
				"GET /api/v1/jobs/:id/similar",
			},
		})
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("\n🛑 Shutting down server...")
		if scheduler != nil {
			scheduler.Stop()
		}
		worker.Stop()
		if err := app.Shutdown(); err != nil {
			log.Printf("❌ Server forced to shutdown: %v", err)
		}
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("🚀 Server starting on %s\n", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

func splitList(raw string) []string {
	var items []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
