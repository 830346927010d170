package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Qdrant    QdrantConfig
	Gemini    GeminiConfig
	Profile   ProfileConfig
	Scraper   ScraperConfig
	Dedup     DedupConfig
	Worker    WorkerConfig
	Scheduler SchedulerConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
	VectorSize int
}

type GeminiConfig struct {
	APIKey     string
	Model      string
	EmbedModel string
}

type ProfileConfig struct {
	Path string
}

type ScraperConfig struct {
	MaxParallel      int
	RequestDelay     time.Duration
	MaxPages         int
	GreenhouseBoards string
	LeverOrgs        string
}

type DedupConfig struct {
	FuzzyEnabled    bool
	FuzzyThreshold  float64
	FuzzyCandidates int
}

type WorkerConfig struct {
	Concurrency       int
	RetryMaxAttempts  int
	RetryInitialDelay time.Duration
	CallTimeout       time.Duration
}

type SchedulerConfig struct {
	Enabled       bool
	IntervalHours int
	Sources       string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using default values.")
	}

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "3000"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "canopy"),
		},
		Qdrant: QdrantConfig{
			URL:        getEnv("QDRANT_URL", "http://localhost:6333"),
			APIKey:     getEnv("QDRANT_API_KEY", ""),
			Collection: getEnv("QDRANT_COLLECTION", "canopy_jobs"),
			VectorSize: getEnvAsInt("QDRANT_VECTOR_SIZE", 768),
		},
		Gemini: GeminiConfig{
			APIKey:     getEnv("GEMINI_API_KEY", ""),
			Model:      getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			EmbedModel: getEnv("GEMINI_EMBED_MODEL", "text-embedding-004"),
		},
		Profile: ProfileConfig{
			Path: getEnv("PROFILE_PATH", "./data/profile.json"),
		},
		Scraper: ScraperConfig{
			MaxParallel:      getEnvAsInt("SCRAPER_MAX_PARALLEL", 3),
			RequestDelay:     getEnvAsDuration("SCRAPER_REQUEST_DELAY", "2s"),
			MaxPages:         getEnvAsInt("SCRAPER_MAX_PAGES", 3),
			GreenhouseBoards: getEnv("GREENHOUSE_BOARDS", ""),
			LeverOrgs:        getEnv("LEVER_ORGS", ""),
		},
		Dedup: DedupConfig{
			FuzzyEnabled:    getEnvAsBool("DEDUP_FUZZY_ENABLED", true),
			FuzzyThreshold:  getEnvAsFloat("DEDUP_FUZZY_THRESHOLD", 0.85),
			FuzzyCandidates: getEnvAsInt("DEDUP_FUZZY_CANDIDATES", 200),
		},
		Worker: WorkerConfig{
			Concurrency:       getEnvAsInt("WORKER_CONCURRENCY", 3),
			RetryMaxAttempts:  getEnvAsInt("RETRY_MAX_ATTEMPTS", 3),
			RetryInitialDelay: getEnvAsDuration("RETRY_INITIAL_DELAY", "2s"),
			CallTimeout:       getEnvAsDuration("CALL_TIMEOUT", "60s"),
		},
		Scheduler: SchedulerConfig{
			Enabled:       getEnvAsBool("SCHEDULE_ENABLED", false),
			IntervalHours: getEnvAsInt("SCHEDULE_INTERVAL_HOURS", 6),
			Sources:       getEnv("SCHEDULE_SOURCES", ""),
		},
	}
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
