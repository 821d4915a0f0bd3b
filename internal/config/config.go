package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	BackendMemory    = "memory"
	BackendRedis     = "redis"
	BackendSQLite    = "sqlite"
	BackendFirestore = "firestore"
)

// Image encodings.
const (
	EncodingEmbedded = "embedded"
	EncodingStorage  = "storage"
)

type Config struct {
	Port                    string
	LogLevel                string
	StoreBackend            string // memory, redis, sqlite or firestore
	Profile                 string // scopes persisted collections to one user profile
	RedisURL                string
	RedisKeyPrefix          string
	SQLitePath              string
	FirebaseProjectID       string
	FirebaseBucketName      string
	FirebaseCredentialsPath string
	FirebaseCredentialsJSON string // For Vercel: raw JSON string
	ImageEncoding           string // embedded (data URI) or storage (Cloud Storage object)
	ImageMaxDimension       int    // longest edge after downscaling, 0 keeps the original size
	IngestConcurrency       int
	MaxUploadBytes          int64
	GeocodeEnabled          bool
	FallbackCaptureDate     string // dates photos without a timestamp, set by cmd/import
	CacheTTL                time.Duration
	CacheCleanupInterval    time.Duration
	AllowedOrigins          []string
	APIKeys                 []string // API keys for authentication (comma-separated), empty disables auth
	RateLimitRPS            float64
	RateLimitBurst          int
	IsVercel                bool // Detected via VERCEL env var
}

// Load reads configuration from environment variables and .env file.
// It loads the .env file if present, then populates the Config struct.
// Returns an error if required configuration is missing.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Port:                    getEnv("PORT", "8080"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		StoreBackend:            strings.ToLower(getEnv("STORE_BACKEND", BackendSQLite)),
		Profile:                 getEnv("PROFILE", "default"),
		RedisURL:                getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RedisKeyPrefix:          getEnv("REDIS_KEY_PREFIX", "travelmap"),
		SQLitePath:              getEnv("SQLITE_PATH", "travelmap.db"),
		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseBucketName:      getEnv("FIREBASE_BUCKET_NAME", ""),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		FirebaseCredentialsJSON: getEnv("FIREBASE_CREDENTIALS_JSON", ""),
		ImageEncoding:           strings.ToLower(getEnv("IMAGE_ENCODING", EncodingEmbedded)),
		ImageMaxDimension:       getIntEnv("IMAGE_MAX_DIMENSION", 1600),
		IngestConcurrency:       getIntEnv("INGEST_CONCURRENCY", 8),
		MaxUploadBytes:          int64(getIntEnv("MAX_UPLOAD_BYTES", 256<<20)),
		GeocodeEnabled:          getBoolEnv("GEOCODE_ENABLED", false),
		CacheTTL:                getDurationEnv("CACHE_TTL", 15*time.Minute),
		CacheCleanupInterval:    getDurationEnv("CACHE_CLEANUP_INTERVAL", 10*time.Minute),
		AllowedOrigins:          getList("ALLOWED_ORIGINS", []string{"*"}),
		APIKeys:                 getList("API_KEYS", []string{}),
		RateLimitRPS:            getFloatEnv("RATE_LIMIT_RPS", 10),
		RateLimitBurst:          getIntEnv("RATE_LIMIT_BURST", 20),
		IsVercel:                getEnv("VERCEL", "") != "",
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	backends := []string{BackendMemory, BackendRedis, BackendSQLite, BackendFirestore}
	if !slices.Contains(backends, c.StoreBackend) {
		return fmt.Errorf("STORE_BACKEND must be one of %s", strings.Join(backends, ", "))
	}
	if c.ImageEncoding != EncodingEmbedded && c.ImageEncoding != EncodingStorage {
		return fmt.Errorf("IMAGE_ENCODING must be %q or %q", EncodingEmbedded, EncodingStorage)
	}
	if c.Profile == "" {
		return fmt.Errorf("PROFILE is required")
	}

	switch c.StoreBackend {
	case BackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis backend")
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite backend")
		}
	}

	if c.NeedsGoogleCloud() {
		if c.FirebaseProjectID == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID is required")
		}
		if c.FirebaseCredentialsJSON == "" && c.FirebaseCredentialsPath == "" {
			return fmt.Errorf("either FIREBASE_CREDENTIALS_JSON or FIREBASE_CREDENTIALS_PATH must be set")
		}
	}
	if c.ImageEncoding == EncodingStorage && c.FirebaseBucketName == "" {
		return fmt.Errorf("FIREBASE_BUCKET_NAME is required when IMAGE_ENCODING=storage")
	}

	if c.IngestConcurrency <= 0 {
		return fmt.Errorf("INGEST_CONCURRENCY must be positive")
	}
	if c.ImageMaxDimension < 0 {
		return fmt.Errorf("IMAGE_MAX_DIMENSION cannot be negative")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	if c.CacheCleanupInterval <= 0 {
		return fmt.Errorf("CACHE_CLEANUP_INTERVAL must be positive")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

// NeedsGoogleCloud reports whether Firestore or Cloud Storage clients are required.
func (c *Config) NeedsGoogleCloud() bool {
	return c.StoreBackend == BackendFirestore || c.ImageEncoding == EncodingStorage
}

// Retrieves an environment variable or returns a default value if not set.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// Retrieves a duration from environment variable or returns a default value.
// It supports both time.Duration format (e.g., "10m", "12h") and integer minutes.
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

// Retrieves a comma-separated list from environment variable or returns a default value.
func getList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var out []string
		for _, v := range strings.Split(value, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
		return out
	}
	return defaultValue
}

// Retrieves a boolean from environment variable or returns a default value.
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
