package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("IMAGE_ENCODING", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.StoreBackend != BackendSQLite {
		t.Errorf("StoreBackend = %q, want %q", cfg.StoreBackend, BackendSQLite)
	}
	if cfg.ImageEncoding != EncodingEmbedded {
		t.Errorf("ImageEncoding = %q, want %q", cfg.ImageEncoding, EncodingEmbedded)
	}
	if cfg.CacheTTL != 15*time.Minute {
		t.Errorf("CacheTTL = %v, want 15m", cfg.CacheTTL)
	}
	if cfg.NeedsGoogleCloud() {
		t.Error("NeedsGoogleCloud() = true for sqlite + embedded")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "Redis")
	t.Setenv("CACHE_TTL", "30")
	t.Setenv("API_KEYS", "one, two ,,")
	t.Setenv("INGEST_CONCURRENCY", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.StoreBackend != BackendRedis {
		t.Errorf("StoreBackend = %q, want %q", cfg.StoreBackend, BackendRedis)
	}
	if cfg.CacheTTL != 30*time.Minute {
		t.Errorf("CacheTTL = %v, want 30m (integer minutes)", cfg.CacheTTL)
	}
	if len(cfg.APIKeys) != 2 || cfg.APIKeys[0] != "one" || cfg.APIKeys[1] != "two" {
		t.Errorf("APIKeys = %q, want [one two]", cfg.APIKeys)
	}
	if cfg.IngestConcurrency != 3 {
		t.Errorf("IngestConcurrency = %d, want 3", cfg.IngestConcurrency)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			StoreBackend:         BackendMemory,
			ImageEncoding:        EncodingEmbedded,
			Profile:              "default",
			IngestConcurrency:    4,
			MaxUploadBytes:       1 << 20,
			CacheTTL:             time.Minute,
			CacheCleanupInterval: time.Minute,
			RateLimitRPS:         1,
			RateLimitBurst:       1,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid memory config", mutate: func(c *Config) {}},
		{name: "unknown backend", mutate: func(c *Config) { c.StoreBackend = "postgres" }, wantErr: true},
		{name: "unknown encoding", mutate: func(c *Config) { c.ImageEncoding = "base32" }, wantErr: true},
		{name: "firestore without project", mutate: func(c *Config) {
			c.StoreBackend = BackendFirestore
			c.FirebaseCredentialsPath = "creds.json"
		}, wantErr: true},
		{name: "firestore with project and credentials", mutate: func(c *Config) {
			c.StoreBackend = BackendFirestore
			c.FirebaseProjectID = "demo"
			c.FirebaseCredentialsJSON = "{}"
		}},
		{name: "storage encoding without bucket", mutate: func(c *Config) {
			c.ImageEncoding = EncodingStorage
			c.FirebaseProjectID = "demo"
			c.FirebaseCredentialsJSON = "{}"
		}, wantErr: true},
		{name: "zero concurrency", mutate: func(c *Config) { c.IngestConcurrency = 0 }, wantErr: true},
		{name: "empty profile", mutate: func(c *Config) { c.Profile = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr && err == nil {
				t.Errorf("Validate() expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}
}
