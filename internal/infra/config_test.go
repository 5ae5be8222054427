package infra

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/repurposer")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.StorageBackend != "local" {
		t.Errorf("StorageBackend = %q, want local", cfg.StorageBackend)
	}
	if cfg.WorkerConcurrency != 4 {
		t.Errorf("WorkerConcurrency = %d, want 4", cfg.WorkerConcurrency)
	}
	if cfg.WorkerMaxAttempts != 3 {
		t.Errorf("WorkerMaxAttempts = %d, want 3", cfg.WorkerMaxAttempts)
	}
	if cfg.WorkerRetryBase != 30*time.Second {
		t.Errorf("WorkerRetryBase = %v, want 30s", cfg.WorkerRetryBase)
	}
	if want := []string{"openai", "gemini"}; !reflect.DeepEqual(cfg.TextProviders, want) {
		t.Errorf("TextProviders = %v, want %v", cfg.TextProviders, want)
	}
	if want := []string{"dalle", "stability"}; !reflect.DeepEqual(cfg.ImageProviders, want) {
		t.Errorf("ImageProviders = %v, want %v", cfg.ImageProviders, want)
	}
}

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error when DATABASE_URL is missing")
	}
}

func TestLoadConfigS3RequiresBucket(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/repurposer")
	t.Setenv("STORAGE_BACKEND", "s3")
	t.Setenv("S3_BUCKET", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error when STORAGE_BACKEND=s3 without S3_BUCKET")
	}
}

func TestLoadConfigProviderOrdering(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/repurposer")
	t.Setenv("TEXT_PROVIDERS", " gemini , openai ")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if want := []string{"gemini", "openai"}; !reflect.DeepEqual(cfg.TextProviders, want) {
		t.Errorf("TextProviders = %v, want %v", cfg.TextProviders, want)
	}
}
