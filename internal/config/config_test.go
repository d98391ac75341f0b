package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// configEnvKeys lists every environment variable Load reads, so tests can
// reset them between cases.
var configEnvKeys = []string{
	"PATTERNBANK_ENV", "DATABASE_URL",
	"VISION_ENDPOINT", "VISION_MODEL", "VISION_TIMEOUT_SECONDS", "VISION_MAX_RETRIES",
	"REDIS_URL", "PRIVACY_CACHE_TTL_HOURS",
	"MAX_UPLOAD_SIZE_MB", "MAX_IMAGE_DIMENSION",
	"RANKING_CALIBRATION_PATH", "FORBIDDEN_TERMS",
	"TRACING_ENABLED", "TRACING_EXPORTER_TYPE", "TRACING_OTLP_ENDPOINT",
	"TRACING_SAMPLING_RATE", "TRACING_INSECURE",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnvKeys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/patternbank")
	t.Setenv("VISION_ENDPOINT", "http://localhost:11434")
	t.Setenv("VISION_MODEL", "llava:13b")
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	setRequiredEnv(t)
	t.Setenv("PATTERNBANK_ENV", "production")
	t.Setenv("VISION_TIMEOUT_SECONDS", "120")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("FORBIDDEN_TERMS", "acme, globex ,  initech")
	t.Setenv("TRACING_ENABLED", "true")
	t.Setenv("TRACING_SAMPLING_RATE", "0.5")

	cfg, errs := Load("")
	if len(errs) != 0 {
		t.Fatalf("unexpected validation errors: %v", errs)
	}
	if cfg.Env != "production" {
		t.Errorf("expected production env, got %q", cfg.Env)
	}
	if cfg.VisionTimeoutSeconds != 120 {
		t.Errorf("expected timeout 120, got %d", cfg.VisionTimeoutSeconds)
	}
	if cfg.RedisURL != "redis://localhost:6379" {
		t.Errorf("unexpected redis url %q", cfg.RedisURL)
	}
	if len(cfg.ForbiddenTerms) != 3 || cfg.ForbiddenTerms[1] != "globex" {
		t.Errorf("forbidden terms not parsed and trimmed: %v", cfg.ForbiddenTerms)
	}
	if !cfg.TracingEnabled || cfg.TracingSamplingRate != 0.5 {
		t.Errorf("tracing config not applied: %+v", cfg)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	setRequiredEnv(t)

	cfg, errs := Load("")
	if len(errs) != 0 {
		t.Fatalf("unexpected validation errors: %v", errs)
	}
	if cfg.Env != DefaultEnv {
		t.Errorf("expected default env, got %q", cfg.Env)
	}
	if cfg.VisionTimeoutSeconds != DefaultVisionTimeoutSeconds {
		t.Errorf("expected default timeout, got %d", cfg.VisionTimeoutSeconds)
	}
	if cfg.VisionMaxRetries != DefaultVisionMaxRetries {
		t.Errorf("expected default retries, got %d", cfg.VisionMaxRetries)
	}
	if cfg.MaxUploadSizeMB != DefaultMaxUploadSizeMB {
		t.Errorf("expected default upload size, got %d", cfg.MaxUploadSizeMB)
	}
	if cfg.TracingSamplingRate != DefaultTracingSamplingRate {
		t.Errorf("expected default sampling rate, got %v", cfg.TracingSamplingRate)
	}
	if cfg.RedisURL != "" {
		t.Errorf("redis should be disabled by default, got %q", cfg.RedisURL)
	}
}

func TestLoadValidation(t *testing.T) {
	clearEnv(t)

	_, errs := Load("")
	wantErrs := []error{ErrMissingDatabaseURL, ErrMissingVisionEndpoint, ErrMissingVisionModel}
	for _, want := range wantErrs {
		found := false
		for _, got := range errs {
			if errors.Is(got, want) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected validation error %v in %v", want, errs)
		}
	}
}

func TestLoadInvalidSamplingRate(t *testing.T) {
	clearEnv(t)
	setRequiredEnv(t)
	t.Setenv("TRACING_SAMPLING_RATE", "1.5")

	_, errs := Load("")
	found := false
	for _, err := range errs {
		if errors.Is(err, ErrInvalidSamplingRate) {
			found = true
		}
	}
	if !found {
		t.Errorf("expected ErrInvalidSamplingRate in %v", errs)
	}
}

func TestLoadInvalidInteger(t *testing.T) {
	clearEnv(t)
	setRequiredEnv(t)
	t.Setenv("VISION_TIMEOUT_SECONDS", "not-a-number")

	_, errs := Load("")
	found := false
	for _, err := range errs {
		if errors.Is(err, ErrInvalidInteger) {
			found = true
		}
	}
	if !found {
		t.Errorf("expected ErrInvalidInteger in %v", errs)
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
database_url: postgres://filehost/patternbank
vision_endpoint: http://filehost:11434
vision_model: llava:7b
vision_timeout_seconds: 90
forbidden_terms:
  - acme
  - globex
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, errs := Load(path)
	if len(errs) != 0 {
		t.Fatalf("unexpected validation errors: %v", errs)
	}
	if cfg.DatabaseURL != "postgres://filehost/patternbank" {
		t.Errorf("file value not applied: %q", cfg.DatabaseURL)
	}
	if cfg.VisionTimeoutSeconds != 90 {
		t.Errorf("file int value not applied: %d", cfg.VisionTimeoutSeconds)
	}
	if len(cfg.ForbiddenTerms) != 2 {
		t.Errorf("file list not applied: %v", cfg.ForbiddenTerms)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
database_url: postgres://filehost/patternbank
vision_endpoint: http://filehost:11434
vision_model: llava:7b
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("VISION_MODEL", "llava:34b")

	cfg, errs := Load(path)
	if len(errs) != 0 {
		t.Fatalf("unexpected validation errors: %v", errs)
	}
	if cfg.VisionModel != "llava:34b" {
		t.Errorf("environment should override file, got %q", cfg.VisionModel)
	}
	if cfg.DatabaseURL != "postgres://filehost/patternbank" {
		t.Errorf("unset env should fall back to file, got %q", cfg.DatabaseURL)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	clearEnv(t)
	setRequiredEnv(t)

	_, errs := Load("/nonexistent/config.yaml")
	if len(errs) == 0 {
		t.Error("expected error for missing config file")
	}
}
