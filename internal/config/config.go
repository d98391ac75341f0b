// Package config provides configuration loading and validation for the
// pattern engine. It uses koanf to merge environment variables with optional
// file overrides; environment variables take precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration values for the pattern engine.
type Config struct {
	// Environment (development, staging, production)
	Env string `koanf:"env"`

	// Database
	DatabaseURL string `koanf:"database_url"`

	// Vision model provider (Ollama-compatible API)
	VisionEndpoint       string `koanf:"vision_endpoint"`
	VisionModel          string `koanf:"vision_model"`
	VisionTimeoutSeconds int    `koanf:"vision_timeout_seconds"`
	VisionMaxRetries     int    `koanf:"vision_max_retries"`

	// Redis (optional privacy verdict cache; empty disables caching)
	RedisURL             string `koanf:"redis_url"`
	PrivacyCacheTTLHours int    `koanf:"privacy_cache_ttl_hours"`

	// Upload limits
	MaxUploadSizeMB   int `koanf:"max_upload_size_mb"`
	MaxImageDimension int `koanf:"max_image_dimension"`

	// Ranking calibration file (optional; defaults apply when empty)
	RankingCalibrationPath string `koanf:"ranking_calibration_path"`

	// Extra forbidden terms for the sanitizer lexicon, comma-separated
	ForbiddenTerms []string `koanf:"forbidden_terms"`

	// Tracing
	TracingEnabled      bool    `koanf:"tracing_enabled"`
	TracingExporterType string  `koanf:"tracing_exporter_type"`
	TracingOTLPEndpoint string  `koanf:"tracing_otlp_endpoint"`
	TracingSamplingRate float64 `koanf:"tracing_sampling_rate"`
	TracingInsecure     bool    `koanf:"tracing_insecure"`
}

// Configuration validation errors.
var (
	ErrMissingDatabaseURL    = errors.New("DATABASE_URL is required")
	ErrMissingVisionEndpoint = errors.New("VISION_ENDPOINT is required")
	ErrMissingVisionModel    = errors.New("VISION_MODEL is required")
	ErrInvalidSamplingRate   = errors.New("TRACING_SAMPLING_RATE must be between 0 and 1")
	ErrInvalidInteger        = errors.New("value must be a valid integer")
)

// Default values for non-secret configuration.
const (
	DefaultEnv                  = "development"
	DefaultVisionTimeoutSeconds = 60
	DefaultVisionMaxRetries     = 2
	DefaultPrivacyCacheTTLHours = 24
	DefaultMaxUploadSizeMB      = 15
	DefaultMaxImageDimension    = 2048
	DefaultTracingSamplingRate  = 0.1
)

// Load reads configuration from environment variables and an optional config
// file. Environment variables take precedence over file values. Returns the
// loaded config and a slice of validation errors (empty if valid). If a
// config file path is provided and the file cannot be loaded, an error is
// returned.
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")
	var loadErrs []error

	// File values load first (lower precedence).
	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	visionTimeout, err := getEnvIntOrDefault("VISION_TIMEOUT_SECONDS", k.Int("vision_timeout_seconds"), DefaultVisionTimeoutSeconds)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}
	visionRetries, err := getEnvIntOrDefault("VISION_MAX_RETRIES", k.Int("vision_max_retries"), DefaultVisionMaxRetries)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}
	cacheTTL, err := getEnvIntOrDefault("PRIVACY_CACHE_TTL_HOURS", k.Int("privacy_cache_ttl_hours"), DefaultPrivacyCacheTTLHours)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}
	maxUploadSize, err := getEnvIntOrDefault("MAX_UPLOAD_SIZE_MB", k.Int("max_upload_size_mb"), DefaultMaxUploadSizeMB)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}
	maxDimension, err := getEnvIntOrDefault("MAX_IMAGE_DIMENSION", k.Int("max_image_dimension"), DefaultMaxImageDimension)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}
	samplingRate, err := getEnvFloatOrDefault("TRACING_SAMPLING_RATE", k.Float64("tracing_sampling_rate"), DefaultTracingSamplingRate)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}

	cfg := &Config{
		Env:                    getEnvOrDefault("PATTERNBANK_ENV", k.String("env"), DefaultEnv),
		DatabaseURL:            getEnvOrKoanf("DATABASE_URL", k, "database_url"),
		VisionEndpoint:         getEnvOrKoanf("VISION_ENDPOINT", k, "vision_endpoint"),
		VisionModel:            getEnvOrKoanf("VISION_MODEL", k, "vision_model"),
		VisionTimeoutSeconds:   visionTimeout,
		VisionMaxRetries:       visionRetries,
		RedisURL:               getEnvOrKoanf("REDIS_URL", k, "redis_url"),
		PrivacyCacheTTLHours:   cacheTTL,
		MaxUploadSizeMB:        maxUploadSize,
		MaxImageDimension:      maxDimension,
		RankingCalibrationPath: getEnvOrKoanf("RANKING_CALIBRATION_PATH", k, "ranking_calibration_path"),
		ForbiddenTerms:         getEnvListOrKoanf("FORBIDDEN_TERMS", k, "forbidden_terms"),
		TracingEnabled:         getEnvBoolOrKoanf("TRACING_ENABLED", k, "tracing_enabled"),
		TracingExporterType:    getEnvOrKoanf("TRACING_EXPORTER_TYPE", k, "tracing_exporter_type"),
		TracingOTLPEndpoint:    getEnvOrKoanf("TRACING_OTLP_ENDPOINT", k, "tracing_otlp_endpoint"),
		TracingSamplingRate:    samplingRate,
		TracingInsecure:        getEnvBoolOrKoanf("TRACING_INSECURE", k, "tracing_insecure"),
	}

	errs := cfg.Validate()
	errs = append(loadErrs, errs...)
	return cfg, errs
}

// Validate checks required values and value ranges. Returns all violations,
// not just the first.
func (c *Config) Validate() []error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, ErrMissingDatabaseURL)
	}
	if c.VisionEndpoint == "" {
		errs = append(errs, ErrMissingVisionEndpoint)
	}
	if c.VisionModel == "" {
		errs = append(errs, ErrMissingVisionModel)
	}
	if c.TracingSamplingRate < 0 || c.TracingSamplingRate > 1 {
		errs = append(errs, ErrInvalidSamplingRate)
	}
	return errs
}

// getEnvOrKoanf returns the environment variable value if set, otherwise the koanf value.
func getEnvOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	return k.String(koanfKey)
}

// getEnvOrDefault returns the environment variable value if set, otherwise the koanf value, or default.
func getEnvOrDefault(envKey string, koanfVal string, defaultVal string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvBoolOrKoanf returns the environment variable as bool if set,
// otherwise the koanf value. Unparseable env values read as false.
func getEnvBoolOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) bool {
	if val := os.Getenv(envKey); val != "" {
		switch strings.ToLower(val) {
		case "true", "1", "yes", "on":
			return true
		default:
			return false
		}
	}
	return k.Bool(koanfKey)
}

// getEnvListOrKoanf returns the environment variable split on commas if set,
// otherwise the koanf string slice.
func getEnvListOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) []string {
	if val := os.Getenv(envKey); val != "" {
		parts := strings.Split(val, ",")
		var out []string
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	}
	return k.Strings(koanfKey)
}

// getEnvIntOrDefault returns the environment variable as int if set,
// otherwise the koanf value, or default. Returns an error if the environment
// variable is set but cannot be parsed as an integer.
func getEnvIntOrDefault(envKey string, koanfVal int, defaultVal int) (int, error) {
	if val := os.Getenv(envKey); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", envKey, ErrInvalidInteger)
		}
		return i, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// getEnvFloatOrDefault returns the environment variable as float64 if set,
// otherwise the koanf value, or default. Returns an error if the environment
// variable is set but cannot be parsed as a float.
func getEnvFloatOrDefault(envKey string, koanfVal float64, defaultVal float64) (float64, error) {
	if val := os.Getenv(envKey); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid float: %w", envKey, err)
		}
		return f, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}
