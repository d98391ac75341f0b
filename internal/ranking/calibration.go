package ranking

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// CalibrationConfig represents the JSON structure of the calibration file.
type CalibrationConfig struct {
	Version string  `json:"version"` // Config version for future compatibility
	Weights Weights `json:"weights"` // Weight configurations
}

// LoadCalibration loads ranking weights from a JSON calibration file,
// allowing deploy-time tuning without code changes. If the file is missing
// or unparseable, default weights are returned alongside the error so
// callers degrade gracefully. Zero-valued sections in the file are replaced
// by their defaults.
func LoadCalibration(filePath string) (*Weights, error) {
	if filePath == "" {
		return DefaultWeights(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Warn("failed to read calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to read calibration file: %w", err)
	}

	var config CalibrationConfig
	if err := json.Unmarshal(data, &config); err != nil {
		slog.Warn("failed to parse calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to parse calibration file: %w", err)
	}

	weights := mergeWithDefaults(config.Weights)
	slog.Info("loaded ranking calibration", "path", filePath, "version", config.Version)
	return weights, nil
}

// mergeWithDefaults fills zero-valued sections of a partial calibration with
// the default weights.
func mergeWithDefaults(w Weights) *Weights {
	defaults := DefaultWeights()

	if w.Match == (MatchWeights{}) {
		w.Match = defaults.Match
	}
	if len(w.Tier) == 0 {
		w.Tier = defaults.Tier
	}
	if w.Recency == (RecencyWeights{}) {
		w.Recency = defaults.Recency
	}
	if w.Usage == (UsageWeights{}) {
		w.Usage = defaults.Usage
	}
	return &w
}
