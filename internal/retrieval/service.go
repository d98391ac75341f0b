// Package retrieval exposes the read side of the pattern engine: ranked
// pattern lookup for a generation context and prompt-ready formatting. Both
// operations are read-only and safe to call concurrently with ingestion.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/adforge/patternbank/internal/pattern"
	"github.com/adforge/patternbank/internal/prompt"
	"github.com/adforge/patternbank/internal/ranking"
)

// DefaultLimit is the number of patterns returned when the caller does not
// specify one.
const DefaultLimit = 5

// Request describes a retrieval context. Empty classification fields do not
// participate in matching.
type Request struct {
	OwnerID  string
	Category string
	Platform string
	Industry string
	Limit    int
}

// Service provides ranked retrieval over stored patterns.
type Service struct {
	repo    pattern.Repository
	weights *ranking.Weights
	logger  *slog.Logger
	timeNow func() time.Time
}

// Config holds configuration for the retrieval service.
type Config struct {
	// Repository stores patterns. Required.
	Repository pattern.Repository
	// Weights calibrates ranking. Optional; defaults apply when nil.
	Weights *ranking.Weights
	// Logger for retrieval diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// NewService creates a new retrieval service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Repository == nil {
		return nil, errors.New("repository is required")
	}
	if cfg.Weights == nil {
		cfg.Weights = ranking.DefaultWeights()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Service{
		repo:    cfg.Repository,
		weights: cfg.Weights,
		logger:  cfg.Logger,
		timeNow: time.Now,
	}, nil
}

// GetRelevantPatterns returns the owner's active patterns ranked against the
// request context, limited to req.Limit (DefaultLimit when unset). An owner
// with no patterns gets an empty slice, not an error.
func (s *Service) GetRelevantPatterns(ctx context.Context, req Request) ([]*pattern.Pattern, error) {
	if req.OwnerID == "" {
		return nil, pattern.ErrMissingOwner
	}
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	active, err := s.repo.ListActive(ctx, req.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("list active patterns: %w", err)
	}

	ranked := ranking.Rank(active, ranking.Query{
		Category: req.Category,
		Platform: req.Platform,
		Industry: req.Industry,
	}, limit, s.timeNow(), s.weights)

	s.logger.Debug("ranked patterns for retrieval",
		"owner_id", req.OwnerID,
		"candidates", len(active),
		"returned", len(ranked),
	)
	return ranked, nil
}

// FormatPatternsForPrompt renders patterns into the deterministic text block
// consumed by the downstream generation prompt builder.
func (s *Service) FormatPatternsForPrompt(patterns []*pattern.Pattern) string {
	return prompt.Format(patterns)
}

// MarkUsed records that a pattern was actually used by a consumer,
// incrementing its usage count and stamping last_used_at.
func (s *Service) MarkUsed(ctx context.Context, patternID string) error {
	return s.repo.TouchUsage(ctx, patternID)
}
