// Package ranking scores stored patterns against a retrieval query with
// calibration support, selecting the most useful patterns for a new ad
// generation task.
package ranking

import (
	"time"

	"github.com/adforge/patternbank/internal/pattern"
)

// MatchWeights defines the additive points for query-field matches.
type MatchWeights struct {
	Category        int `json:"category"`         // Exact category match (default: 25)
	Industry        int `json:"industry"`         // Exact industry match (default: 20)
	Platform        int `json:"platform"`         // Exact platform match (default: 15)
	PlatformGeneral int `json:"platform_general"` // Pattern platform is "general" (default: 5)
}

// TierWeights is the fixed lookup from engagement tier to bonus points.
// Unknown or absent tiers score zero.
type TierWeights map[string]int

// RecencyWeights defines bonuses for recently used patterns. Patterns never
// used get zero here; they are not penalized.
type RecencyWeights struct {
	WithinWeek  int `json:"within_week"`  // Used within 7 days (default: 10)
	WithinMonth int `json:"within_month"` // Used within 30 days (default: 5)
}

// UsageWeights defines popularity bonuses by usage count thresholds.
type UsageWeights struct {
	High   int `json:"high"`   // UsageCount > 10 (default: 5)
	Medium int `json:"medium"` // UsageCount > 5 (default: 3)
	Low    int `json:"low"`    // UsageCount > 0 (default: 1)
}

// Weights holds the full ranking weight configuration.
type Weights struct {
	Match   MatchWeights   `json:"match"`
	Tier    TierWeights    `json:"tier"`
	Recency RecencyWeights `json:"recency"`
	Usage   UsageWeights   `json:"usage"`
}

// DefaultWeights returns the default ranking weight configuration.
//
// Per-pattern score = category(25) + industry(20) + platform(15 | general 5)
// + tier(top-1:15, top-5:12, top-10:8, top-25:4) + recency(7d:10, 30d:5)
// + usage(>10:5, >5:3, >0:1).
func DefaultWeights() *Weights {
	return &Weights{
		Match: MatchWeights{
			Category:        25,
			Industry:        20,
			Platform:        15,
			PlatformGeneral: 5,
		},
		Tier: TierWeights{
			pattern.TierTop1:  15,
			pattern.TierTop5:  12,
			pattern.TierTop10: 8,
			pattern.TierTop25: 4,
		},
		Recency: RecencyWeights{
			WithinWeek:  10,
			WithinMonth: 5,
		},
		Usage: UsageWeights{
			High:   5,
			Medium: 3,
			Low:    1,
		},
	}
}

// MatchScore computes the query-match component for a pattern.
func MatchScore(p *pattern.Pattern, q Query, w MatchWeights) int {
	score := 0
	if q.Category != "" && p.Category == q.Category {
		score += w.Category
	}
	if q.Industry != "" && p.Industry == q.Industry {
		score += w.Industry
	}
	if q.Platform != "" {
		if p.Platform == q.Platform {
			score += w.Platform
		} else if p.Platform == pattern.PlatformGeneral {
			score += w.PlatformGeneral
		}
	}
	return score
}

// TierScore returns the engagement tier bonus via fixed lookup. Absent,
// unverified and unknown tiers score zero.
func TierScore(tier string, w TierWeights) int {
	return w[tier]
}

// RecencyScore returns the recency bonus based on when the pattern was last
// used relative to now. Never-used patterns score zero, not negative.
func RecencyScore(lastUsedAt *time.Time, now time.Time, w RecencyWeights) int {
	if lastUsedAt == nil {
		return 0
	}
	since := now.Sub(*lastUsedAt)
	switch {
	case since <= 7*24*time.Hour:
		return w.WithinWeek
	case since <= 30*24*time.Hour:
		return w.WithinMonth
	default:
		return 0
	}
}

// UsageScore returns the popularity bonus based on cumulative usage count.
func UsageScore(usageCount int, w UsageWeights) int {
	switch {
	case usageCount > 10:
		return w.High
	case usageCount > 5:
		return w.Medium
	case usageCount > 0:
		return w.Low
	default:
		return 0
	}
}
