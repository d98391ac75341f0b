package ranking

import (
	"sort"
	"time"

	"github.com/adforge/patternbank/internal/pattern"
)

// Query describes a retrieval context. Empty fields do not participate in
// matching.
type Query struct {
	Category string
	Platform string
	Industry string
}

// Score computes the full additive relevance score for one pattern against a
// query at the given reference time.
func Score(p *pattern.Pattern, q Query, now time.Time, weights *Weights) int {
	if weights == nil {
		weights = DefaultWeights()
	}
	return MatchScore(p, q, weights.Match) +
		TierScore(p.EngagementTier, weights.Tier) +
		RecencyScore(p.LastUsedAt, now, weights.Recency) +
		UsageScore(p.UsageCount, weights.Usage)
}

// Rank orders patterns by descending score and returns the top limit.
// Ties break by input order (first seen wins), so the result is fully
// deterministic for identical inputs. A limit <= 0 returns all patterns.
// Empty input yields an empty result, never an error.
func Rank(patterns []*pattern.Pattern, q Query, limit int, now time.Time, weights *Weights) []*pattern.Pattern {
	if len(patterns) == 0 {
		return []*pattern.Pattern{}
	}
	if weights == nil {
		weights = DefaultWeights()
	}

	type scored struct {
		p     *pattern.Pattern
		score int
	}
	ranked := make([]scored, len(patterns))
	for i, p := range patterns {
		ranked[i] = scored{p: p, score: Score(p, q, now, weights)}
	}

	// SliceStable preserves input order within equal scores.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if limit <= 0 || limit > len(ranked) {
		limit = len(ranked)
	}
	result := make([]*pattern.Pattern, limit)
	for i := 0; i < limit; i++ {
		result[i] = ranked[i].p
	}
	return result
}
