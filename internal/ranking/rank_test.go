package ranking

import (
	"testing"
	"time"

	"github.com/adforge/patternbank/internal/pattern"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func daysAgo(d int) *time.Time {
	t := now.Add(-time.Duration(d) * 24 * time.Hour)
	return &t
}

func TestScoreComponents(t *testing.T) {
	query := Query{Category: "static_image", Platform: "instagram", Industry: "fitness"}

	tests := []struct {
		name string
		p    *pattern.Pattern
		want int
	}{
		{
			name: "full exact match with top tier",
			p: &pattern.Pattern{
				Category:       "static_image",
				Platform:       "instagram",
				Industry:       "fitness",
				EngagementTier: pattern.TierTop1,
			},
			want: 25 + 20 + 15 + 15,
		},
		{
			name: "category only",
			p:    &pattern.Pattern{Category: "static_image", Platform: "tiktok", Industry: "saas"},
			want: 25,
		},
		{
			name: "general platform partial credit",
			p:    &pattern.Pattern{Category: "video_thumbnail", Platform: pattern.PlatformGeneral, Industry: "saas"},
			want: 5,
		},
		{
			name: "no overlap",
			p:    &pattern.Pattern{Category: "banner", Platform: "tiktok", Industry: "saas"},
			want: 0,
		},
		{
			name: "unverified tier scores zero",
			p: &pattern.Pattern{
				Category:       "banner",
				Platform:       "tiktok",
				EngagementTier: pattern.TierUnverified,
			},
			want: 0,
		},
		{
			name: "recent use within a week",
			p: &pattern.Pattern{
				Category:   "banner",
				Platform:   "tiktok",
				LastUsedAt: daysAgo(3),
			},
			want: 10,
		},
		{
			name: "use within a month",
			p: &pattern.Pattern{
				Category:   "banner",
				Platform:   "tiktok",
				LastUsedAt: daysAgo(20),
			},
			want: 5,
		},
		{
			name: "stale use scores zero",
			p: &pattern.Pattern{
				Category:   "banner",
				Platform:   "tiktok",
				LastUsedAt: daysAgo(90),
			},
			want: 0,
		},
		{
			name: "heavy usage",
			p:    &pattern.Pattern{Category: "banner", Platform: "tiktok", UsageCount: 11},
			want: 5,
		},
		{
			name: "medium usage",
			p:    &pattern.Pattern{Category: "banner", Platform: "tiktok", UsageCount: 6},
			want: 3,
		},
		{
			name: "light usage",
			p:    &pattern.Pattern{Category: "banner", Platform: "tiktok", UsageCount: 1},
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.p, query, now, nil); got != tt.want {
				t.Errorf("Score = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestScoreEmptyQueryFieldsSkipMatching(t *testing.T) {
	p := &pattern.Pattern{Category: "static_image", Platform: "instagram", Industry: "fitness"}

	if got := Score(p, Query{}, now, nil); got != 0 {
		t.Errorf("empty query should contribute no match points, got %d", got)
	}
	if got := Score(p, Query{Category: "static_image"}, now, nil); got != 25 {
		t.Errorf("expected category points only, got %d", got)
	}
}

// The worked scenario: an exact-match pattern with a strong tier beats a
// pattern with nothing but a general platform.
func TestScoreExactBeatsGeneric(t *testing.T) {
	query := Query{Category: "static_image", Platform: "instagram", Industry: "fitness"}

	exact := &pattern.Pattern{
		Category:       "static_image",
		Platform:       "instagram",
		Industry:       "fitness",
		EngagementTier: pattern.TierTop10,
		UsageCount:     0,
	}
	generic := &pattern.Pattern{
		Category: "video_thumbnail",
		Platform: pattern.PlatformGeneral,
		Industry: "saas",
	}

	exactScore := Score(exact, query, now, nil)
	genericScore := Score(generic, query, now, nil)
	if exactScore != 68 {
		t.Errorf("expected exact score 68, got %d", exactScore)
	}
	if genericScore != 5 {
		t.Errorf("expected generic score 5, got %d", genericScore)
	}
	if exactScore <= genericScore {
		t.Error("exact match must outrank generic pattern")
	}
}

func TestRank(t *testing.T) {
	query := Query{Category: "static_image", Platform: "instagram"}

	strong := &pattern.Pattern{ID: "strong", Category: "static_image", Platform: "instagram", EngagementTier: pattern.TierTop1}
	middle := &pattern.Pattern{ID: "middle", Category: "static_image", Platform: "tiktok"}
	weak := &pattern.Pattern{ID: "weak", Category: "banner", Platform: "tiktok"}

	t.Run("descending order", func(t *testing.T) {
		got := Rank([]*pattern.Pattern{weak, strong, middle}, query, 0, now, nil)
		if len(got) != 3 {
			t.Fatalf("expected 3 results, got %d", len(got))
		}
		if got[0].ID != "strong" || got[1].ID != "middle" || got[2].ID != "weak" {
			t.Errorf("unexpected order: %s, %s, %s", got[0].ID, got[1].ID, got[2].ID)
		}
	})

	t.Run("limit truncates", func(t *testing.T) {
		got := Rank([]*pattern.Pattern{weak, strong, middle}, query, 2, now, nil)
		if len(got) != 2 {
			t.Fatalf("expected 2 results, got %d", len(got))
		}
		if got[0].ID != "strong" {
			t.Error("limit should keep the highest scores")
		}
	})

	t.Run("limit beyond input returns all", func(t *testing.T) {
		got := Rank([]*pattern.Pattern{weak, strong}, query, 10, now, nil)
		if len(got) != 2 {
			t.Errorf("expected 2 results, got %d", len(got))
		}
	})

	t.Run("empty input yields empty result", func(t *testing.T) {
		got := Rank(nil, query, 5, now, nil)
		if got == nil || len(got) != 0 {
			t.Errorf("expected empty non-nil slice, got %v", got)
		}
	})
}

func TestRankDeterministicTies(t *testing.T) {
	query := Query{Category: "static_image"}

	a := &pattern.Pattern{ID: "a", Category: "static_image"}
	b := &pattern.Pattern{ID: "b", Category: "static_image"}
	c := &pattern.Pattern{ID: "c", Category: "static_image"}
	input := []*pattern.Pattern{a, b, c}

	first := Rank(input, query, 0, now, nil)
	for i := 0; i < 10; i++ {
		again := Rank(input, query, 0, now, nil)
		for j := range first {
			if first[j].ID != again[j].ID {
				t.Fatalf("ranking not deterministic at position %d: %s vs %s", j, first[j].ID, again[j].ID)
			}
		}
	}

	// Ties preserve input order.
	if first[0].ID != "a" || first[1].ID != "b" || first[2].ID != "c" {
		t.Errorf("tie ordering should follow input order, got %s, %s, %s", first[0].ID, first[1].ID, first[2].ID)
	}
}

// Extra usage should never rank a pattern below an otherwise identical one.
func TestRankUsageMonotonic(t *testing.T) {
	query := Query{Category: "static_image"}
	base := &pattern.Pattern{ID: "base", Category: "static_image", UsageCount: 0}

	prev := Score(base, query, now, nil)
	for _, count := range []int{1, 3, 6, 9, 11, 50} {
		p := &pattern.Pattern{ID: "used", Category: "static_image", UsageCount: count}
		score := Score(p, query, now, nil)
		if score < prev {
			t.Errorf("usage count %d scored %d, below previous %d", count, score, prev)
		}
		prev = score
	}
}
