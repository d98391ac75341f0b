package pattern

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testPattern(ownerID, hash string) *Pattern {
	return &Pattern{
		OwnerID:  ownerID,
		Name:     "hero split test",
		Category: "static_image",
		Platform: "instagram",
		Industry: "fitness",
		Layout: Layout{
			Structure:          StructureSplit,
			VisualHierarchy:    []string{"headline", "product", "cta"},
			WhitespaceUsage:    WhitespaceBalanced,
			FocalPointPosition: FocalLeftThird,
		},
		ColorPsychology: ColorPsychology{
			DominantMood:  "energetic",
			ColorScheme:   SchemeComplementary,
			ContrastLevel: ContrastHigh,
			EmotionalTone: "urgency",
		},
		HookPattern: HookPattern{
			HookType:            "problem-solution",
			HeadlineFormula:     "question-hook",
			CTAStyle:            CTADirect,
			PersuasionTechnique: "social-proof",
		},
		VisualElements: VisualElements{
			ImageStyle:        ImagePhotography,
			HumanPresence:     true,
			ProductVisibility: VisibilityProminent,
			BackgroundType:    BackgroundGradient,
		},
		EngagementTier:  TierTop5,
		ConfidenceScore: 0.85,
		SourceHash:      hash,
	}
}

func TestCreateAssignsIDAndTimestamps(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	created, err := repo.Create(ctx, testPattern("owner-1", "hash-a"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == "" {
		t.Error("expected generated ID")
	}
	if created.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
	if !created.IsActive {
		t.Error("expected new pattern to be active")
	}
	if created.UsageCount != 0 {
		t.Errorf("expected zero usage count, got %d", created.UsageCount)
	}
}

func TestCreateRequiresOwner(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	p := testPattern("", "hash-a")
	if _, err := repo.Create(ctx, p); !errors.Is(err, ErrMissingOwner) {
		t.Errorf("expected ErrMissingOwner, got %v", err)
	}
}

func TestCreateRejectsDuplicateHash(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	if _, err := repo.Create(ctx, testPattern("owner-1", "hash-a")); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}

	_, err := repo.Create(ctx, testPattern("owner-1", "hash-a"))
	if !errors.Is(err, ErrDuplicatePattern) {
		t.Errorf("expected ErrDuplicatePattern, got %v", err)
	}
}

func TestCreateSameHashDifferentOwners(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	if _, err := repo.Create(ctx, testPattern("owner-1", "shared-hash")); err != nil {
		t.Fatalf("owner-1 Create failed: %v", err)
	}
	if _, err := repo.Create(ctx, testPattern("owner-2", "shared-hash")); err != nil {
		t.Errorf("owner-2 Create with same hash should succeed: %v", err)
	}
}

func TestFindByHash(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	created, err := repo.Create(ctx, testPattern("owner-1", "hash-a"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	t.Run("hit", func(t *testing.T) {
		found, err := repo.FindByHash(ctx, "owner-1", "hash-a")
		if err != nil {
			t.Fatalf("FindByHash failed: %v", err)
		}
		if found.ID != created.ID {
			t.Errorf("expected ID %s, got %s", created.ID, found.ID)
		}
	})

	t.Run("miss", func(t *testing.T) {
		_, err := repo.FindByHash(ctx, "owner-1", "hash-z")
		if !errors.Is(err, ErrPatternNotFound) {
			t.Errorf("expected ErrPatternNotFound, got %v", err)
		}
	})

	t.Run("owner isolation", func(t *testing.T) {
		_, err := repo.FindByHash(ctx, "owner-2", "hash-a")
		if !errors.Is(err, ErrPatternNotFound) {
			t.Errorf("other owner should not see the pattern, got %v", err)
		}
	})

	t.Run("missing owner", func(t *testing.T) {
		_, err := repo.FindByHash(ctx, "", "hash-a")
		if !errors.Is(err, ErrMissingOwner) {
			t.Errorf("expected ErrMissingOwner, got %v", err)
		}
	})
}

func TestListActiveOrderingAndIsolation(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	current := base
	repo.timeNow = func() time.Time {
		current = current.Add(time.Minute)
		return current
	}

	first, _ := repo.Create(ctx, testPattern("owner-1", "hash-a"))
	second, _ := repo.Create(ctx, testPattern("owner-1", "hash-b"))
	if _, err := repo.Create(ctx, testPattern("owner-2", "hash-c")); err != nil {
		t.Fatalf("owner-2 Create failed: %v", err)
	}

	patterns, err := repo.ListActive(ctx, "owner-1")
	if err != nil {
		t.Fatalf("ListActive failed: %v", err)
	}
	if len(patterns) != 2 {
		t.Fatalf("expected 2 patterns, got %d", len(patterns))
	}
	if patterns[0].ID != second.ID || patterns[1].ID != first.ID {
		t.Error("expected newest-first ordering")
	}
}

func TestListActiveExcludesDeactivated(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	created, err := repo.Create(ctx, testPattern("owner-1", "hash-a"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := repo.Deactivate(ctx, created.ID); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}

	patterns, err := repo.ListActive(ctx, "owner-1")
	if err != nil {
		t.Fatalf("ListActive failed: %v", err)
	}
	if len(patterns) != 0 {
		t.Errorf("expected no active patterns, got %d", len(patterns))
	}

	// The stored row survives soft delete; dedup still works.
	if _, err := repo.FindByHash(ctx, "owner-1", "hash-a"); err != nil {
		t.Errorf("deactivated pattern should still resolve by hash: %v", err)
	}
}

func TestTouchUsage(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	created, err := repo.Create(ctx, testPattern("owner-1", "hash-a"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := repo.TouchUsage(ctx, created.ID); err != nil {
		t.Fatalf("TouchUsage failed: %v", err)
	}
	if err := repo.TouchUsage(ctx, created.ID); err != nil {
		t.Fatalf("second TouchUsage failed: %v", err)
	}

	found, err := repo.FindByHash(ctx, "owner-1", "hash-a")
	if err != nil {
		t.Fatalf("FindByHash failed: %v", err)
	}
	if found.UsageCount != 2 {
		t.Errorf("expected usage count 2, got %d", found.UsageCount)
	}
	if found.LastUsedAt == nil {
		t.Error("expected LastUsedAt to be set")
	}
}

func TestTouchUsageNotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	if err := repo.TouchUsage(ctx, "nonexistent"); !errors.Is(err, ErrPatternNotFound) {
		t.Errorf("expected ErrPatternNotFound, got %v", err)
	}
}

func TestDeactivateNotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	if err := repo.Deactivate(ctx, "nonexistent"); !errors.Is(err, ErrPatternNotFound) {
		t.Errorf("expected ErrPatternNotFound, got %v", err)
	}
}

func TestRepositoryReturnsClones(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	created, err := repo.Create(ctx, testPattern("owner-1", "hash-a"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	created.Name = "mutated"
	created.Layout.VisualHierarchy[0] = "mutated"

	found, err := repo.FindByHash(ctx, "owner-1", "hash-a")
	if err != nil {
		t.Fatalf("FindByHash failed: %v", err)
	}
	if found.Name == "mutated" {
		t.Error("stored pattern name mutated through returned copy")
	}
	if found.Layout.VisualHierarchy[0] == "mutated" {
		t.Error("stored visual hierarchy mutated through returned slice")
	}
}
