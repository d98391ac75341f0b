package prompt

import (
	"strings"
	"testing"

	"github.com/adforge/patternbank/internal/pattern"
)

func samplePattern(name string) *pattern.Pattern {
	return &pattern.Pattern{
		ID:         "3f2a9c8e-0000-0000-0000-000000000000",
		OwnerID:    "owner-secret",
		Name:       name,
		SourceHash: "deadbeefcafe",
		Layout: pattern.Layout{
			Structure:          pattern.StructureSplit,
			VisualHierarchy:    []string{"headline", "product", "cta"},
			WhitespaceUsage:    pattern.WhitespaceBalanced,
			FocalPointPosition: pattern.FocalLeftThird,
		},
		ColorPsychology: pattern.ColorPsychology{
			DominantMood:  "energetic",
			ColorScheme:   pattern.SchemeComplementary,
			ContrastLevel: pattern.ContrastHigh,
			EmotionalTone: "urgency",
		},
		HookPattern: pattern.HookPattern{
			HookType:            "problem-solution",
			HeadlineFormula:     "question",
			CTAStyle:            pattern.CTADirect,
			PersuasionTechnique: "social-proof",
		},
		VisualElements: pattern.VisualElements{
			ImageStyle:        pattern.ImagePhotography,
			HumanPresence:     true,
			ProductVisibility: pattern.VisibilityProminent,
			Iconography:       false,
			BackgroundType:    pattern.BackgroundGradient,
		},
	}
}

func TestFormatEmptyInput(t *testing.T) {
	if got := Format(nil); got != "" {
		t.Errorf("expected empty string for no patterns, got %q", got)
	}
	if got := Format([]*pattern.Pattern{}); got != "" {
		t.Errorf("expected empty string for empty slice, got %q", got)
	}
}

func TestFormatSinglePattern(t *testing.T) {
	got := Format([]*pattern.Pattern{samplePattern("hero split")})

	for _, want := range []string{
		"Proven design patterns from high-performing ads:",
		"PATTERN 1: hero split",
		"split structure",
		"focal point left-third",
		"balanced whitespace",
		"hierarchy: headline > product > cta",
		"energetic (complementary scheme, high contrast, urgency tone)",
		"problem-solution hook, question formula, direct CTA, social-proof technique",
		"photography, prominent product, gradient background",
		"human presence",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected output to contain %q\noutput:\n%s", want, got)
		}
	}

	// Iconography is false on the sample and must not appear.
	if strings.Contains(got, "iconography") {
		t.Error("unset iconography flag should be omitted")
	}
}

func TestFormatNumbersPatternsSequentially(t *testing.T) {
	got := Format([]*pattern.Pattern{samplePattern("first"), samplePattern("second")})
	if !strings.Contains(got, "PATTERN 1: first") || !strings.Contains(got, "PATTERN 2: second") {
		t.Errorf("expected sequential numbering, got:\n%s", got)
	}
	if strings.Index(got, "PATTERN 1") > strings.Index(got, "PATTERN 2") {
		t.Error("patterns rendered out of order")
	}
}

func TestFormatOmitsEmptyHierarchy(t *testing.T) {
	p := samplePattern("bare")
	p.Layout.VisualHierarchy = nil

	got := Format([]*pattern.Pattern{p})
	if strings.Contains(got, "hierarchy:") {
		t.Error("empty hierarchy should be omitted")
	}
}

func TestFormatDeterministic(t *testing.T) {
	patterns := []*pattern.Pattern{samplePattern("a"), samplePattern("b")}
	first := Format(patterns)
	for i := 0; i < 5; i++ {
		if Format(patterns) != first {
			t.Fatal("formatting is not deterministic")
		}
	}
}

// The rendered block feeds another model's prompt; identifiers and hashes
// must never appear in it.
func TestFormatLeaksNoIdentifiers(t *testing.T) {
	p := samplePattern("leak check")
	got := Format([]*pattern.Pattern{p})

	for _, forbidden := range []string{p.ID, p.OwnerID, p.SourceHash} {
		if strings.Contains(got, forbidden) {
			t.Errorf("output leaks internal identifier %q", forbidden)
		}
	}
}
