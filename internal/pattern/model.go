// Package pattern provides models and repositories for abstract ad design
// patterns extracted from high-performing creatives. A Pattern never contains
// literal content from the source image, only enumerated or abstract
// descriptions of its structure and psychology.
package pattern

import (
	"errors"
	"fmt"
	"time"
)

// Common errors for pattern operations.
var (
	// ErrPatternNotFound is returned when a lookup matches no pattern.
	ErrPatternNotFound = errors.New("pattern not found")

	// ErrDuplicatePattern is returned by Create when a pattern with the same
	// (owner_id, source_hash) already exists. Callers should treat this as
	// equivalent to FindByHash returning a hit.
	ErrDuplicatePattern = errors.New("pattern already exists for this content")

	// ErrMissingOwner is returned when a repository operation is attempted
	// without an owner ID.
	ErrMissingOwner = errors.New("owner ID is required")
)

// Layout describes the structural composition of an ad creative.
type Layout struct {
	Structure          string   `json:"structure"`            // e.g. "single-focus", "split", "grid"
	VisualHierarchy    []string `json:"visual_hierarchy"`     // ordered abstract labels, at most 3
	WhitespaceUsage    string   `json:"whitespace_usage"`     // minimal, balanced, generous
	FocalPointPosition string   `json:"focal_point_position"` // e.g. "center", "top-left"
}

// ColorPsychology describes the emotional color strategy of a creative.
type ColorPsychology struct {
	DominantMood  string `json:"dominant_mood"`
	ColorScheme   string `json:"color_scheme"`   // monochromatic, complementary, analogous, triadic
	ContrastLevel string `json:"contrast_level"` // low, medium, high
	EmotionalTone string `json:"emotional_tone"`
}

// HookPattern describes the persuasion structure of a creative, in abstract
// terms only, never the actual headline or CTA text.
type HookPattern struct {
	HookType            string `json:"hook_type"`
	HeadlineFormula     string `json:"headline_formula"`
	CTAStyle            string `json:"cta_style"` // soft, direct, urgency
	PersuasionTechnique string `json:"persuasion_technique"`
}

// VisualElements describes the imagery composition of a creative.
type VisualElements struct {
	ImageStyle        string `json:"image_style"`        // photography, illustration, mixed, 3d-render, abstract
	HumanPresence     bool   `json:"human_presence"`
	ProductVisibility string `json:"product_visibility"` // prominent, subtle, none
	Iconography       bool   `json:"iconography"`
	BackgroundType    string `json:"background_type"` // solid, gradient, image, pattern
}

// Pattern is the durable, reusable unit: an abstract description of an ad's
// structural and psychological design. Classification tags (Category, Platform,
// Industry) and Name are supplied by the caller, never inferred from content.
type Pattern struct {
	ID       string `json:"id"`
	OwnerID  string `json:"owner_id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Platform string `json:"platform"`
	Industry string `json:"industry,omitempty"`

	Layout          Layout          `json:"layout"`
	ColorPsychology ColorPsychology `json:"color_psychology"`
	HookPattern     HookPattern     `json:"hook_pattern"`
	VisualElements  VisualElements  `json:"visual_elements"`

	// EngagementTier is an ordinal label for how well the source ad performed
	// (top-1 > top-5 > top-10 > top-25 > unverified). Supplied by the caller.
	EngagementTier string `json:"engagement_tier,omitempty"`

	// ConfidenceScore is reported by the extraction step, always in [0, 1].
	ConfidenceScore float64 `json:"confidence_score"`

	// SourceHash is the content fingerprint of the source image bytes.
	// Unique per (OwnerID, SourceHash).
	SourceHash string `json:"source_hash"`

	UsageCount int        `json:"usage_count"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	IsActive   bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
}

// RawPattern is the intermediate extraction output before sanitization and
// persistence. It carries only the model-derived sub-schema plus extraction
// diagnostics; ownership, naming and classification are attached later.
type RawPattern struct {
	Layout          Layout          `json:"layout"`
	ColorPsychology ColorPsychology `json:"color_psychology"`
	HookPattern     HookPattern     `json:"hook_pattern"`
	VisualElements  VisualElements  `json:"visual_elements"`
	ConfidenceScore float64         `json:"confidence_score"`

	// ConfidenceClamped records that the model reported a confidence outside
	// [0, 1] and the value was clamped rather than rejected.
	ConfidenceClamped bool `json:"-"`

	// OffVocabulary lists field names whose values fell outside the enumerated
	// vocabulary and were accepted as free text at reduced confidence.
	OffVocabulary []string `json:"-"`
}

// Clone returns a deep copy of the pattern. Repositories return clones to
// prevent external mutation of stored state.
func (p *Pattern) Clone() *Pattern {
	if p == nil {
		return nil
	}
	copied := *p
	copied.Layout.VisualHierarchy = append([]string(nil), p.Layout.VisualHierarchy...)
	if p.LastUsedAt != nil {
		t := *p.LastUsedAt
		copied.LastUsedAt = &t
	}
	return &copied
}

// StringFields returns every free-text field of the pattern sub-schema along
// with its dotted name. Used by the sanitizer and by leakage audits to inspect
// all places literal content could hide.
func (rp *RawPattern) StringFields() map[string]*string {
	fields := map[string]*string{
		"layout.structure":                 &rp.Layout.Structure,
		"layout.whitespace_usage":          &rp.Layout.WhitespaceUsage,
		"layout.focal_point_position":      &rp.Layout.FocalPointPosition,
		"color_psychology.dominant_mood":   &rp.ColorPsychology.DominantMood,
		"color_psychology.color_scheme":    &rp.ColorPsychology.ColorScheme,
		"color_psychology.contrast_level":  &rp.ColorPsychology.ContrastLevel,
		"color_psychology.emotional_tone":  &rp.ColorPsychology.EmotionalTone,
		"hook_pattern.hook_type":           &rp.HookPattern.HookType,
		"hook_pattern.headline_formula":    &rp.HookPattern.HeadlineFormula,
		"hook_pattern.cta_style":           &rp.HookPattern.CTAStyle,
		"hook_pattern.persuasion_technique": &rp.HookPattern.PersuasionTechnique,
		"visual_elements.image_style":       &rp.VisualElements.ImageStyle,
		"visual_elements.product_visibility": &rp.VisualElements.ProductVisibility,
		"visual_elements.background_type":    &rp.VisualElements.BackgroundType,
	}
	for i := range rp.Layout.VisualHierarchy {
		fields[fmt.Sprintf("layout.visual_hierarchy[%d]", i)] = &rp.Layout.VisualHierarchy[i]
	}
	return fields
}
