package pattern

import "slices"

// Enumerated vocabularies for the pattern sub-schema. The extractor instructs
// the model to stay within these lists; values outside them are accepted as
// free text but flagged at reduced confidence, never silently dropped.

// Layout structure values.
const (
	StructureSingleFocus = "single-focus"
	StructureSplit       = "split"
	StructureGrid        = "grid"
	StructureLayered     = "layered"
	StructureZPattern    = "z-pattern"
	StructureFPattern    = "f-pattern"
)

// Whitespace usage values.
const (
	WhitespaceMinimal  = "minimal"
	WhitespaceBalanced = "balanced"
	WhitespaceGenerous = "generous"
)

// Focal point position values.
const (
	FocalCenter      = "center"
	FocalTopLeft     = "top-left"
	FocalTopRight    = "top-right"
	FocalBottomLeft  = "bottom-left"
	FocalBottomRight = "bottom-right"
	FocalLeftThird   = "left-third"
	FocalRightThird  = "right-third"
)

// Color scheme values.
const (
	SchemeMonochromatic = "monochromatic"
	SchemeComplementary = "complementary"
	SchemeAnalogous     = "analogous"
	SchemeTriadic       = "triadic"
)

// Contrast level values.
const (
	ContrastLow    = "low"
	ContrastMedium = "medium"
	ContrastHigh   = "high"
)

// CTA style values.
const (
	CTASoft    = "soft"
	CTADirect  = "direct"
	CTAUrgency = "urgency"
)

// Image style values.
const (
	ImagePhotography  = "photography"
	ImageIllustration = "illustration"
	ImageMixed        = "mixed"
	Image3DRender     = "3d-render"
	ImageAbstract     = "abstract"
)

// Product visibility values.
const (
	VisibilityProminent = "prominent"
	VisibilitySubtle    = "subtle"
	VisibilityNone      = "none"
)

// Background type values.
const (
	BackgroundSolid    = "solid"
	BackgroundGradient = "gradient"
	BackgroundImage    = "image"
	BackgroundPattern  = "pattern"
)

// Engagement tier values, ordered from strongest to weakest.
const (
	TierTop1       = "top-1"
	TierTop5       = "top-5"
	TierTop10      = "top-10"
	TierTop25      = "top-25"
	TierUnverified = "unverified"
)

// PlatformGeneral is the generic platform value that matches any platform
// query at a reduced score.
const PlatformGeneral = "general"

// MaxVisualHierarchy is the maximum number of visual hierarchy labels kept
// on a layout.
const MaxVisualHierarchy = 3

// Allowed value lists, exhaustive per enum.
var (
	AllowedStructures = []string{
		StructureSingleFocus, StructureSplit, StructureGrid,
		StructureLayered, StructureZPattern, StructureFPattern,
	}
	AllowedWhitespace = []string{WhitespaceMinimal, WhitespaceBalanced, WhitespaceGenerous}
	AllowedFocalPoints = []string{
		FocalCenter, FocalTopLeft, FocalTopRight,
		FocalBottomLeft, FocalBottomRight, FocalLeftThird, FocalRightThird,
	}
	AllowedColorSchemes   = []string{SchemeMonochromatic, SchemeComplementary, SchemeAnalogous, SchemeTriadic}
	AllowedContrastLevels = []string{ContrastLow, ContrastMedium, ContrastHigh}
	AllowedCTAStyles      = []string{CTASoft, CTADirect, CTAUrgency}
	AllowedImageStyles    = []string{ImagePhotography, ImageIllustration, ImageMixed, Image3DRender, ImageAbstract}
	AllowedVisibilities   = []string{VisibilityProminent, VisibilitySubtle, VisibilityNone}
	AllowedBackgrounds    = []string{BackgroundSolid, BackgroundGradient, BackgroundImage, BackgroundPattern}
	AllowedTiers          = []string{TierTop1, TierTop5, TierTop10, TierTop25, TierUnverified}
)

// EnumForField maps each enum-constrained field of the sub-schema to its
// allowed values. Fields absent from this map are free text.
var EnumForField = map[string][]string{
	"layout.structure":                   AllowedStructures,
	"layout.whitespace_usage":            AllowedWhitespace,
	"layout.focal_point_position":        AllowedFocalPoints,
	"color_psychology.color_scheme":      AllowedColorSchemes,
	"color_psychology.contrast_level":    AllowedContrastLevels,
	"hook_pattern.cta_style":             AllowedCTAStyles,
	"visual_elements.image_style":        AllowedImageStyles,
	"visual_elements.product_visibility": AllowedVisibilities,
	"visual_elements.background_type":    AllowedBackgrounds,
}

// InVocabulary reports whether value is one of the allowed values for the
// named field. Free-text fields always report true.
func InVocabulary(field, value string) bool {
	allowed, ok := EnumForField[field]
	if !ok {
		return true
	}
	return slices.Contains(allowed, value)
}

// NearestAllowed returns the allowed value for field that shares the longest
// common prefix with value, falling back to the first allowed value. Used by
// the sanitizer to coerce enum fields whose values had to be redacted.
func NearestAllowed(field, value string) string {
	allowed, ok := EnumForField[field]
	if !ok || len(allowed) == 0 {
		return value
	}
	best := allowed[0]
	bestLen := -1
	for _, candidate := range allowed {
		n := commonPrefixLen(candidate, value)
		if n > bestLen {
			best = candidate
			bestLen = n
		}
	}
	return best
}

func commonPrefixLen(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}
