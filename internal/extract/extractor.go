// Package extract turns a privacy-cleared creative into an abstract design
// pattern by invoking the vision model under a strict output contract. The
// model is untrusted: its response is parsed defensively and later passes
// through an independent sanitization step before anything is persisted.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/adforge/patternbank/internal/pattern"
	"github.com/adforge/patternbank/internal/tracing"
	"github.com/adforge/patternbank/internal/vision"
)

// excerptLimit bounds how much of a malformed response is kept for
// diagnosis. Enough to see what went wrong, never the whole payload.
const excerptLimit = 200

// lowConfidenceCeiling caps the confidence of extractions that produced
// out-of-vocabulary values. Free-text values are kept, not dropped, but the
// reduced score keeps them from outranking clean extractions.
const lowConfidenceCeiling = 0.5

// MalformedError indicates the model violated the output contract: no JSON,
// missing required fields, or undecodable structure. Not retryable: the
// same input is unlikely to fare better.
type MalformedError struct {
	Reason  string
	Excerpt string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed extraction response: %s", e.Reason)
}

// IsMalformed reports whether err is (or wraps) a MalformedError.
func IsMalformed(err error) bool {
	var me *MalformedError
	return errors.As(err, &me)
}

func newMalformedError(reason, raw string) *MalformedError {
	excerpt := raw
	if len(excerpt) > excerptLimit {
		excerpt = excerpt[:excerptLimit]
	}
	return &MalformedError{Reason: reason, Excerpt: excerpt}
}

// extractionPrompt is the fixed instruction contract for pattern extraction.
// The prohibition on literal content is part of the call, not optional
// guidance; the sanitizer enforces it a second time regardless.
const extractionPrompt = `You are an advertising design analyst. Analyze this ad image
and extract its ABSTRACT design pattern. Respond with a single JSON object, no other text:

{
  "layout": {
    "structure": "one of: single-focus, split, grid, layered, z-pattern, f-pattern",
    "visual_hierarchy": ["up to 3 abstract element labels, e.g. headline, product, cta"],
    "whitespace_usage": "one of: minimal, balanced, generous",
    "focal_point_position": "one of: center, top-left, top-right, bottom-left, bottom-right, left-third, right-third"
  },
  "color_psychology": {
    "dominant_mood": "abstract mood, e.g. energetic, calm, premium",
    "color_scheme": "one of: monochromatic, complementary, analogous, triadic",
    "contrast_level": "one of: low, medium, high",
    "emotional_tone": "abstract tone, e.g. urgency, trust, aspiration"
  },
  "hook_pattern": {
    "hook_type": "abstract hook category, e.g. problem-solution, social-proof, curiosity",
    "headline_formula": "abstract formula, e.g. question, how-to, benefit-statement",
    "cta_style": "one of: soft, direct, urgency",
    "persuasion_technique": "abstract technique, e.g. scarcity, authority, reciprocity"
  },
  "visual_elements": {
    "image_style": "one of: photography, illustration, mixed, 3d-render, abstract",
    "human_presence": boolean,
    "product_visibility": "one of: prominent, subtle, none",
    "iconography": boolean,
    "background_type": "one of: solid, gradient, image, pattern"
  },
  "confidence_score": number between 0.0 and 1.0
}

STRICT RULES, NOT OPTIONAL:
- Never return literal text from the image (no headlines, no slogans, no copy).
- Never return brand names, product names or company names.
- Never return specific numbers, prices, percentages or dates from the image.
- Never describe identifiable people; report only human_presence as a boolean.`

// payload mirrors the contract schema with pointer fields so that missing
// required sections are distinguishable from zero values.
type payload struct {
	Layout          *pattern.Layout          `json:"layout"`
	ColorPsychology *pattern.ColorPsychology `json:"color_psychology"`
	HookPattern     *pattern.HookPattern     `json:"hook_pattern"`
	VisualElements  *pattern.VisualElements  `json:"visual_elements"`
	ConfidenceScore *float64                 `json:"confidence_score"`
}

// Extractor invokes the vision model and validates its output into a
// RawPattern.
type Extractor struct {
	client vision.Client
	logger *slog.Logger
}

// Config holds configuration for the extractor.
type Config struct {
	// Client is the vision capability. Required.
	Client vision.Client
	// Logger for extraction diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// New creates a new extractor.
func New(cfg Config) (*Extractor, error) {
	if cfg.Client == nil {
		return nil, errors.New("vision client is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Extractor{client: cfg.Client, logger: cfg.Logger}, nil
}

// Extract issues one model call and parses the response into a RawPattern.
// Transport failures surface as *vision.TransportError (retried inside the
// client); contract violations surface as *MalformedError.
func (e *Extractor) Extract(ctx context.Context, imageBytes []byte, mimeType string) (*pattern.RawPattern, error) {
	callCtx, endSpan := tracing.StartModelSpan(ctx, "extract.pattern")
	raw, err := e.client.Generate(callCtx, vision.Request{
		Prompt:     extractionPrompt,
		ImageBytes: imageBytes,
		MimeType:   mimeType,
	})
	endSpan(err)
	if err != nil {
		return nil, fmt.Errorf("extraction call: %w", err)
	}

	rp, err := e.parse(raw)
	if err != nil {
		var me *MalformedError
		if errors.As(err, &me) {
			e.logger.Error("extraction contract violated",
				"reason", me.Reason,
				"excerpt", me.Excerpt,
			)
		}
		return nil, err
	}
	return rp, nil
}

// parse validates the raw response against the contract schema.
func (e *Extractor) parse(raw string) (*pattern.RawPattern, error) {
	jsonText, ok := vision.ExtractJSONObject(raw)
	if !ok {
		return nil, newMalformedError("no JSON object found in response", raw)
	}

	var p payload
	if err := json.Unmarshal([]byte(jsonText), &p); err != nil {
		return nil, newMalformedError(fmt.Sprintf("undecodable JSON: %v", err), raw)
	}

	var missing []string
	if p.Layout == nil {
		missing = append(missing, "layout")
	}
	if p.ColorPsychology == nil {
		missing = append(missing, "color_psychology")
	}
	if p.HookPattern == nil {
		missing = append(missing, "hook_pattern")
	}
	if p.VisualElements == nil {
		missing = append(missing, "visual_elements")
	}
	if p.ConfidenceScore == nil {
		missing = append(missing, "confidence_score")
	}
	if len(missing) > 0 {
		return nil, newMalformedError(fmt.Sprintf("missing required fields: %v", missing), raw)
	}

	rp := &pattern.RawPattern{
		Layout:          *p.Layout,
		ColorPsychology: *p.ColorPsychology,
		HookPattern:     *p.HookPattern,
		VisualElements:  *p.VisualElements,
		ConfidenceScore: *p.ConfidenceScore,
	}

	// Clamp out-of-range confidence rather than rejecting, and record the
	// clamp for diagnostics.
	if rp.ConfidenceScore < 0 {
		rp.ConfidenceScore = 0
		rp.ConfidenceClamped = true
	} else if rp.ConfidenceScore > 1 {
		rp.ConfidenceScore = 1
		rp.ConfidenceClamped = true
	}
	if rp.ConfidenceClamped {
		e.logger.Warn("clamped out-of-range confidence score", "reported", *p.ConfidenceScore)
	}

	if len(rp.Layout.VisualHierarchy) > pattern.MaxVisualHierarchy {
		rp.Layout.VisualHierarchy = rp.Layout.VisualHierarchy[:pattern.MaxVisualHierarchy]
	}

	// Out-of-vocabulary enum values are kept as free text but flagged and
	// score-capped, never silently dropped.
	for field, value := range rp.StringFields() {
		if !pattern.InVocabulary(field, *value) {
			rp.OffVocabulary = append(rp.OffVocabulary, field)
		}
	}
	sort.Strings(rp.OffVocabulary)
	if len(rp.OffVocabulary) > 0 && rp.ConfidenceScore > lowConfidenceCeiling {
		rp.ConfidenceScore = lowConfidenceCeiling
		e.logger.Warn("capped confidence for out-of-vocabulary values",
			"fields", rp.OffVocabulary,
		)
	}

	return rp, nil
}
