// Package privacy implements the safety gate that every uploaded creative
// must pass before any bytes are sent to the extraction step. The gate is
// backed by a vision model and is therefore not guaranteed deterministic
// between runs on identical input; callers must not assume idempotence.
// Raw content is never stored by this package, only verdicts keyed by
// content fingerprint.
package privacy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/adforge/patternbank/internal/fingerprint"
	"github.com/adforge/patternbank/internal/tracing"
	"github.com/adforge/patternbank/internal/vision"
)

// Common errors for privacy scanning.
var (
	// ErrMalformedVerdict is returned when the model response cannot be
	// parsed into a verdict. The gate fails closed: no extraction may run.
	ErrMalformedVerdict = errors.New("privacy scan returned a malformed verdict")
)

// Rejection reasons attached to unsafe verdicts. The list is non-exhaustive;
// the model may report reasons beyond these.
const (
	ReasonFacesDetected   = "image contains identifiable human faces"
	ReasonBrandsDetected  = "image contains recognizable brand marks or logos"
	ReasonContactDetected = "image contains legible contact information"
)

// ScanResult is the verdict for one scan call. It is returned per call and
// never persisted as a first-class entity.
type ScanResult struct {
	SafeToProcess   bool     `json:"safe_to_process"`
	HasFaces        bool     `json:"has_faces"`
	DetectedBrands  []string `json:"detected_brands"`
	RejectionReason string   `json:"rejection_reason,omitempty"`
}

// Gate classifies an image as safe or unsafe to send onward. Implementations
// backed by a model are non-deterministic; tests substitute a deterministic
// stub via this interface.
type Gate interface {
	Scan(ctx context.Context, imageBytes []byte, mimeType string) (*ScanResult, error)
}

// scanPrompt is the fixed instruction contract for the safety scan. The
// schema and refusal rules are part of the call itself.
const scanPrompt = `You are a privacy and safety screener for advertising images.
Inspect the image and respond with a single JSON object, no other text:

{
  "safe_to_process": boolean,
  "has_faces": boolean,
  "detected_brands": ["generic description of any brand mark, logo or trademark"],
  "rejection_reason": "short reason, or null if safe"
}

Mark the image unsafe (safe_to_process = false) if it contains any of:
- identifiable human faces
- brand marks, logos or trademarks
- legible contact information (phone numbers, email addresses, URLs, QR codes)

Never transcribe text from the image. Never name a brand, person or product;
describe only the category of the problem.`

// ModelGate implements Gate using the injected vision client, with an
// optional verdict cache keyed by content fingerprint.
type ModelGate struct {
	client vision.Client
	cache  VerdictCache
	logger *slog.Logger
}

// ModelGateConfig holds configuration for the model-backed gate.
type ModelGateConfig struct {
	// Client is the vision capability. Required.
	Client vision.Client
	// Cache holds recent verdicts by content fingerprint. Optional; nil
	// disables caching. A cache hit still counts as an evaluation of the gate.
	Cache VerdictCache
	// Logger for the verdict audit trail. Defaults to slog.Default().
	Logger *slog.Logger
}

// NewModelGate creates a new model-backed privacy gate.
func NewModelGate(cfg ModelGateConfig) (*ModelGate, error) {
	if cfg.Client == nil {
		return nil, errors.New("vision client is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &ModelGate{
		client: cfg.Client,
		cache:  cfg.Cache,
		logger: cfg.Logger,
	}, nil
}

// Scan evaluates the image and returns a verdict. Every verdict, safe or
// unsafe, is logged with the content fingerprint so a human audit trail
// exists without storing content.
func (g *ModelGate) Scan(ctx context.Context, imageBytes []byte, mimeType string) (*ScanResult, error) {
	fp := fingerprint.Hash(imageBytes)

	if g.cache != nil {
		if cached, ok := g.cacheGet(ctx, fp); ok {
			g.logVerdict(fp, cached, true)
			return cached, nil
		}
	}

	callCtx, endSpan := tracing.StartModelSpan(ctx, "privacy.scan")
	raw, err := g.client.Generate(callCtx, vision.Request{
		Prompt:     scanPrompt,
		ImageBytes: imageBytes,
		MimeType:   mimeType,
	})
	endSpan(err)
	if err != nil {
		return nil, fmt.Errorf("privacy scan call: %w", err)
	}

	result, err := parseVerdict(raw)
	if err != nil {
		return nil, err
	}

	if g.cache != nil {
		if err := g.cache.Set(ctx, fp, result); err != nil {
			g.logger.Warn("failed to cache privacy verdict", "fingerprint", fp, "error", err)
		}
	}

	g.logVerdict(fp, result, false)
	return result, nil
}

func (g *ModelGate) cacheGet(ctx context.Context, fp string) (*ScanResult, bool) {
	cached, err := g.cache.Get(ctx, fp)
	if err != nil {
		g.logger.Warn("privacy verdict cache lookup failed", "fingerprint", fp, "error", err)
		return nil, false
	}
	return cached, cached != nil
}

func (g *ModelGate) logVerdict(fp string, result *ScanResult, cached bool) {
	g.logger.Info("privacy scan verdict",
		"fingerprint", fp,
		"safe", result.SafeToProcess,
		"has_faces", result.HasFaces,
		"brands_detected", len(result.DetectedBrands),
		"cached", cached,
	)
}

// parseVerdict extracts and validates the verdict JSON from the raw model
// response. A verdict that self-reports safe while also reporting faces or
// brands is demoted to unsafe: the structured evidence wins over the flag.
func parseVerdict(raw string) (*ScanResult, error) {
	jsonText, ok := vision.ExtractJSONObject(raw)
	if !ok {
		return nil, ErrMalformedVerdict
	}

	var result ScanResult
	if err := json.Unmarshal([]byte(jsonText), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedVerdict, err)
	}

	if result.SafeToProcess {
		switch {
		case result.HasFaces:
			result.SafeToProcess = false
			result.RejectionReason = ReasonFacesDetected
		case len(result.DetectedBrands) > 0:
			result.SafeToProcess = false
			result.RejectionReason = ReasonBrandsDetected
		}
	}
	if !result.SafeToProcess && result.RejectionReason == "" {
		result.RejectionReason = "image failed the privacy scan"
	}
	return &result, nil
}
