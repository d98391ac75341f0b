package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/adforge/patternbank/internal/extract"
	"github.com/adforge/patternbank/internal/fingerprint"
	"github.com/adforge/patternbank/internal/pattern"
	"github.com/adforge/patternbank/internal/privacy"
	"github.com/adforge/patternbank/internal/vision"
)

// tracerName identifies ingestion spans.
const tracerName = "github.com/adforge/patternbank/internal/ingest"

// Validation errors surfaced to callers before processing begins.
var (
	ErrNilAttempt      = errors.New("attempt is required")
	ErrAttemptConsumed = errors.New("attempt is not in pending state")
	ErrOwnerMismatch   = errors.New("attempt owner does not match request owner")
)

// PatternExtractor is the extraction capability consumed by the service.
// Satisfied by *extract.Extractor; tests substitute counting stubs.
type PatternExtractor interface {
	Extract(ctx context.Context, imageBytes []byte, mimeType string) (*pattern.RawPattern, error)
}

// PatternSanitizer is the model-free second-pass filter.
// Satisfied by *sanitize.Sanitizer.
type PatternSanitizer interface {
	Sanitize(rp *pattern.RawPattern) *pattern.RawPattern
}

// Normalizer validates and normalizes image bytes before they are scanned.
// Satisfied by *image.Normalizer. Optional: nil skips normalization.
type Normalizer interface {
	Normalize(imageBytes []byte, mimeType string) ([]byte, error)
}

// UploadRequest is the ingestion input. Name and classification tags are
// caller-supplied, never inferred from image content.
type UploadRequest struct {
	ImageBytes     []byte
	MimeType       string
	OwnerID        string
	Name           string
	Category       string
	Platform       string
	Industry       string
	EngagementTier string
}

// UploadResult is the ingestion outcome returned to the caller. The attempt
// passed to Process carries the same terminal state.
type UploadResult struct {
	Success     bool                `json:"success"`
	Pattern     *pattern.Pattern    `json:"pattern,omitempty"`
	IsDuplicate bool                `json:"is_duplicate,omitempty"`
	PrivacyScan *privacy.ScanResult `json:"privacy_scan_result,omitempty"`
	Error       string              `json:"error,omitempty"`
}

// Service processes upload attempts. Each attempt is handled by one logical
// worker; concurrent uploads share no in-process state except the repository.
type Service struct {
	repo       pattern.Repository
	gate       privacy.Gate
	extractor  PatternExtractor
	sanitizer  PatternSanitizer
	normalizer Normalizer
	metrics    *Metrics
	tracer     trace.Tracer
	logger     *slog.Logger
	timeNow    func() time.Time
}

// Config holds configuration for the ingestion service.
type Config struct {
	// Repository stores patterns. Required.
	Repository pattern.Repository
	// Gate is the privacy gate. Required; evaluated before any extraction.
	Gate privacy.Gate
	// Extractor is the vision extraction capability. Required.
	Extractor PatternExtractor
	// Sanitizer is the second-pass filter. Required.
	Sanitizer PatternSanitizer
	// Normalizer validates and strips image metadata pre-scan. Optional.
	Normalizer Normalizer
	// Metrics collects ingestion metrics. Optional.
	Metrics *Metrics
	// Logger for ingestion diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// NewService creates a new ingestion service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Repository == nil {
		return nil, errors.New("repository is required")
	}
	if cfg.Gate == nil {
		return nil, errors.New("privacy gate is required")
	}
	if cfg.Extractor == nil {
		return nil, errors.New("extractor is required")
	}
	if cfg.Sanitizer == nil {
		return nil, errors.New("sanitizer is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Service{
		repo:       cfg.Repository,
		gate:       cfg.Gate,
		extractor:  cfg.Extractor,
		sanitizer:  cfg.Sanitizer,
		normalizer: cfg.Normalizer,
		metrics:    cfg.Metrics,
		tracer:     otel.Tracer(tracerName),
		logger:     cfg.Logger,
		timeNow:    time.Now,
	}, nil
}

// Process runs one upload attempt through the full lifecycle. The attempt
// must be in pending state and is always left in exactly one terminal state,
// even on panic or cancellation. The returned error reports caller mistakes
// only (nil/consumed attempt, owner mismatch); processing failures are
// reported through the result and the attempt's failed state.
func (s *Service) Process(ctx context.Context, attempt *Attempt, req UploadRequest) (result *UploadResult, err error) {
	if attempt == nil {
		return nil, ErrNilAttempt
	}
	if attempt.Status != StatusPending {
		return nil, fmt.Errorf("%w: %s", ErrAttemptConsumed, attempt.Status)
	}
	if req.OwnerID == "" || attempt.OwnerID != req.OwnerID {
		return nil, ErrOwnerMismatch
	}

	ctx, span := s.tracer.Start(ctx, "ingest.Process",
		trace.WithAttributes(attribute.String("attempt.id", attempt.ID)),
	)
	defer span.End()

	start := s.timeNow()

	// markProcessing cannot fail from pending, checked above.
	_ = attempt.markProcessing()

	// Any fault below this point is converted into a failed transition; an
	// attempt must never be left stuck in processing.
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic during upload processing",
				"attempt_id", attempt.ID,
				"panic", r,
			)
			result = s.failAttempt(attempt, start, "internal error during processing")
			err = nil
		}
	}()

	if len(req.ImageBytes) == 0 {
		return s.failAttempt(attempt, start, "image payload is empty"), nil
	}

	// Fingerprint raw bytes first: dedup short-circuits both the cost and
	// the risk of the model calls.
	hash := fingerprint.Hash(req.ImageBytes)
	span.SetAttributes(attribute.String("upload.fingerprint", hash))

	existing, err := s.repo.FindByHash(ctx, req.OwnerID, hash)
	switch {
	case err == nil:
		span.SetAttributes(attribute.Bool("upload.dedup_hit", true))
		if s.metrics != nil {
			s.metrics.RecordDedupHit()
		}
		s.logger.Info("duplicate upload short-circuited",
			"attempt_id", attempt.ID,
			"pattern_id", existing.ID,
		)
		return s.completeAttempt(attempt, start, existing, true, nil), nil
	case errors.Is(err, pattern.ErrPatternNotFound):
		// New content; proceed.
	default:
		return s.failAttempt(attempt, start, "pattern store unavailable"), nil
	}

	imageBytes := req.ImageBytes
	if s.normalizer != nil {
		normalized, err := s.normalizer.Normalize(req.ImageBytes, req.MimeType)
		if err != nil {
			return s.failAttempt(attempt, start, fmt.Sprintf("unsupported or corrupt image: %v", err)), nil
		}
		imageBytes = normalized
	}

	// External calls run on a detached context: a client disconnect must not
	// abandon an in-flight provider call, but cancellation is honored at the
	// checkpoints between steps so no pattern is persisted for a cancelled
	// attempt.
	callCtx := context.WithoutCancel(ctx)

	scan, err := s.gate.Scan(callCtx, imageBytes, req.MimeType)
	if err != nil {
		return s.failAttempt(attempt, start, fmt.Sprintf("privacy scan unavailable: %v", err)), nil
	}
	if !scan.SafeToProcess {
		span.SetAttributes(attribute.Bool("upload.privacy_rejected", true))
		if s.metrics != nil {
			s.metrics.RecordPrivacyRejection()
		}
		res := s.failAttempt(attempt, start, scan.RejectionReason)
		res.PrivacyScan = scan
		return res, nil
	}
	if ctx.Err() != nil {
		return s.failAttempt(attempt, start, "upload cancelled"), nil
	}

	raw, err := s.extractor.Extract(callCtx, imageBytes, req.MimeType)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordExtractionFailure(extractionFailureKind(err))
		}
		res := s.failAttempt(attempt, start, extractionFailureMessage(err))
		res.PrivacyScan = scan
		return res, nil
	}
	if ctx.Err() != nil {
		return s.failAttempt(attempt, start, "upload cancelled"), nil
	}

	clean := s.sanitizer.Sanitize(raw)

	candidate := &pattern.Pattern{
		OwnerID:         req.OwnerID,
		Name:            req.Name,
		Category:        req.Category,
		Platform:        req.Platform,
		Industry:        req.Industry,
		EngagementTier:  req.EngagementTier,
		Layout:          clean.Layout,
		ColorPsychology: clean.ColorPsychology,
		HookPattern:     clean.HookPattern,
		VisualElements:  clean.VisualElements,
		ConfidenceScore: clean.ConfidenceScore,
		SourceHash:      hash,
	}

	created, err := s.repo.Create(ctx, candidate)
	if errors.Is(err, pattern.ErrDuplicatePattern) {
		// Race with a concurrent identical upload: resolve by refetch, the
		// same as a dedup hit.
		existing, ferr := s.repo.FindByHash(ctx, req.OwnerID, hash)
		if ferr != nil {
			return s.failAttempt(attempt, start, "pattern store unavailable"), nil
		}
		res := s.completeAttempt(attempt, start, existing, true, scan)
		return res, nil
	}
	if err != nil {
		return s.failAttempt(attempt, start, "pattern store unavailable"), nil
	}

	s.logger.Info("upload completed",
		"attempt_id", attempt.ID,
		"pattern_id", created.ID,
		"confidence", created.ConfidenceScore,
	)
	return s.completeAttempt(attempt, start, created, false, scan), nil
}

// completeAttempt finalizes a successful attempt and builds its result.
func (s *Service) completeAttempt(attempt *Attempt, start time.Time, p *pattern.Pattern, duplicate bool, scan *privacy.ScanResult) *UploadResult {
	elapsed := s.timeNow().Sub(start)
	_ = attempt.complete(p.ID, elapsed.Milliseconds())
	if s.metrics != nil {
		s.metrics.RecordOutcome(OutcomeCompleted, elapsed.Seconds())
	}
	return &UploadResult{
		Success:     true,
		Pattern:     p,
		IsDuplicate: duplicate,
		PrivacyScan: scan,
	}
}

// failAttempt finalizes a failed attempt and builds its result.
func (s *Service) failAttempt(attempt *Attempt, start time.Time, message string) *UploadResult {
	elapsed := s.timeNow().Sub(start)
	_ = attempt.fail(message, elapsed.Milliseconds())
	if s.metrics != nil {
		s.metrics.RecordOutcome(OutcomeFailed, elapsed.Seconds())
	}
	s.logger.Warn("upload failed",
		"attempt_id", attempt.ID,
		"error", message,
	)
	return &UploadResult{Success: false, Error: message}
}

// extractionFailureKind classifies an extraction error for metrics.
func extractionFailureKind(err error) string {
	if vision.IsTransport(err) {
		return FailureKindTransport
	}
	return FailureKindMalformed
}

// extractionFailureMessage renders an extraction error for the attempt's
// user-visible error message.
func extractionFailureMessage(err error) string {
	if vision.IsTransport(err) {
		return "extraction service unavailable after retries"
	}
	if extract.IsMalformed(err) {
		return "extraction produced an unusable result"
	}
	return fmt.Sprintf("extraction failed: %v", err)
}
