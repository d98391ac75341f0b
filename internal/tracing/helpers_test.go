package tracing

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestStartSpan(t *testing.T) {
	ctx, endSpan := StartSpan(context.Background(), "rank_patterns")
	if ctx == nil {
		t.Fatal("expected non-nil context")
	}
	endSpan(nil)
}

func TestStartSpanWithError(t *testing.T) {
	_, endSpan := StartSpan(context.Background(), "rank_patterns")
	endSpan(errors.New("ranking failed"))
}

func TestStartModelSpan(t *testing.T) {
	ctx, endSpan := StartModelSpan(context.Background(), "privacy.scan")
	if ctx == nil {
		t.Fatal("expected non-nil context")
	}
	endSpan(nil)

	_, endSpan = StartModelSpan(context.Background(), "extract.pattern")
	endSpan(errors.New("provider returned status 503"))
}

func TestAddEventAndSetAttributesNoPanic(t *testing.T) {
	// Without an active span these are no-ops and must not panic.
	ctx := context.Background()
	AddEvent(ctx, "dedup_hit", attribute.Bool("hit", true))
	SetAttributes(ctx, attribute.String("owner_id", "owner-1"))

	ctx, endSpan := StartSpan(ctx, "ingest")
	AddEvent(ctx, "scan_complete")
	SetAttributes(ctx, attribute.Int("patterns", 3))
	endSpan(nil)
}
