// Package ingest orchestrates one upload attempt end-to-end: fingerprint,
// dedup, privacy gate, extraction, sanitization and persistence, tracked by
// an explicit state machine that always terminates in completed or failed.
package ingest

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an upload attempt.
type Status string

// Valid attempt states. Completed and failed are terminal; re-processing
// requires a new attempt.
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// ErrInvalidTransition is returned when an attempt is moved to a state not
// reachable from its current one.
var ErrInvalidTransition = errors.New("invalid attempt state transition")

// validTransitions defines the allowed state machine edges.
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing},
	StatusProcessing: {StatusCompleted, StatusFailed},
	StatusCompleted:  {},
	StatusFailed:     {},
}

// Attempt tracks one ingestion attempt. Created in pending by the caller
// before the service is invoked; the service transitions it to processing
// and then to exactly one terminal state.
type Attempt struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`
	Status  Status `json:"status"`

	// LinkedPatternID is set only on completion. It may reference a
	// pre-existing pattern when the dedup path was taken.
	LinkedPatternID string `json:"linked_pattern_id,omitempty"`

	// ProcessingDurationMs is set when a terminal state is reached.
	ProcessingDurationMs int64 `json:"processing_duration_ms,omitempty"`

	// ErrorMessage is set only on failure.
	ErrorMessage string `json:"error_message,omitempty"`
}

// NewAttempt creates a new attempt in pending state for an owner.
func NewAttempt(ownerID string) *Attempt {
	return &Attempt{
		ID:      uuid.New().String(),
		OwnerID: ownerID,
		Status:  StatusPending,
	}
}

// Terminal reports whether the attempt has reached a final state.
func (a *Attempt) Terminal() bool {
	return a.Status == StatusCompleted || a.Status == StatusFailed
}

// transition moves the attempt to the target state, enforcing the state
// machine edges.
func (a *Attempt) transition(to Status) error {
	for _, allowed := range validTransitions[a.Status] {
		if allowed == to {
			a.Status = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, to)
}

// markProcessing is the entry transition; valid only from pending.
func (a *Attempt) markProcessing() error {
	return a.transition(StatusProcessing)
}

// complete terminates the attempt successfully, linking the pattern that
// resulted from (or matched) the upload.
func (a *Attempt) complete(patternID string, durationMs int64) error {
	if err := a.transition(StatusCompleted); err != nil {
		return err
	}
	a.LinkedPatternID = patternID
	a.ProcessingDurationMs = durationMs
	return nil
}

// fail terminates the attempt with a human-readable reason.
func (a *Attempt) fail(message string, durationMs int64) error {
	if err := a.transition(StatusFailed); err != nil {
		return err
	}
	a.ErrorMessage = message
	a.ProcessingDurationMs = durationMs
	return nil
}
