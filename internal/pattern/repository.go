package pattern

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the storage contract for patterns. All operations are
// scoped by owner; cross-owner access is a programming error, not a runtime
// condition to recover from.
type Repository interface {
	// FindByHash retrieves the pattern with the given content fingerprint for
	// an owner. Returns ErrPatternNotFound on a miss.
	FindByHash(ctx context.Context, ownerID, sourceHash string) (*Pattern, error)

	// Create inserts a new pattern, generating an ID and CreatedAt. Returns
	// ErrDuplicatePattern if (owner_id, source_hash) already exists, which
	// callers must treat as a dedup hit rather than a failure.
	Create(ctx context.Context, p *Pattern) (*Pattern, error)

	// ListActive retrieves all active (non-soft-deleted) patterns for an
	// owner, ordered by creation time descending.
	ListActive(ctx context.Context, ownerID string) ([]*Pattern, error)

	// TouchUsage increments the pattern's usage count and sets last_used_at
	// to now. Returns ErrPatternNotFound if the pattern does not exist.
	TouchUsage(ctx context.Context, patternID string) error

	// Deactivate soft-deletes a pattern, excluding it from future ranking.
	Deactivate(ctx context.Context, patternID string) error
}

// InMemoryRepository is an in-memory implementation of Repository.
// Thread-safe via RWMutex. Intended for tests and single-process use.
type InMemoryRepository struct {
	mu       sync.RWMutex
	patterns map[string]*Pattern // ID -> Pattern
	byHash   map[string]string   // owner\x00hash -> ID
	timeNow  func() time.Time
}

// NewInMemoryRepository creates a new in-memory pattern repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		patterns: make(map[string]*Pattern),
		byHash:   make(map[string]string),
		timeNow:  time.Now,
	}
}

// hashKey builds a composite key with a null byte separator so that owner and
// hash values can never collide by concatenation.
func hashKey(ownerID, sourceHash string) string {
	return ownerID + "\x00" + sourceHash
}

// FindByHash retrieves a pattern by its (owner, hash) pair.
func (r *InMemoryRepository) FindByHash(ctx context.Context, ownerID, sourceHash string) (*Pattern, error) {
	if ownerID == "" {
		return nil, ErrMissingOwner
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byHash[hashKey(ownerID, sourceHash)]
	if !ok {
		return nil, ErrPatternNotFound
	}
	return r.patterns[id].Clone(), nil
}

// Create inserts a new pattern, enforcing (owner, hash) uniqueness.
func (r *InMemoryRepository) Create(ctx context.Context, p *Pattern) (*Pattern, error) {
	if p.OwnerID == "" {
		return nil, ErrMissingOwner
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := hashKey(p.OwnerID, p.SourceHash)
	if _, exists := r.byHash[key]; exists {
		return nil, ErrDuplicatePattern
	}

	stored := p.Clone()
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = r.timeNow()
	}
	stored.IsActive = true

	r.patterns[stored.ID] = stored
	r.byHash[key] = stored.ID
	return stored.Clone(), nil
}

// ListActive retrieves all active patterns for an owner, newest first.
func (r *InMemoryRepository) ListActive(ctx context.Context, ownerID string) ([]*Pattern, error) {
	if ownerID == "" {
		return nil, ErrMissingOwner
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*Pattern
	for _, p := range r.patterns {
		if p.OwnerID == ownerID && p.IsActive {
			result = append(result, p.Clone())
		}
	}

	// Newest first; ID as tie-breaker for stable ordering.
	sortPatterns(result)
	return result, nil
}

// TouchUsage increments usage count and stamps last_used_at.
func (r *InMemoryRepository) TouchUsage(ctx context.Context, patternID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.patterns[patternID]
	if !ok {
		return ErrPatternNotFound
	}
	p.UsageCount++
	now := r.timeNow()
	p.LastUsedAt = &now
	return nil
}

// Deactivate soft-deletes a pattern.
func (r *InMemoryRepository) Deactivate(ctx context.Context, patternID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.patterns[patternID]
	if !ok {
		return ErrPatternNotFound
	}
	p.IsActive = false
	return nil
}

// sortPatterns orders patterns by created_at descending with ID ascending as
// a tie-breaker, matching the Postgres implementation's ORDER BY.
func sortPatterns(patterns []*Pattern) {
	sort.Slice(patterns, func(i, j int) bool {
		if !patterns[i].CreatedAt.Equal(patterns[j].CreatedAt) {
			return patterns[i].CreatedAt.After(patterns[j].CreatedAt)
		}
		return patterns[i].ID < patterns[j].ID
	})
}
