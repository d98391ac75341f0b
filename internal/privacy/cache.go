package privacy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// VerdictCache stores recent scan verdicts keyed by content fingerprint.
// Caching is an optimization only: the gate degrades gracefully when the
// cache is unavailable, and a cache hit still counts as an evaluation.
type VerdictCache interface {
	// Get returns the cached verdict for a fingerprint, or nil on a miss.
	Get(ctx context.Context, fp string) (*ScanResult, error)

	// Set stores a verdict for a fingerprint.
	Set(ctx context.Context, fp string, result *ScanResult) error
}

// DefaultVerdictTTL bounds how long a verdict is reused before the image is
// rescanned. Kept short because the gate is allowed to change its mind.
const DefaultVerdictTTL = 24 * time.Hour

const verdictKeyPrefix = "patternbank:privacy:verdict:"

// RedisVerdictCache implements VerdictCache backed by Redis with a TTL.
type RedisVerdictCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisVerdictCache creates a Redis-backed verdict cache. A non-positive
// ttl falls back to DefaultVerdictTTL.
func NewRedisVerdictCache(client *redis.Client, ttl time.Duration) (*RedisVerdictCache, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if ttl <= 0 {
		ttl = DefaultVerdictTTL
	}
	return &RedisVerdictCache{client: client, ttl: ttl}, nil
}

// Get returns the cached verdict for a fingerprint, or nil on a miss.
func (c *RedisVerdictCache) Get(ctx context.Context, fp string) (*ScanResult, error) {
	data, err := c.client.Get(ctx, verdictKeyPrefix+fp).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis verdict lookup: %w", err)
	}

	var result ScanResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode cached verdict: %w", err)
	}
	return &result, nil
}

// Set stores a verdict for a fingerprint with the configured TTL.
func (c *RedisVerdictCache) Set(ctx context.Context, fp string, result *ScanResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode verdict: %w", err)
	}
	if err := c.client.Set(ctx, verdictKeyPrefix+fp, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis verdict store: %w", err)
	}
	return nil
}

// InMemoryVerdictCache implements VerdictCache with process-local storage.
// Thread-safe via RWMutex. Entries expire lazily on read.
type InMemoryVerdictCache struct {
	mu      sync.RWMutex
	entries map[string]verdictEntry
	ttl     time.Duration
	timeNow func() time.Time
}

type verdictEntry struct {
	result    ScanResult
	expiresAt time.Time
}

// NewInMemoryVerdictCache creates an in-memory verdict cache. A non-positive
// ttl falls back to DefaultVerdictTTL.
func NewInMemoryVerdictCache(ttl time.Duration) *InMemoryVerdictCache {
	if ttl <= 0 {
		ttl = DefaultVerdictTTL
	}
	return &InMemoryVerdictCache{
		entries: make(map[string]verdictEntry),
		ttl:     ttl,
		timeNow: time.Now,
	}
}

// Get returns the cached verdict for a fingerprint, or nil on a miss.
func (c *InMemoryVerdictCache) Get(ctx context.Context, fp string) (*ScanResult, error) {
	c.mu.RLock()
	entry, ok := c.entries[fp]
	c.mu.RUnlock()

	if !ok || c.timeNow().After(entry.expiresAt) {
		return nil, nil
	}
	result := entry.result
	result.DetectedBrands = append([]string(nil), entry.result.DetectedBrands...)
	return &result, nil
}

// Set stores a verdict for a fingerprint.
func (c *InMemoryVerdictCache) Set(ctx context.Context, fp string, result *ScanResult) error {
	stored := *result
	stored.DetectedBrands = append([]string(nil), result.DetectedBrands...)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[fp] = verdictEntry{
		result:    stored,
		expiresAt: c.timeNow().Add(c.ttl),
	}
	return nil
}
