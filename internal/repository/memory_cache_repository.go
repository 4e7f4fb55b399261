package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	gocache "github.com/patrickmn/go-cache"

	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

const memoryCacheCleanupInterval = 10 * time.Minute

// MemoryCacheRepository keeps JSON encoded payloads in process memory.
// Values are stored encoded so callers never share mutable state with the cache.
type MemoryCacheRepository struct {
	cache *gocache.Cache
}

// NewMemoryCacheRepository constructs an in-process cache with the given default TTL.
func NewMemoryCacheRepository(defaultTTL time.Duration) *MemoryCacheRepository {
	return &MemoryCacheRepository{cache: gocache.New(defaultTTL, memoryCacheCleanupInterval)}
}

// Get unmarshals the cached value into dest.
func (r *MemoryCacheRepository) Get(_ context.Context, key string, dest interface{}) error {
	value, found := r.cache.Get(key)
	if !found {
		return appErrors.ErrCacheMiss
	}
	raw, ok := value.([]byte)
	if !ok {
		r.cache.Delete(key)
		return appErrors.ErrCacheMiss
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}
	return nil
}

// Set stores the JSON encoding of value.
func (r *MemoryCacheRepository) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}
	r.cache.Set(key, payload, ttl)
	return nil
}

// DeleteByPattern removes every key matching a glob pattern such as "courses:*".
func (r *MemoryCacheRepository) DeleteByPattern(_ context.Context, pattern string) error {
	for key := range r.cache.Items() {
		matched, err := path.Match(pattern, key)
		if err != nil {
			return fmt.Errorf("match cache pattern %s: %w", pattern, err)
		}
		if matched {
			r.cache.Delete(key)
		}
	}
	return nil
}

// Close drops every entry.
func (r *MemoryCacheRepository) Close() error {
	r.cache.Flush()
	return nil
}
