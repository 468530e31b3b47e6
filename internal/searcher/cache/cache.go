package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/little-search-engine/internal/searcher/executor"
	pkgredis "github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/resilience"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "top5:"

// Store is the subset of the Redis client the cache needs.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// QueryCache caches dual-keyword results in Redis. Keyword order is part of
// the key since the first keyword wins ties. The epoch advances on every
// Invalidate; a result computed under an older epoch is never stored.
type QueryCache struct {
	store  Store
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
	epoch  atomic.Uint64
	hits   atomic.Int64
	misses atomic.Int64
}

func New(store Store, ttl time.Duration) *QueryCache {
	return &QueryCache{
		store:  store,
		ttl:    ttl,
		logger: slog.Default().With("component", "query-cache"),
	}
}

func (c *QueryCache) Get(ctx context.Context, kw1, kw2 string) (*executor.SearchResult, bool) {
	key := buildKey(kw1, kw2)
	data, err := c.store.Get(ctx, key)
	if err != nil {
		switch {
		case pkgredis.IsNilError(err):
		case errors.Is(err, resilience.ErrCircuitOpen):
			c.logger.Debug("cache bypassed", "key", key, "error", err)
		default:
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	var result executor.SearchResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "kw1", kw1, "kw2", kw2, "key", key)
	return &result, true
}

func (c *QueryCache) Set(ctx context.Context, kw1, kw2 string, result *executor.SearchResult) {
	key := buildKey(kw1, kw2)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result or computes and stores it.
// Concurrent misses for the same pair share one computation.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	kw1, kw2 string,
	computeFn func() (*executor.SearchResult, error),
) (*executor.SearchResult, bool, error) {
	if result, ok := c.Get(ctx, kw1, kw2); ok {
		return result, true, nil
	}
	epoch := c.epoch.Load()
	flight := fmt.Sprintf("%d/%s", epoch, buildKey(kw1, kw2))
	val, err, _ := c.group.Do(flight, func() (interface{}, error) {
		result, err := computeFn()
		if err != nil {
			return nil, err
		}
		if c.epoch.Load() != epoch {
			c.logger.Debug("cache set skipped, invalidated during compute", "kw1", kw1, "kw2", kw2)
			return result, nil
		}
		c.Set(ctx, kw1, kw2, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*executor.SearchResult), false, nil
}

// Invalidate drops every cached result. Called after each index build.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	c.epoch.Add(1)
	deleted, err := c.store.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func buildKey(kw1, kw2 string) string {
	hash := sha256.Sum256([]byte(kw1 + "\x00" + kw2))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
