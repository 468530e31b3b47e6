package cache

import (
	"context"
	"time"

	pkgredis "github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/resilience"
)

// NewBreaker returns a circuit breaker for the cache store. A key miss
// (redis.Nil) is an answer from a healthy Redis, so it never counts as a
// failure.
func NewBreaker(cfg resilience.CircuitBreakerConfig) *resilience.CircuitBreaker {
	cfg.IsFailure = func(err error) bool { return !pkgredis.IsNilError(err) }
	return resilience.NewCircuitBreaker("redis-cache", cfg)
}

// guardedStore routes every Store call through a circuit breaker so a dead
// Redis costs one fast error per search instead of a dial timeout.
type guardedStore struct {
	store Store
	cb    *resilience.CircuitBreaker
}

// Guard wraps store with cb. Build cb with NewBreaker.
func Guard(store Store, cb *resilience.CircuitBreaker) Store {
	return &guardedStore{store: store, cb: cb}
}

func (g *guardedStore) Get(ctx context.Context, key string) (string, error) {
	var val string
	err := g.cb.Execute(func() error {
		var err error
		val, err = g.store.Get(ctx, key)
		return err
	})
	return val, err
}

func (g *guardedStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return g.cb.Execute(func() error {
		return g.store.Set(ctx, key, value, ttl)
	})
}

func (g *guardedStore) FlushByPattern(ctx context.Context, pattern string) (int64, error) {
	var n int64
	err := g.cb.Execute(func() error {
		var err error
		n, err = g.store.FlushByPattern(ctx, pattern)
		return err
	})
	return n, err
}
