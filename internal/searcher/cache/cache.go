// Package cache stores search responses in Redis keyed by a hash of the
// normalised request. Concurrent misses for the same key are collapsed with
// singleflight so only one computation runs.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	pkgredis "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/redis"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "search:"

// Store is the subset of the Redis client the cache needs.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

type QueryCache struct {
	store  Store
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
	onHit  func()
	onMiss func()
}

type Option func(*QueryCache)

// WithCounters registers callbacks fired on every hit and miss, used to feed
// Prometheus counters.
func WithCounters(onHit, onMiss func()) Option {
	return func(c *QueryCache) {
		c.onHit = onHit
		c.onMiss = onMiss
	}
}

func New(store Store, ttl time.Duration, opts ...Option) *QueryCache {
	c := &QueryCache{
		store:  store,
		ttl:    ttl,
		logger: slog.Default().With("component", "query-cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key hashes the given parts into a cache key. Parts are joined with "|" so
// callers should pass already-normalised values.
func Key(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}

// lookup reads key into dst without touching the counters.
func (c *QueryCache) lookup(ctx context.Context, key string, dst any) bool {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal([]byte(data), dst); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		return false
	}
	c.logger.Debug("cache hit", "key", key)
	return true
}

func (c *QueryCache) set(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

func (c *QueryCache) hit() {
	c.hits.Add(1)
	if c.onHit != nil {
		c.onHit()
	}
}

func (c *QueryCache) miss() {
	c.misses.Add(1)
	if c.onMiss != nil {
		c.onMiss()
	}
}

type flight[T any] struct {
	value T
	hit   bool
}

// GetOrCompute returns the cached value for key, or runs compute once across
// concurrent callers and stores its result. The boolean reports a cache hit;
// each call counts exactly one hit or one miss. Store failures degrade to
// computing the value; only compute errors are returned.
func GetOrCompute[T any](ctx context.Context, c *QueryCache, key string, compute func() (T, error)) (T, bool, error) {
	var cached T
	if c.lookup(ctx, key, &cached) {
		c.hit()
		return cached, true, nil
	}
	val, err, _ := c.group.Do(key, func() (any, error) {
		var again T
		if c.lookup(ctx, key, &again) {
			return flight[T]{value: again, hit: true}, nil
		}
		result, err := compute()
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, result)
		return flight[T]{value: result}, nil
	})
	if err != nil {
		c.miss()
		var zero T
		return zero, false, err
	}
	f := val.(flight[T])
	if f.hit {
		c.hit()
	} else {
		c.miss()
	}
	return f.value, f.hit, nil
}

func (c *QueryCache) Invalidate(ctx context.Context) error {
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
