package ranker

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// embedCache is a 2-tier vector cache: L1 in-memory + optional L2 Redis.
// L1 is fast but lost on restart; L2 survives restarts, so the resume text is
// embedded once across runs. Keys are derived from the exact input text, not
// from job ids.
type embedCache struct {
	l1         sync.Map      // key → []float32
	rdb        *redis.Client // nil if Redis unavailable
	ttl        time.Duration
	maxEntries int

	hits   atomic.Int64
	misses atomic.Int64
}

// newEmbedCache sets up the cache. redisURL can be empty to disable L2;
// an unreachable Redis downgrades to L1-only with a warning, never an error.
func newEmbedCache(redisURL string, ttl time.Duration, maxEntries int) *embedCache {
	c := &embedCache{ttl: ttl, maxEntries: maxEntries}

	if redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			slog.Warn("ranker: invalid redis URL, L2 cache disabled", slog.Any("error", err))
		} else {
			rdb := redis.NewClient(opts)
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := rdb.Ping(ctx).Err(); err != nil {
				slog.Warn("ranker: redis unreachable, L2 cache disabled", slog.Any("error", err))
			} else {
				c.rdb = rdb
				slog.Info("ranker: L2 redis cache connected", slog.String("addr", opts.Addr))
			}
		}
	}
	return c
}

// cacheKey builds a deterministic key from the model name and the exact text.
func cacheKey(model, text string) string {
	hash := sha256.Sum256([]byte(model + "|" + text))
	return fmt.Sprintf("jb:emb:%x", hash[:12])
}

// get tries L1, then L2. On an L2 hit the vector is copied up into L1.
func (c *embedCache) get(ctx context.Context, key string) ([]float32, bool) {
	if val, ok := c.l1.Load(key); ok {
		c.hits.Add(1)
		return val.([]float32), true
	}

	if c.rdb != nil {
		data, err := c.rdb.Get(ctx, key).Bytes()
		if err == nil {
			var vec []float32
			if json.Unmarshal(data, &vec) == nil && len(vec) > 0 {
				c.hits.Add(1)
				c.l1.Store(key, vec)
				return vec, true
			}
		}
	}

	c.misses.Add(1)
	return nil, false
}

// set stores the vector in both tiers. L2 write failures are debug-logged;
// a cache is never worth failing a scoring call over.
func (c *embedCache) set(ctx context.Context, key string, vec []float32) {
	c.evictIfNeeded()
	c.l1.Store(key, vec)

	if c.rdb != nil {
		data, err := json.Marshal(vec)
		if err != nil {
			return
		}
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			slog.Debug("ranker: L2 cache set failed", slog.Any("error", err))
		}
	}
}

// stats returns hit/miss counters.
func (c *embedCache) stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// evictIfNeeded drops arbitrary L1 entries when over maxEntries. Vectors
// carry no per-entry expiry in L1; any evicted entry is still one Redis GET
// or one re-embed away.
func (c *embedCache) evictIfNeeded() {
	if c.maxEntries <= 0 {
		return
	}
	count := 0
	c.l1.Range(func(_, _ any) bool {
		count++
		return true
	})
	if count < c.maxEntries {
		return
	}
	c.l1.Range(func(key, _ any) bool {
		c.l1.Delete(key)
		count--
		return count >= c.maxEntries
	})
}
