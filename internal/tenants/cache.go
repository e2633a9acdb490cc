package tenants

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/sweepgoat/backend/internal/models"
	"github.com/sweepgoat/backend/pkg/metrics"
)

// Defaults for the validation cache.
const (
	DefaultCacheSize = 1000
	DefaultCacheTTL  = 10 * time.Minute
)

// Directory looks hosts up by subdomain.
type Directory interface {
	FindBySubdomain(ctx context.Context, subdomain string) (*models.Host, error)
}

// Broadcaster tells peer instances to drop a cached subdomain.
type Broadcaster interface {
	PublishInvalidation(ctx context.Context, subdomain string) error
}

// CacheStats is a point-in-time view of the cache.
type CacheStats struct {
	Hits      uint64        `json:"hits"`
	Misses    uint64        `json:"misses"`
	Evictions uint64        `json:"evictions"`
	Size      int           `json:"size"`
	Capacity  int           `json:"capacity"`
	TTL       time.Duration `json:"ttl"`
}

// ValidationCache remembers reachable hosts by subdomain.
// Only hosts that exist and are verified are stored; misses always go to the directory.
type ValidationCache struct {
	dir      Directory
	lru      *expirable.LRU[string, *models.Host]
	bus      Broadcaster
	logger   *zap.Logger
	capacity int
	ttl      time.Duration

	// gens counts invalidations per key and purges counts ClearAll calls.
	// A fill only lands if neither moved while the directory was read.
	mu     sync.Mutex
	gens   map[string]uint64
	purges uint64

	hits      atomic.Uint64
	misses    atomic.Uint64
	callbacks atomic.Uint64
	removals  atomic.Uint64
}

// NewValidationCache creates a bounded cache with a write TTL. bus may be nil.
func NewValidationCache(dir Directory, size int, ttl time.Duration, bus Broadcaster, logger *zap.Logger) *ValidationCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	c := &ValidationCache{dir: dir, bus: bus, logger: logger, capacity: size, ttl: ttl, gens: map[string]uint64{}}
	c.lru = expirable.NewLRU[string, *models.Host](size, func(string, *models.Host) {
		c.callbacks.Add(1)
	}, ttl)
	return c
}

// Validate returns the host for subdomain if it is reachable, or nil.
// Directory errors are returned unchanged and nothing is cached.
func (c *ValidationCache) Validate(ctx context.Context, subdomain string) (*models.Host, error) {
	key := normalize(subdomain)
	if key == "" {
		return nil, nil
	}
	if h, ok := c.lru.Get(key); ok {
		c.hits.Add(1)
		return h.Clone(), nil
	}
	c.misses.Add(1)

	c.mu.Lock()
	gen, purges := c.gens[key], c.purges
	c.mu.Unlock()

	h, err := c.dir.FindBySubdomain(ctx, key)
	if err != nil {
		return nil, err
	}
	if !h.Reachable() {
		return nil, nil
	}

	c.mu.Lock()
	if c.gens[key] == gen && c.purges == purges {
		c.lru.Add(key, h.Clone())
	} else {
		c.logger.Debug("skipped stale tenant cache fill", zap.String("subdomain", key))
	}
	c.mu.Unlock()
	return h, nil
}

// Invalidate drops subdomain locally and, when a bus is configured, on peer instances.
func (c *ValidationCache) Invalidate(ctx context.Context, subdomain string) {
	key := normalize(subdomain)
	if key == "" {
		return
	}
	c.Evict(key)
	if c.bus == nil {
		return
	}
	if err := c.bus.PublishInvalidation(ctx, key); err != nil {
		c.logger.Warn("tenant invalidation broadcast failed", zap.String("subdomain", key), zap.Error(err))
	}
}

// Evict drops subdomain from this instance only.
func (c *ValidationCache) Evict(subdomain string) {
	key := normalize(subdomain)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[key]++
	if c.lru.Contains(key) {
		c.removals.Add(1)
		c.lru.Remove(key)
	}
}

// ClearAll empties the cache.
func (c *ValidationCache) ClearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.purges++
	c.removals.Add(uint64(c.lru.Len()))
	c.lru.Purge()
}

// Stats returns counters and the current size.
func (c *ValidationCache) Stats() CacheStats {
	evictions := c.callbacks.Load()
	if removed := c.removals.Load(); removed <= evictions {
		evictions -= removed
	} else {
		evictions = 0
	}
	return CacheStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: evictions,
		Size:      c.lru.Len(),
		Capacity:  c.capacity,
		TTL:       c.ttl,
	}
}

// MetricsStats adapts Stats for the Prometheus collectors.
func (c *ValidationCache) MetricsStats() metrics.CacheStats {
	s := c.Stats()
	return metrics.CacheStats{Hits: s.Hits, Misses: s.Misses, Evictions: s.Evictions, Size: s.Size}
}
