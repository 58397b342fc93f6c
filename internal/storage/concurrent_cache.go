package storage

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wallet-profiles/internal/logging"
	"github.com/wallet-profiles/internal/models"
)

// DefaultLoadTimeout bounds a shared repository read
const DefaultLoadTimeout = 10 * time.Second

// ConcurrentProfileCache wraps CacheService so that concurrent misses for the
// same address share a single database read
type ConcurrentProfileCache struct {
	cache       *CacheService
	logger      *logging.Logger
	loadTimeout time.Duration

	cacheHits   atomic.Int64
	cacheMisses atomic.Int64

	inflightMu sync.Mutex
	inflight   map[string]*inflightLoad
}

// inflightLoad is one database read shared by every caller that missed.
// invalidated is set, under inflightMu, when the profile is written while the
// read runs; such a result is returned but never cached.
type inflightLoad struct {
	done        chan struct{}
	profile     *models.WalletProfile
	err         error
	invalidated bool
}

// ConcurrentCacheStats holds cache statistics
type ConcurrentCacheStats struct {
	Hits     int64   `json:"hits"`
	Misses   int64   `json:"misses"`
	HitRate  float64 `json:"hitRate"` // percent
	Inflight int     `json:"inflight"`
}

// NewConcurrentProfileCache creates a stampede-safe profile cache
func NewConcurrentProfileCache(cache *CacheService, logger *logging.Logger) *ConcurrentProfileCache {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &ConcurrentProfileCache{
		cache:    cache,
		logger:      logger.WithField("component", "profile_cache"),
		loadTimeout: DefaultLoadTimeout,
		inflight:    make(map[string]*inflightLoad),
	}
}

// GetProfile returns the cached profile, or nil on a miss
func (c *ConcurrentProfileCache) GetProfile(ctx context.Context, address string) (*models.WalletProfile, error) {
	profile, err := c.cache.GetProfile(ctx, address)
	if err == nil {
		c.count(profile != nil)
	}
	return profile, err
}

// SetProfile caches a profile under its address
func (c *ConcurrentProfileCache) SetProfile(ctx context.Context, profile *models.WalletProfile) error {
	return c.cache.SetProfile(ctx, profile)
}

// InvalidateProfile drops the cached profile of address. A read in flight
// for the address is detached so its result is not cached and later misses
// start a fresh read.
func (c *ConcurrentProfileCache) InvalidateProfile(ctx context.Context, address string) error {
	key := c.cache.GenerateProfileKey(address)

	c.inflightMu.Lock()
	if call, exists := c.inflight[key]; exists {
		call.invalidated = true
		delete(c.inflight, key)
	}
	c.inflightMu.Unlock()

	return c.cache.InvalidateProfile(ctx, address)
}

// LoadProfile returns the cached profile or reads it with load, caching the
// result. Concurrent misses for the same address wait for one shared read,
// which runs detached from any single caller's context and is bounded by the
// load timeout. Cache failures degrade to a plain load.
func (c *ConcurrentProfileCache) LoadProfile(
	ctx context.Context,
	address string,
	load func(ctx context.Context, address string) (*models.WalletProfile, error),
) (*models.WalletProfile, error) {
	cached, err := c.cache.GetProfile(ctx, address)
	if err != nil {
		c.logger.WithError(err).WithField("address", address).Warn("Profile cache read failed")
	} else if cached != nil {
		c.cacheHits.Add(1)
		return cached, nil
	}
	c.cacheMisses.Add(1)

	key := c.cache.GenerateProfileKey(address)
	call, leader := c.getOrCreateInflight(key)
	if leader {
		go c.runLoad(context.WithoutCancel(ctx), key, address, call, load)
	}

	select {
	case <-call.done:
		return call.profile, call.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// runLoad performs a shared read and publishes its result to every waiter
func (c *ConcurrentProfileCache) runLoad(
	ctx context.Context,
	key, address string,
	call *inflightLoad,
	load func(ctx context.Context, address string) (*models.WalletProfile, error),
) {
	ctx, cancel := context.WithTimeout(ctx, c.loadTimeout)
	defer cancel()

	call.profile, call.err = load(ctx, address)
	if call.err == nil && call.profile != nil && !c.isInvalidated(call) {
		if err := c.cache.SetProfile(ctx, call.profile); err != nil {
			c.logger.WithError(err).WithField("address", address).Warn("Profile cache write failed")
		}
		// a write may have landed between the check and SetProfile
		if c.isInvalidated(call) {
			if err := c.cache.InvalidateProfile(ctx, address); err != nil {
				c.logger.WithError(err).WithField("address", address).Warn("Profile cache invalidation failed")
			}
		}
	}
	c.completeInflight(key, call)
}

func (c *ConcurrentProfileCache) isInvalidated(call *inflightLoad) bool {
	c.inflightMu.Lock()
	defer c.inflightMu.Unlock()
	return call.invalidated
}

// getOrCreateInflight returns the read in progress for key, or registers a
// new one and reports that the caller must perform it
func (c *ConcurrentProfileCache) getOrCreateInflight(key string) (*inflightLoad, bool) {
	c.inflightMu.Lock()
	defer c.inflightMu.Unlock()

	if call, exists := c.inflight[key]; exists {
		return call, false
	}

	call := &inflightLoad{done: make(chan struct{})}
	c.inflight[key] = call
	return call, true
}

// completeInflight releases every waiter of call
func (c *ConcurrentProfileCache) completeInflight(key string, call *inflightLoad) {
	c.inflightMu.Lock()
	if c.inflight[key] == call {
		delete(c.inflight, key)
	}
	c.inflightMu.Unlock()

	close(call.done)
}

func (c *ConcurrentProfileCache) count(hit bool) {
	if hit {
		c.cacheHits.Add(1)
	} else {
		c.cacheMisses.Add(1)
	}
}

// GetStats returns cache statistics
func (c *ConcurrentProfileCache) GetStats() *ConcurrentCacheStats {
	hits := c.cacheHits.Load()
	misses := c.cacheMisses.Load()
	total := hits + misses

	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	c.inflightMu.Lock()
	inflight := len(c.inflight)
	c.inflightMu.Unlock()

	return &ConcurrentCacheStats{
		Hits:     hits,
		Misses:   misses,
		HitRate:  hitRate,
		Inflight: inflight,
	}
}
