package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wallet-profiles/internal/models"
)

// CacheKeyType represents different types of cache keys
type CacheKeyType string

const (
	// CacheKeyProfileAddress is for profiles looked up by wallet address
	CacheKeyProfileAddress CacheKeyType = "profile:address"
)

// CacheService caches wallet profiles in Redis as JSON
type CacheService struct {
	redis *RedisCache
	ttl   time.Duration
}

// NewCacheService creates a new cache service
func NewCacheService(redis *RedisCache, ttl time.Duration) *CacheService {
	return &CacheService{
		redis: redis,
		ttl:   ttl,
	}
}

// GenerateCacheKey generates a cache key for a given type and parameters
// Format: <type>:<param1>:<param2>:...
func (c *CacheService) GenerateCacheKey(keyType CacheKeyType, params ...string) string {
	parts := make([]string, 0, len(params)+1)
	parts = append(parts, string(keyType))
	for _, param := range params {
		parts = append(parts, strings.ToLower(param))
	}
	return strings.Join(parts, ":")
}

// GenerateProfileKey generates the key of a profile by address
// Format: profile:address:<address>
func (c *CacheService) GenerateProfileKey(address string) string {
	return c.GenerateCacheKey(CacheKeyProfileAddress, address)
}

// Set stores a value in cache with the configured TTL
func (c *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return c.redis.Set(ctx, key, data, c.ttl)
}

// Get retrieves a value from cache and deserializes it. A miss returns false.
func (c *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.redis.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get from cache: %w", err)
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached value: %w", err)
	}
	return true, nil
}

// Invalidate removes one or more keys from cache
func (c *CacheService) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.redis.Del(ctx, keys...)
}

// GetProfile returns the cached profile for address, or nil on a miss
func (c *CacheService) GetProfile(ctx context.Context, address string) (*models.WalletProfile, error) {
	var profile models.WalletProfile
	found, err := c.Get(ctx, c.GenerateProfileKey(address), &profile)
	if err != nil || !found {
		return nil, err
	}
	return &profile, nil
}

// SetProfile caches a profile under its address
func (c *CacheService) SetProfile(ctx context.Context, profile *models.WalletProfile) error {
	return c.Set(ctx, c.GenerateProfileKey(profile.Address), profile)
}

// InvalidateProfile drops the cached profile of address
func (c *CacheService) InvalidateProfile(ctx context.Context, address string) error {
	return c.Invalidate(ctx, c.GenerateProfileKey(address))
}

// TTL returns the configured TTL for this cache service
func (c *CacheService) TTL() time.Duration {
	return c.ttl
}
