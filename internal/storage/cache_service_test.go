package storage

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallet-profiles/internal/models"
	"github.com/wallet-profiles/internal/types"
)

// setupTestCache creates a CacheService backed by miniredis
func setupTestCache(t *testing.T, ttl time.Duration) (*CacheService, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewCacheService(NewRedisCacheFromClient(client), ttl), mr
}

func testProfile() *models.WalletProfile {
	handle := "alice"
	return &models.WalletProfile{
		ID:              7,
		Address:         "0xabcdef0123456789abcdef0123456789abcdef01",
		TwitterHandle:   &handle,
		TargetPortfolio: types.RiskProfile{"stablecoins": 60, "bluechips": 40},
		CreatedAt:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		UpdatedAt:       time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC),
	}
}

func TestCacheService_GenerateProfileKey(t *testing.T) {
	cache, _ := setupTestCache(t, time.Minute)

	key1 := cache.GenerateProfileKey("0xABCDEF0123456789abcdef0123456789ABCDEF01")
	key2 := cache.GenerateProfileKey("0xabcdef0123456789abcdef0123456789abcdef01")

	assert.Equal(t, key1, key2)
	assert.Equal(t, "profile:address:0xabcdef0123456789abcdef0123456789abcdef01", key1)
}

func TestCacheService_ProfileRoundTrip(t *testing.T) {
	cache, mr := setupTestCache(t, time.Minute)
	ctx := testContext(t)
	profile := testProfile()

	miss, err := cache.GetProfile(ctx, profile.Address)
	require.NoError(t, err)
	assert.Nil(t, miss)

	require.NoError(t, cache.SetProfile(ctx, profile))
	assert.True(t, mr.Exists(cache.GenerateProfileKey(profile.Address)))
	assert.Equal(t, time.Minute, mr.TTL(cache.GenerateProfileKey(profile.Address)))

	got, err := cache.GetProfile(ctx, profile.Address)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, profile.ID, got.ID)
	assert.Equal(t, "alice", *got.TwitterHandle)
	assert.Nil(t, got.FarcasterHandle)
	assert.Equal(t, profile.TargetPortfolio, got.TargetPortfolio)
	assert.True(t, profile.CreatedAt.Equal(got.CreatedAt))
}

func TestCacheService_InvalidateProfile(t *testing.T) {
	cache, mr := setupTestCache(t, time.Minute)
	ctx := testContext(t)
	profile := testProfile()

	require.NoError(t, cache.SetProfile(ctx, profile))
	require.NoError(t, cache.InvalidateProfile(ctx, profile.Address))
	assert.False(t, mr.Exists(cache.GenerateProfileKey(profile.Address)))

	// invalidating a missing key is not an error
	assert.NoError(t, cache.InvalidateProfile(ctx, profile.Address))
}

func TestCacheService_Expiry(t *testing.T) {
	cache, mr := setupTestCache(t, time.Minute)
	ctx := testContext(t)
	profile := testProfile()

	require.NoError(t, cache.SetProfile(ctx, profile))
	mr.FastForward(2 * time.Minute)

	got, err := cache.GetProfile(ctx, profile.Address)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCacheService_CorruptEntry(t *testing.T) {
	cache, mr := setupTestCache(t, time.Minute)
	ctx := testContext(t)

	require.NoError(t, mr.Set(cache.GenerateProfileKey("0xabc"), "{not json"))

	_, err := cache.GetProfile(ctx, "0xabc")
	assert.Error(t, err)
}

func TestCacheService_RedisDown(t *testing.T) {
	cache, mr := setupTestCache(t, time.Minute)
	ctx := testContext(t)
	mr.Close()

	_, err := cache.GetProfile(ctx, "0xabc")
	assert.Error(t, err)
}

func TestRedisCache_Basics(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	cache := NewRedisCacheFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	defer func() { _ = cache.Close() }()
	ctx := testContext(t)

	require.NoError(t, cache.Ping(ctx))
	require.NoError(t, cache.Set(ctx, "k", "v", time.Minute))

	got, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	exists, err := cache.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, cache.Del(ctx, "k"))
	_, err = cache.Get(ctx, "k")
	assert.ErrorIs(t, err, redis.Nil)
}
