package utils

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func TestCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newRedis(t)

	var out []string
	hit, err := GetCache(ctx, rdb, "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, SetCache(ctx, rdb, "k", []string{"a", "b"}, CacheTTL))
	hit, err = GetCache(ctx, rdb, "k", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"a", "b"}, out)

	mr.FastForward(CacheTTL + time.Second)
	hit, err = GetCache(ctx, rdb, "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheNilClient(t *testing.T) {
	ctx := context.Background()
	var out int
	hit, err := GetCache(ctx, nil, "k", &out)
	assert.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, SetCache(ctx, nil, "k", 1, CacheTTL))
	assert.NoError(t, DeleteCache(ctx, nil, "k"))
}

func TestLockIsExclusive(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newRedis(t)
	key := PaymentLockKey("u1")

	token, err := AcquireLock(ctx, rdb, key, PaymentLockTTL)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	second, err := AcquireLock(ctx, rdb, key, PaymentLockTTL)
	require.NoError(t, err)
	assert.Empty(t, second)

	// a stale token must not free somebody else's lock
	require.NoError(t, ReleaseLock(ctx, rdb, key, "stale"))
	assert.True(t, mr.Exists(key))

	require.NoError(t, ReleaseLock(ctx, rdb, key, token))
	assert.False(t, mr.Exists(key))
}

func TestLockExpires(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newRedis(t)
	key := PaymentLockKey("u1")

	_, err := AcquireLock(ctx, rdb, key, PaymentLockTTL)
	require.NoError(t, err)
	mr.FastForward(PaymentLockTTL + time.Second)

	token, err := AcquireLock(ctx, rdb, key, PaymentLockTTL)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestFormatRupiah(t *testing.T) {
	assert.Equal(t, "Rp 150.000", FormatRupiah(decimal.NewFromInt(150000)))
	assert.Equal(t, "Rp 1.250.000", FormatRupiah(decimal.RequireFromString("1250000.00")))
}
