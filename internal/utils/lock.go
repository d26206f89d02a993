package utils

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// PaymentLockTTL bounds how long a crashed request can hold a payment lock
const PaymentLockTTL = 30 * time.Second

// releaseScript deletes the key only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// PaymentLockKey is the per-user lock guarding payment creation
func PaymentLockKey(userID string) string {
	return "lock:payment:" + userID
}

// AcquireLock sets key with SETNX. It returns the owner token, or "" when
// somebody else holds the lock.
func AcquireLock(ctx context.Context, rdb *redis.Client, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	ok, err := rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return token, nil
}

// ReleaseLock frees a lock taken by AcquireLock
func ReleaseLock(ctx context.Context, rdb *redis.Client, key, token string) error {
	return releaseScript.Run(ctx, rdb, []string{key}, token).Err()
}
