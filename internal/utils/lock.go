package utils

import (
	"context" // Context for Redis operations
	"time"    // Lock lifetime

	"github.com/google/uuid"       // Lock ownership tokens
	"github.com/redis/go-redis/v9" // Redis client
)

// releaseScript deletes the key only while it still holds this holder's token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker hands out short-lived per-key locks in Redis. A nil client turns
// every lock into a no-op that always succeeds.
type Locker struct {
	rdb *redis.Client // Redis client, may be nil
	ttl time.Duration // Expiry protecting against crashed holders
}

// NewLocker creates a locker on top of rdb
func NewLocker(rdb *redis.Client, ttl time.Duration) *Locker {
	return &Locker{rdb: rdb, ttl: ttl}
}

// Acquire tries to take key. It returns a release function when the lock was
// obtained, or ok=false when another holder has it. Release leaves the key
// alone if it expired and was taken by someone else in the meantime.
func (l *Locker) Acquire(ctx context.Context, key string) (release func(), ok bool, err error) {
	if l == nil || l.rdb == nil {
		return func() {}, true, nil // Locking disabled
	}
	token := uuid.NewString()                              // Identifies this holder
	ok, err = l.rdb.SetNX(ctx, key, token, l.ttl).Result() // Only set if absent
	if err != nil || !ok {
		return nil, false, err // Redis error or lock held elsewhere
	}
	release = func() {
		// Release even if the request context is done
		_ = releaseScript.Run(context.Background(), l.rdb, []string{key}, token).Err()
	}
	return release, true, nil
}
