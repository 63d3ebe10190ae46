package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// lockWaitTimeout and lockRetryInterval bound how long a caller blocks
// waiting for a single-writer lock before giving up (spec §4.5/§5: "waiters
// block"; the core still must not hang forever on a stuck holder).
const (
	lockWaitTimeout   = 10 * time.Second
	lockRetryInterval = 25 * time.Millisecond
	lockTTL           = 30 * time.Second
)

// unlockScript deletes the lock key only if it still holds this lock's own
// token, so a holder never releases a lock it no longer owns (e.g. after its
// TTL expired and someone else acquired it).
var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// lock is a held distributed lock on one cache key.
type lock struct {
	client *redis.Client
	key    string
	token  string
}

// acquireLock blocks, retrying SET NX PX, until it owns key's lock or
// lockWaitTimeout elapses.
func acquireLock(ctx context.Context, client *redis.Client, key string, ttl time.Duration) (*lock, error) {
	token := uuid.NewString()
	redisKey := lockKeyName(key)
	deadline := time.Now().Add(lockWaitTimeout)

	for {
		ok, err := client.SetNX(ctx, redisKey, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			return &lock{client: client, key: key, token: token}, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("acquire lock %s: timed out waiting for holder", key)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
}

// release unconditionally tries to release the lock, even on decode-failure
// or error paths (spec §4.5: "released in all paths including decode
// failures"). Safe to call on a nil lock.
func (l *lock) release(ctx context.Context) {
	if l == nil {
		return
	}
	if err := unlockScript.Run(ctx, l.client, []string{lockKeyName(l.key)}, l.token).Err(); err != nil && err != redis.Nil {
		// Releasing best-effort: the lock's TTL bounds how long a failed
		// release can block the next waiter.
		return
	}
}

func lockKeyName(key string) string { return "lock:" + key }
