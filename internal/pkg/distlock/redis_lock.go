package distlock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds this instance's
// token, so a lock that expired and was reacquired by another run is never
// released from here.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLock is a SET NX lock with a TTL. The TTL bounds how long a crashed
// holder can keep the lock.
type RedisLock struct {
	client *redis.Client
	key    string
	token  string
	ttl    time.Duration
}

// NewRedisLock creates a lock instance with a fresh ownership token.
func NewRedisLock(client *redis.Client, name string, ttl time.Duration) *RedisLock {
	buf := make([]byte, 16)
	rand.Read(buf)
	return &RedisLock{
		client: client,
		key:    "lock:" + name,
		token:  hex.EncodeToString(buf),
		ttl:    ttl,
	}
}

func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire %s: %w", l.key, err)
	}
	return ok, nil
}

func (l *RedisLock) Release(ctx context.Context) error {
	if _, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Result(); err != nil {
		return fmt.Errorf("release %s: %w", l.key, err)
	}
	return nil
}
