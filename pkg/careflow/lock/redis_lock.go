package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"care-triage-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "care_triage:case_lock:"

// Deletes the key only if it still holds our token, so an expired lock
// re-acquired by another instance is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker serializes runs across instances sharing one Redis.
// The TTL bounds how long a crashed holder can keep a case busy.
type RedisLocker struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger logger.ILogger
}

func NewRedisLocker(rdb *redis.Client, ttl time.Duration, log logger.ILogger) *RedisLocker {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisLocker{rdb: rdb, ttl: ttl, logger: log}
}

func (l *RedisLocker) TryLock(ctx context.Context, key string) (func(), error) {
	redisKey := redisKeyPrefix + key
	token := uuid.NewString()

	ok, err := l.rdb.SetNX(ctx, redisKey, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrLockHeld
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, l.rdb, []string{redisKey}, token).Err(); err != nil {
				l.logger.Warn("Lock", "Failed to release case lock, it will expire", map[string]interface{}{
					"key":   key,
					"ttl":   l.ttl.String(),
					"error": err.Error(),
				})
			}
		})
	}, nil
}
