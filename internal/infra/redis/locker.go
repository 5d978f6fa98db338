package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker is a Redis-backed implementation of app.Locker shared by every instance.
// A lock expires after ttl so a crashed holder cannot wedge a student's attempt.
type Locker struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
}

func NewLocker(client *redis.Client, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &Locker{client: client, ttl: ttl, retry: 25 * time.Millisecond}
}

func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := l.key(key)
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", lockKey, err)
		}
		if ok {
			break
		}
		timer := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return func() {
		// release with a fresh context; the caller's may already be done
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{lockKey}, token).Err(); err != nil {
			log.Printf("release %s: %v", lockKey, err)
		}
	}, nil
}

func (l *Locker) key(key string) string {
	return "quiz:attempt-lock:" + key
}
