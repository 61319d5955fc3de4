package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// AttemptLocker serialises the count-then-insert section of a submission.
type AttemptLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisAttemptLocker holds a SET NX lock per key until unlock or TTL expiry.
type RedisAttemptLocker struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
}

// NewRedisAttemptLocker builds a lock that expires after ttl when never released.
func NewRedisAttemptLocker(client *redis.Client, ttl time.Duration) *RedisAttemptLocker {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &RedisAttemptLocker{client: client, ttl: ttl, retry: 25 * time.Millisecond}
}

// Lock blocks until the key is acquired or ctx is done.
func (l *RedisAttemptLocker) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	for {
		acquired, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, errors.Join(err, ctxErr)
			}
			return nil, err
		}
		if acquired {
			return func() {
				releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				_ = releaseLockScript.Run(releaseCtx, l.client, []string{key}, token).Err()
			}, nil
		}

		timer := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, errors.Join(errors.New("attempt lock not acquired"), ctx.Err())
		case <-timer.C:
		}
	}
}

// NoopAttemptLocker is used when no Redis is configured; only the database transaction guards the count.
type NoopAttemptLocker struct{}

func (NoopAttemptLocker) Lock(ctx context.Context, key string) (func(), error) {
	return func() {}, nil
}
