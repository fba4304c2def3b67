package redisx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrLocked = errors.New("resource is locked")

// releaseScript deletes the key only if it still holds our token, so a lock
// that expired and was re-taken is not released by the old holder.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

type Locker struct {
	Redis redis.Cmdable
	TTL   time.Duration
}

// CheckoutLock guards one cart against double submission. The database row
// locks still decide correctness; this only turns a racing duplicate into a
// fast 409.
func (l *Locker) CheckoutLock(ctx context.Context, store, user string) (release func(), err error) {
	return l.Acquire(ctx, fmt.Sprintf(KeyCheckoutLock, store, user))
}

func (l *Locker) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	ok, err := l.Redis.SetNX(ctx, key, token, l.TTL).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLocked
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, l.Redis, []string{key}, token).Err()
	}, nil
}
