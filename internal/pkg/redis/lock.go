package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLocked is returned by TryLock when another holder owns the key.
var ErrLocked = errors.New("redis: lock is held")

// releaseScript deletes the key only when it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock is a held distributed lock.
type Lock struct {
	c     *Client
	key   string
	token string
}

// TryLock acquires key for ttl without waiting.
func (c *Client) TryLock(ctx context.Context, key string, ttl time.Duration) (*Lock, error) {
	token := uuid.NewString()
	ok, err := c.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLocked
	}
	return &Lock{c: c, key: key, token: token}, nil
}

// Release frees the lock if it has not expired and been taken by someone else.
func (l *Lock) Release(ctx context.Context) error {
	return releaseScript.Run(ctx, l.c.rdb, []string{l.key}, l.token).Err()
}
