package cache

import (
	"context"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const defaultCursorKey = "tonpvp:deposits:cursor"

// RedisCursor keeps the deposit watcher position in Redis so a restart resumes where it stopped.
type RedisCursor struct {
	client *redis.Client
	key    string
}

func NewRedisCursor(client *redis.Client, key string) *RedisCursor {
	if key == "" {
		key = defaultCursorKey
	}
	return &RedisCursor{client: client, key: key}
}

// Load returns zero when no position was saved yet.
func (c *RedisCursor) Load(ctx context.Context) (uint64, error) {
	raw, err := c.client.Get(ctx, c.key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "load cursor")
	}
	lt, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "cursor value %q", raw)
	}
	return lt, nil
}

func (c *RedisCursor) Save(ctx context.Context, lt uint64) error {
	err := c.client.Set(ctx, c.key, strconv.FormatUint(lt, 10), 0).Err()
	return errors.Wrap(err, "save cursor")
}

// MemoryCursor is used when no Redis address is configured. The watcher then rescans from the
// start after a restart and relies on idempotent matching.
type MemoryCursor struct {
	mu sync.Mutex
	lt uint64
}

func (c *MemoryCursor) Load(ctx context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lt, nil
}

func (c *MemoryCursor) Save(ctx context.Context, lt uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lt = lt
	return nil
}
