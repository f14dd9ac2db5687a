package shortcode

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisCounter keeps click counts in Redis, one integer key per form.
type RedisCounter struct {
	client *redis.Client
}

func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client}
}

func clicksKey(formID string) string {
	return fmt.Sprintf("short_url:clicks:%s", formID)
}

func (c *RedisCounter) Increment(ctx context.Context, formID string) error {
	return c.client.Incr(ctx, clicksKey(formID)).Err()
}

func (c *RedisCounter) Count(ctx context.Context, formID string) (int64, error) {
	n, err := c.client.Get(ctx, clicksKey(formID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}
