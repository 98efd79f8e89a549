package store

import (
	"context"
	"errors"
	"fmt"

	catalogerrors "github.com/abgdnv/catalogdesk/internal/errors"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "catalogdesk:slot:"

var _ Slot = (*RedisSlot)(nil)

// RedisSlot stores values as plain Redis strings without expiry.
type RedisSlot struct {
	client redis.Cmdable
}

func NewRedisSlot(client redis.Cmdable) *RedisSlot {
	return &RedisSlot{client: client}
}

func (r *RedisSlot) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, catalogerrors.ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, nil
}

func (r *RedisSlot) Write(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, redisKeyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
