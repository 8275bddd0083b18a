package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisSlot struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSlot stores values in Redis; every save refreshes the ttl.
func NewRedisSlot(client *redis.Client, ttl time.Duration) *RedisSlot {
	return &RedisSlot{client: client, ttl: ttl}
}

func (s *RedisSlot) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("redis slot: failed to load %s: %w", key, err)
	}
	return data, nil
}

func (s *RedisSlot) Save(ctx context.Context, key string, data []byte) error {
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis slot: failed to save %s: %w", key, err)
	}
	return nil
}

func (s *RedisSlot) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis slot: failed to delete %s: %w", key, err)
	}
	return nil
}
