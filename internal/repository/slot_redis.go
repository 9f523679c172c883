package repository

import (
	"context"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisSlot keeps values under <prefix>:<key> with no expiry.
type RedisSlot struct {
	client *redis.Client
	prefix string
}

func NewRedisSlot(client *redis.Client, prefix string) *RedisSlot {
	if prefix == "" {
		prefix = "taskboard"
	}
	return &RedisSlot{client: client, prefix: prefix}
}

// DialRedis creates a client and pings it.
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// Client exposes the connection so the rate limiter can share it.
func (s *RedisSlot) Client() *redis.Client {
	return s.client
}

func (s *RedisSlot) key(key string) string {
	return s.prefix + ":" + key
}

func (s *RedisSlot) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSlotEmpty
		}
		return nil, err
	}
	return v, nil
}

func (s *RedisSlot) Set(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, s.key(key), value, 0).Err()
}

func (s *RedisSlot) Close() error {
	return s.client.Close()
}
