package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// RedisBackend keeps one list per collection. RPUSH makes concurrent appends
// from several processes safe.
type RedisBackend struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisBackend(cfg RedisConfig) (*RedisBackend, error) {
	if cfg.Addr == "" {
		cfg.Addr = "localhost:6379"
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "kebbi"
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisBackend{rdb: rdb, prefix: cfg.Prefix}, nil
}

func (b *RedisBackend) key(name Name) string {
	return b.prefix + ":" + string(name)
}

func (b *RedisBackend) Load(ctx context.Context, name Name) ([]json.RawMessage, error) {
	values, err := b.rdb.LRange(ctx, b.key(name), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange %s: %w", name, err)
	}
	records := make([]json.RawMessage, 0, len(values))
	for _, v := range values {
		records = append(records, json.RawMessage(v))
	}
	return records, nil
}

func (b *RedisBackend) Append(ctx context.Context, name Name, record json.RawMessage) error {
	if err := b.rdb.RPush(ctx, b.key(name), string(record)).Err(); err != nil {
		return fmt.Errorf("rpush %s: %w", name, err)
	}
	return nil
}

// Clear removes a collection. Used by tests against a shared server.
func (b *RedisBackend) Clear(ctx context.Context, name Name) error {
	return b.rdb.Del(ctx, b.key(name)).Err()
}

func (b *RedisBackend) Close() error {
	return b.rdb.Close()
}
