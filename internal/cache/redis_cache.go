package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"milkbook/internal/domain"
)

const versionKey = "milkbook:balances:ver"

// RedisBalanceCache namespaces entries under a version counter; Invalidate
// bumps the counter instead of scanning for keys, so stale entries simply
// age out via TTL.
type RedisBalanceCache struct {
	client *redis.Client
}

func NewRedisBalanceCache(addr string, password string, db int) *RedisBalanceCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisBalanceCache{client: client}
}

func (c *RedisBalanceCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisBalanceCache) Close() error {
	return c.client.Close()
}

func (c *RedisBalanceCache) key(ctx context.Context, search string) (string, error) {
	ver, err := c.client.Get(ctx, versionKey).Result()
	if err == redis.Nil {
		ver = "0"
	} else if err != nil {
		return "", err
	}
	return fmt.Sprintf("milkbook:balances:%s:%s", ver, search), nil
}

func (c *RedisBalanceCache) Get(ctx context.Context, search string) ([]domain.CustomerBalanceRow, bool, error) {
	key, err := c.key(ctx, search)
	if err != nil {
		return nil, false, err
	}
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var rows []domain.CustomerBalanceRow
	if err := json.Unmarshal([]byte(val), &rows); err != nil {
		return nil, false, err
	}
	return rows, true, nil
}

func (c *RedisBalanceCache) Set(ctx context.Context, search string, rows []domain.CustomerBalanceRow, ttl time.Duration) error {
	key, err := c.key(ctx, search)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}

func (c *RedisBalanceCache) Invalidate(ctx context.Context) error {
	return c.client.Incr(ctx, versionKey).Err()
}
