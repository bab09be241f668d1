package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// Client is the part of the go-redis API the page cache uses.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// PageCache stores listing pages as JSON under a generation number.
// Invalidate bumps the generation so every older entry becomes unreachable
// and ages out through its TTL.
type PageCache struct {
	client Client
	prefix string
	ttl    time.Duration
}

func NewPageCache(client Client, prefix string, ttl time.Duration) *PageCache {
	return &PageCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (c *PageCache) generationKey() string {
	return c.prefix + ":generation"
}

func (c *PageCache) entryKey(generation int64, key string) string {
	return fmt.Sprintf("%s:%d:%s", c.prefix, generation, key)
}

func (c *PageCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, c.generationKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read cache generation: %w", err)
	}
	return gen, nil
}

// GetPage decodes the cached entry into dst and reports whether it was found,
// along with the generation it looked under. A miss is filled by passing that
// generation back to SetPage.
func (c *PageCache) GetPage(ctx context.Context, key string, dst any) (bool, int64, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return false, 0, err
	}

	data, err := c.client.Get(ctx, c.entryKey(gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, gen, nil
	}
	if err != nil {
		return false, gen, fmt.Errorf("failed to get from cache: %w", err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return false, gen, fmt.Errorf("failed to decode cached page: %w", err)
	}
	return true, gen, nil
}

// SetPage stores value under generation. A page loaded before an Invalidate
// lands in the retired generation and is never read.
func (c *PageCache) SetPage(ctx context.Context, generation int64, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode page: %w", err)
	}

	if err := c.client.Set(ctx, c.entryKey(generation, key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in cache: %w", err)
	}
	return nil
}

func (c *PageCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, c.generationKey()).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}
	return nil
}

func (c *PageCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
