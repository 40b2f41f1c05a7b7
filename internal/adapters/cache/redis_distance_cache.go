package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"truckmates-route-service/internal/platform/obs"
	"truckmates-route-service/internal/ports"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "truckmates:distance:"

// RedisDistanceCache shares external distance results between server
// instances with a TTL.
type RedisDistanceCache struct {
	client *redis.Client
	ttl    time.Duration
}

type redisEntry struct {
	Miles   float64 `json:"miles"`
	Minutes float64 `json:"minutes"`
	Source  string  `json:"source"`
}

func NewRedisDistanceCache(client *redis.Client, ttl time.Duration) *RedisDistanceCache {
	return &RedisDistanceCache{client: client, ttl: ttl}
}

// NewRedisClient parses a redis:// URL and verifies the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}

	return client, nil
}

func (c *RedisDistanceCache) Get(ctx context.Context, key string) (_ ports.DistanceResult, _ bool, err error) {
	defer obs.Time(ctx, "distance.redis.Get")(&err)

	b, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ports.DistanceResult{}, false, nil
	}
	if err != nil {
		return ports.DistanceResult{}, false, fmt.Errorf("get distance cache: redis get: %w", err)
	}

	var e redisEntry
	if err := json.Unmarshal(b, &e); err != nil {
		return ports.DistanceResult{}, false, fmt.Errorf("get distance cache: decode %q: %w", key, err)
	}

	return ports.DistanceResult{Miles: e.Miles, Minutes: e.Minutes, Source: ports.Source(e.Source)}, true, nil
}

func (c *RedisDistanceCache) Put(ctx context.Context, key string, r ports.DistanceResult) error {
	b, err := json.Marshal(redisEntry{Miles: r.Miles, Minutes: r.Minutes, Source: string(r.Source)})
	if err != nil {
		return fmt.Errorf("insert distance cache: encode: %w", err)
	}

	if err := c.client.Set(ctx, redisKeyPrefix+key, b, c.ttl).Err(); err != nil {
		return fmt.Errorf("insert distance cache: redis set: %w", err)
	}

	return nil
}
