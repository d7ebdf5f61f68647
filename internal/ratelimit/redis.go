package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:"

// Redis is a fixed window limiter backed by INCR and EXPIRE, shared by every
// instance using the same Redis server.
type Redis struct {
	client   *redis.Client
	limit    int
	duration time.Duration
}

func NewRedis(client *redis.Client, limit int, duration time.Duration) *Redis {
	return &Redis{client: client, limit: limit, duration: duration}
}

// NewRedisClient parses a redis:// URL and connects.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (r *Redis) Allow(ctx context.Context, key string) (Decision, error) {
	k := keyPrefix + key

	count, err := r.client.Incr(ctx, k).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("increment %s: %w", k, err)
	}

	ttl, err := r.client.PTTL(ctx, k).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("ttl %s: %w", k, err)
	}
	// A negative ttl means the key has no expiry yet: this request opened
	// the window, or an earlier EXPIRE was lost.
	if count == 1 || ttl < 0 {
		if err := r.client.PExpire(ctx, k, r.duration).Err(); err != nil {
			return Decision{}, fmt.Errorf("expire %s: %w", k, err)
		}
		ttl = r.duration
	}

	return decide(r.limit, int(count), time.Now().Add(ttl)), nil
}
