package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisWindows is a WindowStore backed by a Redis sorted set per client,
// scored by request time. It lets several API instances share one limit.
type redisWindows struct {
	client *redis.Client

	perMinute   int
	burstLimit  int
	burstWindow time.Duration
}

// NewRedisWindows creates a Redis-backed window store from a redis:// URL.
func NewRedisWindows(redisURL string, cfg RateLimiterConfig) (WindowStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &redisWindows{
		client:      client,
		perMinute:   cfg.RequestsPerMinute,
		burstLimit:  cfg.BurstLimit,
		burstWindow: cfg.BurstWindow,
	}, nil
}

func (r *redisWindows) Allow(ctx context.Context, clientID string, now time.Time) (bool, int, error) {
	key := "ratelimit:" + clientID
	nowMs := now.UnixMilli()
	minuteAgoMs := now.Add(-time.Minute).UnixMilli()
	burstCutoffMs := now.Add(-r.burstWindow).UnixMilli()

	pipe := r.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", fmt.Sprintf("%d", minuteAgoMs))
	burstCmd := pipe.ZCount(ctx, key,
		fmt.Sprintf("(%d", burstCutoffMs), fmt.Sprintf("%d", nowMs))
	totalCmd := pipe.ZCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("reading rate limit windows: %w", err)
	}

	if int(burstCmd.Val()) >= r.burstLimit {
		return false, int(r.burstWindow / time.Second), nil
	}
	if int(totalCmd.Val()) >= r.perMinute {
		return false, 60, nil
	}

	record := r.client.Pipeline()
	record.ZAdd(ctx, key, redis.Z{
		Score:  float64(nowMs),
		Member: fmt.Sprintf("%d-%d", nowMs, now.UnixNano()),
	})
	record.Expire(ctx, key, 2*time.Minute)
	if _, err := record.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("recording request: %w", err)
	}

	return true, 0, nil
}

func (r *redisWindows) Close() error {
	return r.client.Close()
}
