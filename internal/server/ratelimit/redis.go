package ratelimit

import (
	"context"
	"fmt"
	"time"

	"akeno/internal/types"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisKeyPrefix = "akeno:ratelimit:"

// RedisLimiter is the shared fixed-window limiter for multi-instance
// deployments. INCR plus a first-write expiry gives atomic per-user
// check-then-record across instances.
type RedisLimiter struct {
	client      *redis.Client
	windowSize  time.Duration
	maxCommands int
	logger      *zap.Logger
}

// _ implements Limiter
var _ Limiter = (*RedisLimiter)(nil)

// NewRedisLimiter creates a new redis backed limiter
func NewRedisLimiter(cfg Config, logger *zap.Logger) (*RedisLimiter, error) {
	if cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: 10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connect error: %w", err)
	}

	return &RedisLimiter{
		client:      client,
		windowSize:  cfg.Window,
		maxCommands: cfg.MaxCommands,
		logger:      logger,
	}, nil
}

// Check reports the current budget without consuming a slot
func (l *RedisLimiter) Check(ctx context.Context, userID string) (types.RateLimitResult, error) {
	key := redisKeyPrefix + userID

	count, err := l.client.Get(ctx, key).Int()
	if err == redis.Nil {
		return types.RateLimitResult{
			Allowed:   true,
			Remaining: l.maxCommands,
			ResetTime: time.Now().Add(l.windowSize),
		}, nil
	}
	if err != nil {
		return types.RateLimitResult{}, fmt.Errorf("rate limit check failed: %w", err)
	}

	ttl, err := l.client.PTTL(ctx, key).Result()
	if err != nil {
		return types.RateLimitResult{}, fmt.Errorf("rate limit check failed: %w", err)
	}

	return types.RateLimitResult{
		Allowed:   count < l.maxCommands,
		Remaining: remaining(l.maxCommands, count),
		Count:     count,
		ResetTime: time.Now().Add(ttl),
	}, nil
}

// Record consumes one slot. The expiry set on first increment makes the
// window reset wholesale when it elapses.
func (l *RedisLimiter) Record(ctx context.Context, userID string) (types.RateLimitResult, error) {
	key := redisKeyPrefix + userID

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return types.RateLimitResult{}, fmt.Errorf("rate limit record failed: %w", err)
	}
	if count == 1 {
		if err := l.client.PExpire(ctx, key, l.windowSize).Err(); err != nil {
			l.logger.Warn("Failed to set rate limit window expiry",
				zap.String("user_id", userID),
				zap.Error(err))
		}
	}

	ttl, err := l.client.PTTL(ctx, key).Result()
	if err != nil {
		ttl = l.windowSize
	}

	return types.RateLimitResult{
		Allowed:   int(count) <= l.maxCommands,
		Remaining: remaining(l.maxCommands, int(count)),
		Count:     int(count),
		ResetTime: time.Now().Add(ttl),
	}, nil
}

// Close releases the redis connection
func (l *RedisLimiter) Close() error {
	return l.client.Close()
}
