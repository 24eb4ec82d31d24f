package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// LoginLimiter throttles login attempts before credentials are checked.
type LoginLimiter interface {
	// Allow reports whether another attempt for the key may proceed.
	Allow(ctx context.Context, key string) bool
}

// redisLoginLimiter counts attempts in fixed one-minute windows keyed by
// username and client address. If Redis is unreachable it fails open: login
// availability wins over strict throttling, and token validation is unaffected
// either way.
type redisLoginLimiter struct {
	client *redis.Client
	max    int
	logger *zap.Logger
}

// NewLoginLimiter builds a Redis-backed limiter. A nil client or non-positive
// max disables limiting.
func NewLoginLimiter(client *redis.Client, maxPerMinute int, logger *zap.Logger) LoginLimiter {
	if client == nil || maxPerMinute <= 0 {
		return noopLimiter{}
	}
	return &redisLoginLimiter{client: client, max: maxPerMinute, logger: logger}
}

func (l *redisLoginLimiter) Allow(ctx context.Context, key string) bool {
	window := time.Now().Unix() / 60
	redisKey := fmt.Sprintf("login_attempts:%s:%d", key, window)

	pipe := l.client.TxPipeline()
	count := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, 2*time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		l.logger.Warn("login limiter unavailable", zap.Error(err))
		return true
	}
	return count.Val() <= int64(l.max)
}

type noopLimiter struct{}

func (noopLimiter) Allow(context.Context, string) bool { return true }
