package ratelimit

import (
	"github.com/learnlyhq/learnly/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("rate.limit",
	fx.Provide(NewRedisClient),
	fx.Provide(NewTokenBucket),
)

// NewRedisClient returns nil when no Redis address is configured, which
// disables rate limiting entirely.
func NewRedisClient(cfg config.Config, log *zap.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		log.Warn("redis address not configured, webhook rate limiting disabled")
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
}
