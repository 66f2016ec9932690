package repository

import (
	"context"
	"fmt"
	"time"

	"crossx/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const RateLimitKeyPrefix = "ratelimit:%s:%s"

type RateLimitRepository interface {
	// Hit увеличивает счетчик окна и возвращает его новое значение.
	// TTL ставится только на первый запрос окна (фиксированное окно).
	Hit(ctx context.Context, scope, key string, window time.Duration) (int64, error)
}

type rateLimitRepository struct {
	redis *redis.Client
	log   logger.Logger
}

func NewRateLimitRepository(redis *redis.Client, log logger.Logger) RateLimitRepository {
	return &rateLimitRepository{redis: redis, log: log}
}

func (r *rateLimitRepository) Hit(ctx context.Context, scope, key string, window time.Duration) (int64, error) {
	redisKey := fmt.Sprintf(RateLimitKeyPrefix, scope, key)

	var incr *redis.IntCmd
	_, err := r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.ExpireNX(ctx, redisKey, window)
		return nil
	})
	if err != nil {
		r.log.Error("Failed to increment rate limit", "error", err, "scope", scope)
		return 0, err
	}

	return incr.Val(), nil
}
