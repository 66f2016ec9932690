package service

import (
	"context"
	"time"

	"crossx/internal/repository"
	"crossx/pkg/logger"
)

type RateLimitService interface {
	// Allow учитывает запрос в окне и сообщает, укладывается ли он в лимит.
	// remaining не уходит в минус.
	Allow(ctx context.Context, scope, key string, limit int, window time.Duration) (allowed bool, remaining int, err error)
}

type rateLimitService struct {
	rateLimitRepo repository.RateLimitRepository
	log           logger.Logger
}

func NewRateLimitService(rateLimitRepo repository.RateLimitRepository, log logger.Logger) RateLimitService {
	return &rateLimitService{
		rateLimitRepo: rateLimitRepo,
		log:           log,
	}
}

func (s *rateLimitService) Allow(ctx context.Context, scope, key string, limit int, window time.Duration) (bool, int, error) {
	if limit <= 0 {
		return true, 0, nil
	}

	count, err := s.rateLimitRepo.Hit(ctx, scope, key, window)
	if err != nil {
		return false, 0, err
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	if count > int64(limit) {
		s.log.Debug("Rate limit exceeded", "scope", scope, "key", key, "count", count)
		return false, 0, nil
	}
	return true, remaining, nil
}
