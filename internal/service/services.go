package service

import (
	"context"
	"time"

	"crossx/internal/assetstore"
	"crossx/internal/clock"
	"crossx/internal/config"
	"crossx/internal/repository"
	"crossx/pkg/logger"
)

type Services struct {
	Room      RoomService
	Content   ContentService
	Gate      *Gate
	Sweeper   *ExpirySweeper
	RateLimit RateLimitService
	Assets    assetstore.Store
}

func NewServices(repos *repository.Repositories, assets assetstore.Store, cfg *config.Config, clk clock.Clock, log logger.Logger) *Services {
	services := &Services{Assets: assets}

	services.Room = NewRoomService(repos.Room, lazyContent{services}, clk, cfg.Rooms.TTL, log)
	services.Gate = NewGate(services.Room)
	services.Content = NewContentService(
		repos.Text,
		repos.Image,
		assets,
		services.Gate,
		clk,
		cfg.Rooms.TTL,
		cfg.Assets.MaxImageDimension,
		log,
	)
	services.Sweeper = NewExpirySweeper(repos, assets, clk, cfg.Rooms.SweepInterval, log)

	if repos.RateLimit != nil {
		services.RateLimit = NewRateLimitService(repos.RateLimit, log)
	} else {
		log.Warn("RateLimit repository is nil, rate limiting not initialized")
	}

	return services
}

// lazyContent разрывает цикл: реестр комнат чистит содержимое через ContentService,
// а тот проверяет комнаты через реестр
type lazyContent struct {
	services *Services
}

func (c lazyContent) Clear(ctx context.Context, roomID string) error {
	return c.services.Content.Clear(ctx, roomID)
}

func (c lazyContent) ClearStale(ctx context.Context, roomID string, before time.Time) error {
	return c.services.Content.ClearStale(ctx, roomID, before)
}
