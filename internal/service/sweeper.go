package service

import (
	"context"
	"sync"
	"time"

	"crossx/internal/assetstore"
	"crossx/internal/clock"
	"crossx/internal/domain"
	"crossx/internal/repository"
	"crossx/pkg/logger"
)

// ExpirySweeper периодически удаляет истекшие комнаты, тексты и изображения
type ExpirySweeper struct {
	rooms    repository.RoomRepository
	texts    repository.TextRepository
	images   repository.ImageRepository
	assets   assetstore.Store
	clock    clock.Clock
	interval time.Duration
	log      logger.Logger

	onSweep func(domain.SweepReport)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

type SweeperOption func(*ExpirySweeper)

// WithSweepHook вызывается после каждого прохода из горутины свипера
func WithSweepHook(fn func(domain.SweepReport)) SweeperOption {
	return func(s *ExpirySweeper) { s.onSweep = fn }
}

func NewExpirySweeper(repos *repository.Repositories, assets assetstore.Store, clk clock.Clock, interval time.Duration, log logger.Logger, opts ...SweeperOption) *ExpirySweeper {
	s := &ExpirySweeper{
		rooms:    repos.Room,
		texts:    repos.Text,
		images:   repos.Image,
		assets:   assets,
		clock:    clk,
		interval: interval,
		log:      log.With("component", "sweeper"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start запускает цикл свипера. Повторный вызов без Stop ничего не делает.
func (s *ExpirySweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	ticker := s.clock.NewTicker(s.interval)
	go s.run(ctx, ticker, s.done)

	s.log.Info("Expiry sweeper started", "interval", s.interval)
}

// Stop останавливает цикл и ждет завершения текущего прохода
func (s *ExpirySweeper) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	s.log.Info("Expiry sweeper stopped")
}

func (s *ExpirySweeper) run(ctx context.Context, ticker *clock.Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report := s.Sweep(ctx)
			if s.onSweep != nil {
				s.onSweep(report)
			}
		}
	}
}

// Sweep выполняет один проход. Все коллекции чистятся по одному и тому же cutoff,
// ошибка в одной коллекции не останавливает остальные.
func (s *ExpirySweeper) Sweep(ctx context.Context) domain.SweepReport {
	report := domain.SweepReport{Cutoff: s.clock.Now().UTC()}

	expired, err := s.images.ListExpired(ctx, report.Cutoff)
	if err != nil {
		s.log.Error("Failed to list expired images", "error", err)
	} else {
		report.AssetDeleteFailures = deleteAssets(ctx, s.assets, expired, s.log)
	}

	if report.Rooms, err = s.rooms.DeleteExpired(ctx, report.Cutoff); err != nil {
		s.log.Error("Failed to delete expired rooms", "error", err)
	}
	if report.Texts, err = s.texts.DeleteExpired(ctx, report.Cutoff); err != nil {
		s.log.Error("Failed to delete expired texts", "error", err)
	}
	if report.Images, err = s.images.DeleteExpired(ctx, report.Cutoff); err != nil {
		s.log.Error("Failed to delete expired images", "error", err)
	}

	if report.Rooms > 0 || report.Texts > 0 || report.Images > 0 {
		s.log.Info("Expired content swept",
			"rooms", report.Rooms,
			"texts", report.Texts,
			"images", report.Images,
			"asset_delete_failures", report.AssetDeleteFailures,
		)
	}
	return report
}
