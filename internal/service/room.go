package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"crossx/internal/clock"
	"crossx/internal/domain"
	"crossx/internal/repository"
	apperrors "crossx/pkg/errors"
	"crossx/pkg/logger"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

type RoomService interface {
	Create(ctx context.Context) (*domain.Room, error)
	Validate(ctx context.Context, roomID string) (*domain.RoomValidation, error)
	Close(ctx context.Context, roomID string) error
}

// ContentCleaner удаляет содержимое комнаты вместе с внешними ассетами
type ContentCleaner interface {
	Clear(ctx context.Context, roomID string) error
	ClearStale(ctx context.Context, roomID string, before time.Time) error
}

type roomService struct {
	roomRepo repository.RoomRepository
	content  ContentCleaner
	clock    clock.Clock
	ttl      time.Duration
	generate func() (string, error)
	log      logger.Logger
}

func NewRoomService(roomRepo repository.RoomRepository, content ContentCleaner, clk clock.Clock, ttl time.Duration, log logger.Logger) RoomService {
	return &roomService{
		roomRepo: roomRepo,
		content:  content,
		clock:    clk,
		ttl:      ttl,
		generate: generateRoomID,
		log:      log,
	}
}

func generateRoomID() (string, error) {
	return gonanoid.Generate(domain.RoomIDAlphabet, domain.RoomIDLength)
}

func (s *roomService) Create(ctx context.Context) (*domain.Room, error) {
	var room *domain.Room

	// Повторяем до первого свободного кода. Коллизии редки: 36^6 вариантов.
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		id, err := s.generate()
		if err != nil {
			s.log.Error("Failed to generate room id", "error", err)
			return nil, fmt.Errorf("failed to generate room id: %w", err)
		}

		now := now(s.clock)
		candidate := &domain.Room{
			ID:        id,
			CreatedAt: now,
			ExpiresAt: now.Add(s.ttl),
		}

		created, err := s.roomRepo.CreateIfAvailable(ctx, candidate)
		if err != nil {
			return nil, fmt.Errorf("failed to create room: %w", err)
		}
		if created {
			room = candidate
			break
		}

		s.log.Debug("Room id collision, regenerating", "room_id", id, "attempt", attempt)
	}

	// Код мог принадлежать истекшей комнате, чье содержимое еще не вычистил свипер.
	// Все ее записи созданы раньше новой комнаты; записи новой комнаты остаются.
	if err := s.content.ClearStale(ctx, room.ID, room.CreatedAt); err != nil {
		s.log.Warn("Failed to clear stale content for new room", "error", err, "room_id", room.ID)
	}

	s.log.Info("Room created", "room_id", room.ID, "expires_at", room.ExpiresAt)

	return room, nil
}

func (s *roomService) Validate(ctx context.Context, roomID string) (*domain.RoomValidation, error) {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return &domain.RoomValidation{Valid: false}, nil
	}

	room, err := s.roomRepo.GetActive(ctx, roomID, now(s.clock))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return &domain.RoomValidation{Valid: false}, nil
		}
		return nil, fmt.Errorf("failed to validate room: %w", err)
	}

	expiresAt := room.ExpiresAt
	return &domain.RoomValidation{Valid: true, ExpiresAt: &expiresAt}, nil
}

func (s *roomService) Close(ctx context.Context, roomID string) error {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return apperrors.NewValidationError("roomId", "roomId required")
	}

	if err := s.roomRepo.Delete(ctx, roomID); err != nil {
		return fmt.Errorf("failed to close room: %w", err)
	}

	if err := s.content.Clear(ctx, roomID); err != nil {
		return fmt.Errorf("failed to clear closed room: %w", err)
	}

	s.log.Info("Room closed", "room_id", roomID)
	return nil
}

// now - текущее время с точностью до миллисекунд, как его увидит клиент в JSON
func now(clk clock.Clock) time.Time {
	return clk.Now().UTC().Truncate(time.Millisecond)
}
