package service

import (
	"context"

	"crossx/internal/domain"
	apperrors "crossx/pkg/errors"
)

// RoomValidator - источник истины об активности комнаты
type RoomValidator interface {
	Validate(ctx context.Context, roomID string) (*domain.RoomValidation, error)
}

// Gate пропускает операцию над содержимым комнаты только если комната активна
// в момент вызова. После операции повторной проверки нет.
type Gate struct {
	rooms RoomValidator
}

func NewGate(rooms RoomValidator) *Gate {
	return &Gate{rooms: rooms}
}

// Check возвращает ErrRoomInactive для неизвестной или истекшей комнаты
func (g *Gate) Check(ctx context.Context, roomID string) error {
	validation, err := g.rooms.Validate(ctx, roomID)
	if err != nil {
		return err
	}
	if !validation.Valid {
		return apperrors.ErrRoomInactive
	}
	return nil
}

// Guard вызывает op только после успешной проверки комнаты
func Guard[T any](ctx context.Context, g *Gate, roomID string, op func(context.Context) (T, error)) (T, error) {
	if err := g.Check(ctx, roomID); err != nil {
		var zero T
		return zero, err
	}
	return op(ctx)
}
