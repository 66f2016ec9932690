package repository

import (
	"context"
	"errors"
	"time"

	"crossx/internal/domain"
	apperrors "crossx/pkg/errors"
	"crossx/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RoomRepository interface {
	// CreateIfAvailable вставляет комнату, если нет активной комнаты с тем же ID.
	// Истекшая строка с тем же ID заменяется. false - код занят активной комнатой.
	CreateIfAvailable(ctx context.Context, room *domain.Room) (bool, error)
	// GetActive возвращает комнату с expires_at > now или ErrNotFound
	GetActive(ctx context.Context, id string, now time.Time) (*domain.Room, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

type roomRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewRoomRepository(db *pgxpool.Pool, log logger.Logger) RoomRepository {
	return &roomRepository{
		db:  db,
		log: log,
	}
}

func (r *roomRepository) CreateIfAvailable(ctx context.Context, room *domain.Room) (bool, error) {
	query := `
		INSERT INTO rooms (id, created_at, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET created_at = EXCLUDED.created_at, expires_at = EXCLUDED.expires_at
		WHERE rooms.expires_at <= EXCLUDED.created_at
		RETURNING id
	`

	var id string
	err := r.db.QueryRow(ctx, query, room.ID, room.CreatedAt, room.ExpiresAt).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Код занят активной комнатой
			return false, nil
		}
		r.log.Error("Failed to create room", "error", err, "room_id", room.ID)
		return false, err
	}

	return true, nil
}

func (r *roomRepository) GetActive(ctx context.Context, id string, now time.Time) (*domain.Room, error) {
	query := `
		SELECT id, created_at, expires_at
		FROM rooms
		WHERE id = $1 AND expires_at > $2
	`

	room := &domain.Room{}
	err := r.db.QueryRow(ctx, query, id, now).Scan(&room.ID, &room.CreatedAt, &room.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		r.log.Error("Failed to get room", "error", err, "room_id", id)
		return nil, err
	}

	return room, nil
}

func (r *roomRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM rooms WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to delete room", "error", err, "room_id", id)
		return err
	}
	return nil
}

func (r *roomRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM rooms WHERE expires_at <= $1`
	result, err := r.db.Exec(ctx, query, cutoff)
	if err != nil {
		r.log.Error("Failed to delete expired rooms", "error", err)
		return 0, err
	}
	return result.RowsAffected(), nil
}
