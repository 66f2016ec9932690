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

type TextRepository interface {
	Create(ctx context.Context, entry *domain.TextEntry) error
	// Latest - последняя по created_at неистекшая запись (при равенстве - последняя вставленная)
	Latest(ctx context.Context, roomID string, now time.Time) (*domain.TextEntry, error)
	DeleteByRoom(ctx context.Context, roomID string) (int64, error)
	// DeleteStale удаляет записи комнаты, созданные строго раньше before
	DeleteStale(ctx context.Context, roomID string, before time.Time) (int64, error)
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

type textRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewTextRepository(db *pgxpool.Pool, log logger.Logger) TextRepository {
	return &textRepository{db: db, log: log}
}

func (r *textRepository) Create(ctx context.Context, entry *domain.TextEntry) error {
	query := `
		INSERT INTO text_entries (room_id, text, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING seq
	`

	err := r.db.QueryRow(ctx, query,
		entry.RoomID, entry.Text, entry.CreatedAt, entry.ExpiresAt,
	).Scan(&entry.Seq)
	if err != nil {
		r.log.Error("Failed to create text entry", "error", err, "room_id", entry.RoomID)
		return err
	}

	return nil
}

func (r *textRepository) Latest(ctx context.Context, roomID string, now time.Time) (*domain.TextEntry, error) {
	query := `
		SELECT seq, room_id, text, created_at, expires_at
		FROM text_entries
		WHERE room_id = $1 AND expires_at > $2
		ORDER BY created_at DESC, seq DESC
		LIMIT 1
	`

	entry := &domain.TextEntry{}
	err := r.db.QueryRow(ctx, query, roomID, now).Scan(
		&entry.Seq, &entry.RoomID, &entry.Text, &entry.CreatedAt, &entry.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		r.log.Error("Failed to get latest text", "error", err, "room_id", roomID)
		return nil, err
	}

	return entry, nil
}

func (r *textRepository) DeleteByRoom(ctx context.Context, roomID string) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM text_entries WHERE room_id = $1`, roomID)
	if err != nil {
		r.log.Error("Failed to delete room texts", "error", err, "room_id", roomID)
		return 0, err
	}
	return result.RowsAffected(), nil
}

func (r *textRepository) DeleteStale(ctx context.Context, roomID string, before time.Time) (int64, error) {
	query := `DELETE FROM text_entries WHERE room_id = $1 AND created_at < $2`
	result, err := r.db.Exec(ctx, query, roomID, before)
	if err != nil {
		r.log.Error("Failed to delete stale room texts", "error", err, "room_id", roomID)
		return 0, err
	}
	return result.RowsAffected(), nil
}

func (r *textRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM text_entries WHERE expires_at <= $1`, cutoff)
	if err != nil {
		r.log.Error("Failed to delete expired texts", "error", err)
		return 0, err
	}
	return result.RowsAffected(), nil
}
