package repository

import (
	"context"
	"time"

	"crossx/internal/domain"
	"crossx/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ImageRepository interface {
	Create(ctx context.Context, image *domain.ImageAsset) error
	// ListActive - неистекшие изображения комнаты, новые первыми
	ListActive(ctx context.Context, roomID string, now time.Time) ([]*domain.ImageAsset, error)
	// DeleteByRoom удаляет все строки комнаты и возвращает удаленные
	DeleteByRoom(ctx context.Context, roomID string) ([]*domain.ImageAsset, error)
	// DeleteStale удаляет изображения комнаты, загруженные строго раньше before
	DeleteStale(ctx context.Context, roomID string, before time.Time) ([]*domain.ImageAsset, error)
	ListExpired(ctx context.Context, cutoff time.Time) ([]*domain.ImageAsset, error)
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

type imageRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewImageRepository(db *pgxpool.Pool, log logger.Logger) ImageRepository {
	return &imageRepository{db: db, log: log}
}

const imageColumns = `seq, room_id, url, asset_id, uploaded_at, expires_at`

func (r *imageRepository) Create(ctx context.Context, image *domain.ImageAsset) error {
	query := `
		INSERT INTO image_assets (room_id, url, asset_id, uploaded_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING seq
	`

	err := r.db.QueryRow(ctx, query,
		image.RoomID, image.Asset.URL, image.Asset.AssetID, image.UploadedAt, image.ExpiresAt,
	).Scan(&image.Seq)
	if err != nil {
		r.log.Error("Failed to create image asset", "error", err, "room_id", image.RoomID)
		return err
	}

	return nil
}

func (r *imageRepository) ListActive(ctx context.Context, roomID string, now time.Time) ([]*domain.ImageAsset, error) {
	query := `
		SELECT ` + imageColumns + `
		FROM image_assets
		WHERE room_id = $1 AND expires_at > $2
		ORDER BY uploaded_at DESC, seq DESC
	`

	rows, err := r.db.Query(ctx, query, roomID, now)
	if err != nil {
		r.log.Error("Failed to list room images", "error", err, "room_id", roomID)
		return nil, err
	}
	return r.scan(rows)
}

func (r *imageRepository) DeleteByRoom(ctx context.Context, roomID string) ([]*domain.ImageAsset, error) {
	query := `DELETE FROM image_assets WHERE room_id = $1 RETURNING ` + imageColumns

	rows, err := r.db.Query(ctx, query, roomID)
	if err != nil {
		r.log.Error("Failed to delete room images", "error", err, "room_id", roomID)
		return nil, err
	}
	return r.scan(rows)
}

func (r *imageRepository) DeleteStale(ctx context.Context, roomID string, before time.Time) ([]*domain.ImageAsset, error) {
	query := `DELETE FROM image_assets WHERE room_id = $1 AND uploaded_at < $2 RETURNING ` + imageColumns

	rows, err := r.db.Query(ctx, query, roomID, before)
	if err != nil {
		r.log.Error("Failed to delete stale room images", "error", err, "room_id", roomID)
		return nil, err
	}
	return r.scan(rows)
}

func (r *imageRepository) ListExpired(ctx context.Context, cutoff time.Time) ([]*domain.ImageAsset, error) {
	query := `SELECT ` + imageColumns + ` FROM image_assets WHERE expires_at <= $1 ORDER BY seq`

	rows, err := r.db.Query(ctx, query, cutoff)
	if err != nil {
		r.log.Error("Failed to list expired images", "error", err)
		return nil, err
	}
	return r.scan(rows)
}

func (r *imageRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM image_assets WHERE expires_at <= $1`, cutoff)
	if err != nil {
		r.log.Error("Failed to delete expired images", "error", err)
		return 0, err
	}
	return result.RowsAffected(), nil
}

func (r *imageRepository) scan(rows pgx.Rows) ([]*domain.ImageAsset, error) {
	defer rows.Close()

	images := []*domain.ImageAsset{}
	for rows.Next() {
		img := &domain.ImageAsset{}
		err := rows.Scan(
			&img.Seq, &img.RoomID, &img.Asset.URL, &img.Asset.AssetID, &img.UploadedAt, &img.ExpiresAt,
		)
		if err != nil {
			r.log.Error("Failed to scan image asset", "error", err)
			return nil, err
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		r.log.Error("Failed to iterate image assets", "error", err)
		return nil, err
	}

	return images, nil
}
