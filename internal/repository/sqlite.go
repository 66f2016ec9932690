package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"crossx/internal/domain"
	apperrors "crossx/pkg/errors"
	"crossx/pkg/logger"

	_ "github.com/mattn/go-sqlite3"
)

// OpenSQLite открывает базу SQLite в режиме WAL и применяет миграции.
// Время хранится в unix-наносекундах, чтобы сравнения expires_at были числовыми.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if err := MigrateSQLite(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func toNanos(t time.Time) int64 { return t.UnixNano() }

func fromNanos(n int64) time.Time { return time.Unix(0, n).UTC() }

type sqliteRoomRepository struct {
	db  *sql.DB
	log logger.Logger
}

func NewSQLiteRoomRepository(db *sql.DB, log logger.Logger) RoomRepository {
	return &sqliteRoomRepository{db: db, log: log}
}

func (r *sqliteRoomRepository) CreateIfAvailable(ctx context.Context, room *domain.Room) (bool, error) {
	query := `
		INSERT INTO rooms (id, created_at, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE
		SET created_at = excluded.created_at, expires_at = excluded.expires_at
		WHERE rooms.expires_at <= excluded.created_at
		RETURNING id
	`

	var id string
	err := r.db.QueryRowContext(ctx, query, room.ID, toNanos(room.CreatedAt), toNanos(room.ExpiresAt)).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		r.log.Error("Failed to create room", "error", err, "room_id", room.ID)
		return false, err
	}
	return true, nil
}

func (r *sqliteRoomRepository) GetActive(ctx context.Context, id string, now time.Time) (*domain.Room, error) {
	query := `SELECT id, created_at, expires_at FROM rooms WHERE id = ? AND expires_at > ?`

	var createdAt, expiresAt int64
	room := &domain.Room{}
	err := r.db.QueryRowContext(ctx, query, id, toNanos(now)).Scan(&room.ID, &createdAt, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		r.log.Error("Failed to get room", "error", err, "room_id", id)
		return nil, err
	}

	room.CreatedAt = fromNanos(createdAt)
	room.ExpiresAt = fromNanos(expiresAt)
	return room, nil
}

func (r *sqliteRoomRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id); err != nil {
		r.log.Error("Failed to delete room", "error", err, "room_id", id)
		return err
	}
	return nil
}

func (r *sqliteRoomRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	return execCount(ctx, r.db, r.log, "rooms", `DELETE FROM rooms WHERE expires_at <= ?`, toNanos(cutoff))
}

type sqliteTextRepository struct {
	db  *sql.DB
	log logger.Logger
}

func NewSQLiteTextRepository(db *sql.DB, log logger.Logger) TextRepository {
	return &sqliteTextRepository{db: db, log: log}
}

func (r *sqliteTextRepository) Create(ctx context.Context, entry *domain.TextEntry) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO text_entries (room_id, text, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		entry.RoomID, entry.Text, toNanos(entry.CreatedAt), toNanos(entry.ExpiresAt),
	)
	if err != nil {
		r.log.Error("Failed to create text entry", "error", err, "room_id", entry.RoomID)
		return err
	}

	seq, err := result.LastInsertId()
	if err == nil {
		entry.Seq = seq
	}
	return nil
}

func (r *sqliteTextRepository) Latest(ctx context.Context, roomID string, now time.Time) (*domain.TextEntry, error) {
	query := `
		SELECT seq, room_id, text, created_at, expires_at
		FROM text_entries
		WHERE room_id = ? AND expires_at > ?
		ORDER BY created_at DESC, seq DESC
		LIMIT 1
	`

	var createdAt, expiresAt int64
	entry := &domain.TextEntry{}
	err := r.db.QueryRowContext(ctx, query, roomID, toNanos(now)).Scan(
		&entry.Seq, &entry.RoomID, &entry.Text, &createdAt, &expiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		r.log.Error("Failed to get latest text", "error", err, "room_id", roomID)
		return nil, err
	}

	entry.CreatedAt = fromNanos(createdAt)
	entry.ExpiresAt = fromNanos(expiresAt)
	return entry, nil
}

func (r *sqliteTextRepository) DeleteByRoom(ctx context.Context, roomID string) (int64, error) {
	return execCount(ctx, r.db, r.log, "text_entries", `DELETE FROM text_entries WHERE room_id = ?`, roomID)
}

func (r *sqliteTextRepository) DeleteStale(ctx context.Context, roomID string, before time.Time) (int64, error) {
	return execCount(ctx, r.db, r.log, "text_entries",
		`DELETE FROM text_entries WHERE room_id = ? AND created_at < ?`, roomID, toNanos(before))
}

func (r *sqliteTextRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	return execCount(ctx, r.db, r.log, "text_entries", `DELETE FROM text_entries WHERE expires_at <= ?`, toNanos(cutoff))
}

type sqliteImageRepository struct {
	db  *sql.DB
	log logger.Logger
}

func NewSQLiteImageRepository(db *sql.DB, log logger.Logger) ImageRepository {
	return &sqliteImageRepository{db: db, log: log}
}

func (r *sqliteImageRepository) Create(ctx context.Context, image *domain.ImageAsset) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO image_assets (room_id, url, asset_id, uploaded_at, expires_at) VALUES (?, ?, ?, ?, ?)`,
		image.RoomID, image.Asset.URL, image.Asset.AssetID, toNanos(image.UploadedAt), toNanos(image.ExpiresAt),
	)
	if err != nil {
		r.log.Error("Failed to create image asset", "error", err, "room_id", image.RoomID)
		return err
	}

	seq, err := result.LastInsertId()
	if err == nil {
		image.Seq = seq
	}
	return nil
}

func (r *sqliteImageRepository) ListActive(ctx context.Context, roomID string, now time.Time) ([]*domain.ImageAsset, error) {
	query := `SELECT ` + imageColumns + ` FROM image_assets
		WHERE room_id = ? AND expires_at > ?
		ORDER BY uploaded_at DESC, seq DESC`
	return r.query(ctx, query, roomID, toNanos(now))
}

func (r *sqliteImageRepository) DeleteByRoom(ctx context.Context, roomID string) ([]*domain.ImageAsset, error) {
	return r.query(ctx, `DELETE FROM image_assets WHERE room_id = ? RETURNING `+imageColumns, roomID)
}

func (r *sqliteImageRepository) DeleteStale(ctx context.Context, roomID string, before time.Time) ([]*domain.ImageAsset, error) {
	return r.query(ctx, `DELETE FROM image_assets WHERE room_id = ? AND uploaded_at < ? RETURNING `+imageColumns,
		roomID, toNanos(before))
}

func (r *sqliteImageRepository) ListExpired(ctx context.Context, cutoff time.Time) ([]*domain.ImageAsset, error) {
	return r.query(ctx, `SELECT `+imageColumns+` FROM image_assets WHERE expires_at <= ? ORDER BY seq`, toNanos(cutoff))
}

func (r *sqliteImageRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	return execCount(ctx, r.db, r.log, "image_assets", `DELETE FROM image_assets WHERE expires_at <= ?`, toNanos(cutoff))
}

func (r *sqliteImageRepository) query(ctx context.Context, query string, args ...any) ([]*domain.ImageAsset, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to query image assets", "error", err)
		return nil, err
	}
	defer rows.Close()

	images := []*domain.ImageAsset{}
	for rows.Next() {
		var uploadedAt, expiresAt int64
		img := &domain.ImageAsset{}
		if err := rows.Scan(&img.Seq, &img.RoomID, &img.Asset.URL, &img.Asset.AssetID, &uploadedAt, &expiresAt); err != nil {
			r.log.Error("Failed to scan image asset", "error", err)
			return nil, err
		}
		img.UploadedAt = fromNanos(uploadedAt)
		img.ExpiresAt = fromNanos(expiresAt)
		images = append(images, img)
	}
	return images, rows.Err()
}

func execCount(ctx context.Context, db *sql.DB, log logger.Logger, table, query string, args ...any) (int64, error) {
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("Failed to delete rows", "error", err, "table", table)
		return 0, err
	}
	return result.RowsAffected()
}
