package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"crossx/internal/domain"
	apperrors "crossx/pkg/errors"
)

// In-memory реализации. Данные теряются при рестарте процесса.
// Каждая коллекция защищена своим мьютексом, межколлекционных блокировок нет.

type memoryRoomRepository struct {
	mu    sync.Mutex
	rooms map[string]domain.Room
}

func NewMemoryRoomRepository() RoomRepository {
	return &memoryRoomRepository{rooms: make(map[string]domain.Room)}
}

func (r *memoryRoomRepository) CreateIfAvailable(_ context.Context, room *domain.Room) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.rooms[room.ID]; ok && existing.IsActive(room.CreatedAt) {
		return false, nil
	}
	r.rooms[room.ID] = *room
	return true, nil
}

func (r *memoryRoomRepository) GetActive(_ context.Context, id string, now time.Time) (*domain.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[id]
	if !ok || !room.IsActive(now) {
		return nil, apperrors.ErrNotFound
	}
	return &room, nil
}

func (r *memoryRoomRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.rooms, id)
	return nil
}

func (r *memoryRoomRepository) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, room := range r.rooms {
		if !room.ExpiresAt.After(cutoff) {
			delete(r.rooms, id)
			n++
		}
	}
	return n, nil
}

type memoryTextRepository struct {
	mu      sync.Mutex
	seq     int64
	entries []domain.TextEntry
}

func NewMemoryTextRepository() TextRepository {
	return &memoryTextRepository{}
}

func (r *memoryTextRepository) Create(_ context.Context, entry *domain.TextEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	entry.Seq = r.seq
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *memoryTextRepository) Latest(_ context.Context, roomID string, now time.Time) (*domain.TextEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var latest *domain.TextEntry
	for i := range r.entries {
		e := &r.entries[i]
		if e.RoomID != roomID || e.IsExpired(now) {
			continue
		}
		// entries упорядочены по seq, поэтому при равном created_at побеждает более поздняя вставка
		if latest == nil || !e.CreatedAt.Before(latest.CreatedAt) {
			latest = e
		}
	}
	if latest == nil {
		return nil, apperrors.ErrNotFound
	}

	result := *latest
	return &result, nil
}

func (r *memoryTextRepository) DeleteByRoom(_ context.Context, roomID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.deleteWhere(func(e *domain.TextEntry) bool { return e.RoomID == roomID }), nil
}

func (r *memoryTextRepository) DeleteStale(_ context.Context, roomID string, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.deleteWhere(func(e *domain.TextEntry) bool {
		return e.RoomID == roomID && e.CreatedAt.Before(before)
	}), nil
}

func (r *memoryTextRepository) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.deleteWhere(func(e *domain.TextEntry) bool { return e.IsExpired(cutoff) }), nil
}

func (r *memoryTextRepository) deleteWhere(match func(*domain.TextEntry) bool) int64 {
	kept := r.entries[:0]
	var n int64
	for i := range r.entries {
		if match(&r.entries[i]) {
			n++
			continue
		}
		kept = append(kept, r.entries[i])
	}
	r.entries = kept
	return n
}

type memoryImageRepository struct {
	mu     sync.Mutex
	seq    int64
	images []domain.ImageAsset
}

func NewMemoryImageRepository() ImageRepository {
	return &memoryImageRepository{}
}

func (r *memoryImageRepository) Create(_ context.Context, image *domain.ImageAsset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	image.Seq = r.seq
	r.images = append(r.images, *image)
	return nil
}

func (r *memoryImageRepository) ListActive(_ context.Context, roomID string, now time.Time) ([]*domain.ImageAsset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := r.collect(func(img *domain.ImageAsset) bool {
		return img.RoomID == roomID && !img.IsExpired(now)
	})
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].UploadedAt.Equal(result[j].UploadedAt) {
			return result[i].UploadedAt.After(result[j].UploadedAt)
		}
		return result[i].Seq > result[j].Seq
	})
	return result, nil
}

func (r *memoryImageRepository) DeleteByRoom(_ context.Context, roomID string) ([]*domain.ImageAsset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.deleteWhere(func(img *domain.ImageAsset) bool { return img.RoomID == roomID }), nil
}

func (r *memoryImageRepository) DeleteStale(_ context.Context, roomID string, before time.Time) ([]*domain.ImageAsset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.deleteWhere(func(img *domain.ImageAsset) bool {
		return img.RoomID == roomID && img.UploadedAt.Before(before)
	}), nil
}

func (r *memoryImageRepository) ListExpired(_ context.Context, cutoff time.Time) ([]*domain.ImageAsset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.collect(func(img *domain.ImageAsset) bool { return img.IsExpired(cutoff) }), nil
}

func (r *memoryImageRepository) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deleted := r.deleteWhere(func(img *domain.ImageAsset) bool { return img.IsExpired(cutoff) })
	return int64(len(deleted)), nil
}

func (r *memoryImageRepository) collect(match func(*domain.ImageAsset) bool) []*domain.ImageAsset {
	result := []*domain.ImageAsset{}
	for i := range r.images {
		if match(&r.images[i]) {
			img := r.images[i]
			result = append(result, &img)
		}
	}
	return result
}

func (r *memoryImageRepository) deleteWhere(match func(*domain.ImageAsset) bool) []*domain.ImageAsset {
	deleted := []*domain.ImageAsset{}
	kept := r.images[:0]
	for i := range r.images {
		img := r.images[i]
		if match(&img) {
			deleted = append(deleted, &img)
			continue
		}
		kept = append(kept, img)
	}
	r.images = kept
	return deleted
}
