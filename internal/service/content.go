package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"crossx/internal/assetstore"
	"crossx/internal/clock"
	"crossx/internal/domain"
	"crossx/internal/imaging"
	"crossx/internal/repository"
	apperrors "crossx/pkg/errors"
	"crossx/pkg/logger"
)

type ContentService interface {
	AppendText(ctx context.Context, roomID, text string) error
	LatestText(ctx context.Context, roomID string) (string, error)
	UploadImage(ctx context.Context, roomID string, data []byte, filename string) (string, error)
	AddImage(ctx context.Context, roomID string, ref domain.AssetRef) error
	ListImages(ctx context.Context, roomID string) ([]string, error)
	Clear(ctx context.Context, roomID string) error
	ClearStale(ctx context.Context, roomID string, before time.Time) error
}

type contentService struct {
	textRepo     repository.TextRepository
	imageRepo    repository.ImageRepository
	assets       assetstore.Store
	gate         *Gate
	clock        clock.Clock
	ttl          time.Duration
	maxDimension int
	log          logger.Logger
}

func NewContentService(
	textRepo repository.TextRepository,
	imageRepo repository.ImageRepository,
	assets assetstore.Store,
	gate *Gate,
	clk clock.Clock,
	ttl time.Duration,
	maxDimension int,
	log logger.Logger,
) ContentService {
	return &contentService{
		textRepo:     textRepo,
		imageRepo:    imageRepo,
		assets:       assets,
		gate:         gate,
		clock:        clk,
		ttl:          ttl,
		maxDimension: maxDimension,
		log:          log,
	}
}

func (s *contentService) AppendText(ctx context.Context, roomID, text string) error {
	roomID = strings.TrimSpace(roomID)

	_, err := Guard(ctx, s.gate, roomID, func(ctx context.Context) (struct{}, error) {
		now := now(s.clock)
		entry := &domain.TextEntry{
			RoomID:    roomID,
			Text:      text,
			CreatedAt: now,
			ExpiresAt: now.Add(s.ttl),
		}
		if err := s.textRepo.Create(ctx, entry); err != nil {
			return struct{}{}, fmt.Errorf("failed to save text: %w", err)
		}
		return struct{}{}, nil
	})
	return err
}

// LatestText возвращает последний неистекший текст комнаты или пустую строку
func (s *contentService) LatestText(ctx context.Context, roomID string) (string, error) {
	roomID = strings.TrimSpace(roomID)

	return Guard(ctx, s.gate, roomID, func(ctx context.Context) (string, error) {
		entry, err := s.textRepo.Latest(ctx, roomID, now(s.clock))
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return "", nil
			}
			return "", fmt.Errorf("failed to get text: %w", err)
		}
		return entry.Text, nil
	})
}

// UploadImage готовит изображение, загружает его во внешнее хранилище и регистрирует.
// Запись создается только после подтвержденной загрузки.
func (s *contentService) UploadImage(ctx context.Context, roomID string, data []byte, filename string) (string, error) {
	roomID = strings.TrimSpace(roomID)

	return Guard(ctx, s.gate, roomID, func(ctx context.Context) (string, error) {
		prepared, err := imaging.Prepare(data, filename, s.maxDimension)
		if err != nil {
			return "", err
		}
		if prepared.Resized {
			s.log.Debug("Image downscaled", "room_id", roomID, "width", prepared.Width, "height", prepared.Height)
		}

		ref, err := s.assets.Upload(ctx, prepared.Data, prepared.Filename)
		if err != nil {
			s.log.Error("Failed to upload image", "error", err, "room_id", roomID)
			return "", err
		}

		if err := s.register(ctx, roomID, ref); err != nil {
			// Ассет уже во внешнем хранилище, но записи о нем не будет
			s.deleteAssets(ctx, []*domain.ImageAsset{{RoomID: roomID, Asset: ref}})
			return "", err
		}

		s.log.Info("Image uploaded", "room_id", roomID, "asset_id", ref.AssetID)
		return ref.URL, nil
	})
}

// AddImage регистрирует уже загруженный ассет
func (s *contentService) AddImage(ctx context.Context, roomID string, ref domain.AssetRef) error {
	roomID = strings.TrimSpace(roomID)

	_, err := Guard(ctx, s.gate, roomID, func(ctx context.Context) (struct{}, error) {
		if ref.URL == "" {
			return struct{}{}, apperrors.NewValidationError("url", "image url required")
		}
		return struct{}{}, s.register(ctx, roomID, ref)
	})
	return err
}

func (s *contentService) register(ctx context.Context, roomID string, ref domain.AssetRef) error {
	now := now(s.clock)
	image := &domain.ImageAsset{
		RoomID:     roomID,
		Asset:      ref,
		UploadedAt: now,
		ExpiresAt:  now.Add(s.ttl),
	}
	if err := s.imageRepo.Create(ctx, image); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}

// ListImages возвращает ссылки на неистекшие изображения, новые первыми
func (s *contentService) ListImages(ctx context.Context, roomID string) ([]string, error) {
	roomID = strings.TrimSpace(roomID)

	return Guard(ctx, s.gate, roomID, func(ctx context.Context) ([]string, error) {
		images, err := s.imageRepo.ListActive(ctx, roomID, now(s.clock))
		if err != nil {
			return nil, fmt.Errorf("failed to list images: %w", err)
		}

		urls := make([]string, 0, len(images))
		for _, img := range images {
			urls = append(urls, img.Asset.URL)
		}
		return urls, nil
	})
}

// Clear удаляет весь текст и все изображения комнаты без проверки активности.
// Ассеты удаляются после строк; ошибки удаления ассетов только логируются.
func (s *contentService) Clear(ctx context.Context, roomID string) error {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return apperrors.NewValidationError("roomId", "roomId required")
	}

	return s.clear(ctx, roomID,
		func() (int64, error) { return s.textRepo.DeleteByRoom(ctx, roomID) },
		func() ([]*domain.ImageAsset, error) { return s.imageRepo.DeleteByRoom(ctx, roomID) },
	)
}

// ClearStale удаляет только содержимое, созданное раньше before.
// Записи, добавленные в комнату после этого момента, не трогаются.
func (s *contentService) ClearStale(ctx context.Context, roomID string, before time.Time) error {
	return s.clear(ctx, roomID,
		func() (int64, error) { return s.textRepo.DeleteStale(ctx, roomID, before) },
		func() ([]*domain.ImageAsset, error) { return s.imageRepo.DeleteStale(ctx, roomID, before) },
	)
}

func (s *contentService) clear(
	ctx context.Context,
	roomID string,
	deleteTexts func() (int64, error),
	deleteImages func() ([]*domain.ImageAsset, error),
) error {
	texts, err := deleteTexts()
	if err != nil {
		return fmt.Errorf("failed to clear texts: %w", err)
	}

	images, err := deleteImages()
	if err != nil {
		return fmt.Errorf("failed to clear images: %w", err)
	}

	failures := s.deleteAssets(ctx, images)

	if texts > 0 || len(images) > 0 {
		s.log.Info("Room content cleared", "room_id", roomID, "texts", texts, "images", len(images), "asset_delete_failures", failures)
	}
	return nil
}

// deleteAssets удаляет ассеты из внешнего хранилища и возвращает число неудач.
// Отмена запроса не должна обрывать удаление: строки уже удалены.
func (s *contentService) deleteAssets(ctx context.Context, images []*domain.ImageAsset) int {
	return deleteAssets(context.WithoutCancel(ctx), s.assets, images, s.log)
}

func deleteAssets(ctx context.Context, store assetstore.Store, images []*domain.ImageAsset, log logger.Logger) int {
	failures := 0
	for _, img := range images {
		if img.Asset.AssetID == "" {
			continue
		}
		if err := store.Delete(ctx, img.Asset.AssetID); err != nil {
			failures++
			log.Warn("Failed to delete asset", "error", err, "room_id", img.RoomID, "asset_id", img.Asset.AssetID)
		}
	}
	return failures
}
