package assetstore

import (
	"context"
	"fmt"

	"crossx/internal/config"
	"crossx/internal/domain"
	"crossx/pkg/logger"
)

// Store - внешнее хранилище бинарных ассетов.
// Upload ждет подтверждения и возвращает ссылку; ошибки оборачиваются в UpstreamStoreError.
// Delete - best-effort: вызывающий код только логирует ошибку.
type Store interface {
	Upload(ctx context.Context, data []byte, filename string) (domain.AssetRef, error)
	Delete(ctx context.Context, assetID string) error
	Ping(ctx context.Context) error
}

// New выбирает реализацию по ASSET_BACKEND
func New(cfg *config.Config, log logger.Logger) (Store, error) {
	switch cfg.Assets.Backend {
	case config.AssetBackendCloudinary:
		return NewCloudinaryStore(cfg.Assets.Cloudinary, log)
	case config.AssetBackendLocal:
		return NewLocalStore(cfg.Assets.UploadDir, cfg.Server.PublicURL, log)
	default:
		return nil, fmt.Errorf("unknown asset backend %q", cfg.Assets.Backend)
	}
}
