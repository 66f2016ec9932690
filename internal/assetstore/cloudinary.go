package assetstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"crossx/internal/config"
	"crossx/internal/domain"
	apperrors "crossx/pkg/errors"
	"crossx/pkg/logger"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

type cloudinaryStore struct {
	cld    *cloudinary.Cloudinary
	folder string
	log    logger.Logger
}

func NewCloudinaryStore(cfg config.CloudinaryConfig, log logger.Logger) (Store, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to init cloudinary: %w", err)
	}

	return &cloudinaryStore{
		cld:    cld,
		folder: cfg.Folder,
		log:    log,
	}, nil
}

func (s *cloudinaryStore) Upload(ctx context.Context, data []byte, filename string) (domain.AssetRef, error) {
	result, err := s.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		Folder:       s.folder,
		ResourceType: "image",
	})
	if err != nil {
		return domain.AssetRef{}, apperrors.NewUpstreamStoreError("upload", err)
	}
	if result.Error.Message != "" {
		return domain.AssetRef{}, apperrors.NewUpstreamStoreError("upload", errors.New(result.Error.Message))
	}

	s.log.Debug("Image uploaded to cloudinary", "public_id", result.PublicID, "filename", filename)

	return domain.AssetRef{
		URL:     result.SecureURL,
		AssetID: result.PublicID,
	}, nil
}

func (s *cloudinaryStore) Delete(ctx context.Context, assetID string) error {
	result, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     assetID,
		ResourceType: "image",
	})
	if err != nil {
		return apperrors.NewUpstreamStoreError("delete", err)
	}
	if result.Error.Message != "" {
		return apperrors.NewUpstreamStoreError("delete", errors.New(result.Error.Message))
	}
	// "not found" означает, что ассет уже удален - это не ошибка
	if result.Result != "ok" && result.Result != "not found" {
		return apperrors.NewUpstreamStoreError("delete", fmt.Errorf("unexpected destroy result %q", result.Result))
	}
	return nil
}

func (s *cloudinaryStore) Ping(ctx context.Context) error {
	result, err := s.cld.Admin.Ping(ctx)
	if err != nil {
		return apperrors.NewUpstreamStoreError("ping", err)
	}
	if result.Error.Message != "" {
		return apperrors.NewUpstreamStoreError("ping", errors.New(result.Error.Message))
	}
	return nil
}
