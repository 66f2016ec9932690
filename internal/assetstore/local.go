package assetstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"crossx/internal/domain"
	apperrors "crossx/pkg/errors"
	"crossx/pkg/logger"

	"github.com/google/uuid"
)

// URLPrefix - путь, по которому сервер раздает локальные загрузки
const URLPrefix = "/uploads"

type localStore struct {
	dir     string
	baseURL string
	log     logger.Logger
}

// NewLocalStore хранит файлы в dir и отдает ссылки вида baseURL/uploads/<имя>
func NewLocalStore(dir, baseURL string, log logger.Logger) (Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}

	return &localStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log,
	}, nil
}

func (s *localStore) Upload(_ context.Context, data []byte, filename string) (domain.AssetRef, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".bin"
	}
	name := uuid.New().String() + ext

	// Пишем во временный файл и переименовываем, чтобы не отдать недописанный файл
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return domain.AssetRef{}, apperrors.NewUpstreamStoreError("upload", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return domain.AssetRef{}, apperrors.NewUpstreamStoreError("upload", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return domain.AssetRef{}, apperrors.NewUpstreamStoreError("upload", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmp.Name())
		return domain.AssetRef{}, apperrors.NewUpstreamStoreError("upload", err)
	}

	return domain.AssetRef{
		URL:     s.baseURL + URLPrefix + "/" + name,
		AssetID: name,
	}, nil
}

func (s *localStore) Delete(_ context.Context, assetID string) error {
	if assetID == "" || filepath.Base(assetID) != assetID || strings.HasPrefix(assetID, ".") {
		return apperrors.NewUpstreamStoreError("delete", fmt.Errorf("invalid asset id %q", assetID))
	}

	err := os.Remove(filepath.Join(s.dir, assetID))
	if err != nil && !os.IsNotExist(err) {
		return apperrors.NewUpstreamStoreError("delete", err)
	}
	return nil
}

func (s *localStore) Ping(_ context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return apperrors.NewUpstreamStoreError("ping", err)
	}
	if !info.IsDir() {
		return apperrors.NewUpstreamStoreError("ping", fmt.Errorf("%s is not a directory", s.dir))
	}
	return nil
}
