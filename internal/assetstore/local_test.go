package assetstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperrors "crossx/pkg/errors"
	"crossx/pkg/logger"
)

func TestLocalStoreUploadAndDelete(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := NewLocalStore(dir, "http://localhost:3001/", logger.Nop())
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}

	ref, err := store.Upload(ctx, []byte("png-bytes"), "Cat.PNG")
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if !strings.HasPrefix(ref.URL, "http://localhost:3001/uploads/") {
		t.Errorf("Upload().URL = %q, want prefix http://localhost:3001/uploads/", ref.URL)
	}
	if !strings.HasSuffix(ref.AssetID, ".png") {
		t.Errorf("Upload().AssetID = %q, want .png suffix", ref.AssetID)
	}

	data, err := os.ReadFile(filepath.Join(dir, ref.AssetID))
	if err != nil {
		t.Fatalf("uploaded file missing: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("uploaded content = %q, want %q", data, "png-bytes")
	}

	if err := store.Delete(ctx, ref.AssetID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ref.AssetID)); !os.IsNotExist(err) {
		t.Fatalf("file still present after Delete(): %v", err)
	}

	// Повторное удаление - не ошибка
	if err := store.Delete(ctx, ref.AssetID); err != nil {
		t.Fatalf("second Delete() error = %v", err)
	}
}

func TestLocalStoreDeleteRejectsPathTraversal(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "http://localhost", logger.Nop())
	if err != nil {
		t.Fatal(err)
	}

	for _, id := range []string{"", "../etc/passwd", "a/b.png", ".hidden"} {
		err := store.Delete(context.Background(), id)
		if !errors.Is(err, apperrors.ErrUpstreamStore) {
			t.Errorf("Delete(%q) error = %v, want ErrUpstreamStore", id, err)
		}
	}
}

func TestLocalStorePing(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "http://localhost", logger.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}

	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}
	if err := store.Ping(context.Background()); !errors.Is(err, apperrors.ErrUpstreamStore) {
		t.Fatalf("Ping() on removed dir error = %v, want ErrUpstreamStore", err)
	}
}
