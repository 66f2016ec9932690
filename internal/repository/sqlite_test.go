package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"crossx/internal/domain"
	"crossx/pkg/logger"
)

func TestOpenSQLiteReopensExistingDatabase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "crossx.db")

	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	repos := NewSQLiteRepositories(db, nil, logger.Nop())
	room := &domain.Room{ID: "ab12cd", CreatedAt: epoch, ExpiresAt: epoch.Add(5 * time.Minute)}
	if ok, err := repos.Room.CreateIfAvailable(ctx, room); err != nil || !ok {
		t.Fatalf("CreateIfAvailable() = %v, %v", ok, err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	// Повторные миграции на той же базе ничего не ломают
	db, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("second OpenSQLite() error = %v", err)
	}
	defer db.Close()

	repos = NewSQLiteRepositories(db, nil, logger.Nop())
	got, err := repos.Room.GetActive(ctx, "ab12cd", epoch)
	if err != nil {
		t.Fatalf("GetActive() after reopen error = %v", err)
	}
	if !got.ExpiresAt.Equal(room.ExpiresAt) {
		t.Fatalf("ExpiresAt = %v, want %v", got.ExpiresAt, room.ExpiresAt)
	}
}

func TestSQLiteKeepsNanosecondPrecision(t *testing.T) {
	ctx := context.Background()
	repos := openTestSQLite(t)

	createdAt := epoch.Add(123456789 * time.Nanosecond)
	entry := &domain.TextEntry{RoomID: "r1", Text: "t", CreatedAt: createdAt, ExpiresAt: createdAt.Add(time.Minute)}
	if err := repos.Text.Create(ctx, entry); err != nil {
		t.Fatal(err)
	}
	if entry.Seq == 0 {
		t.Fatal("Create() did not set Seq")
	}

	got, err := repos.Text.Latest(ctx, "r1", createdAt)
	if err != nil {
		t.Fatal(err)
	}
	if !got.CreatedAt.Equal(createdAt) || got.CreatedAt.Location() != time.UTC {
		t.Fatalf("CreatedAt = %v, want %v in UTC", got.CreatedAt, createdAt)
	}
}
