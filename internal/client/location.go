package client

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Location - единственное состояние, которое переживает перезапуск клиента: id комнаты
type Location interface {
	Load() (string, error)
	Save(roomID string) error
	Clear() error
}

type fileLocation struct {
	path string
}

// NewFileLocation хранит id комнаты в текстовом файле
func NewFileLocation(path string) Location {
	return &fileLocation{path: path}
}

func (l *fileLocation) Load() (string, error) {
	raw, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read location: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

func (l *fileLocation) Save(roomID string) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create location dir: %w", err)
	}
	if err := os.WriteFile(l.path, []byte(roomID+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to write location: %w", err)
	}
	return nil
}

func (l *fileLocation) Clear() error {
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to clear location: %w", err)
	}
	return nil
}

// MemoryLocation - Location без диска, для тестов и одноразовых запусков
type MemoryLocation struct {
	RoomID string
}

func (l *MemoryLocation) Load() (string, error) { return l.RoomID, nil }

func (l *MemoryLocation) Save(roomID string) error {
	l.RoomID = roomID
	return nil
}

func (l *MemoryLocation) Clear() error {
	l.RoomID = ""
	return nil
}
