package domain

import (
	"time"
)

// Room - эфемерная комната, доступная по короткому коду
type Room struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsActive - комната активна строго до ExpiresAt
func (r *Room) IsActive(now time.Time) bool {
	return r.ExpiresAt.After(now)
}

// RoomValidation - результат проверки кода комнаты
type RoomValidation struct {
	Valid     bool       `json:"valid"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

const (
	// Алфавит и длина кода комнаты: 6 символов [a-z0-9]
	RoomIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	RoomIDLength   = 6
)
