package domain

import (
	"time"
)

// TextEntry - одна публикация текста в комнате. Записи не изменяются,
// каждая новая публикация добавляет строку.
type TextEntry struct {
	Seq       int64     `json:"-"`
	RoomID    string    `json:"room_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AssetRef - ссылка на объект во внешнем хранилище
type AssetRef struct {
	URL     string `json:"url"`
	AssetID string `json:"asset_id"`
}

// ImageAsset - метаданные загруженного изображения
type ImageAsset struct {
	Seq        int64     `json:"-"`
	RoomID     string    `json:"room_id"`
	Asset      AssetRef  `json:"asset"`
	UploadedAt time.Time `json:"uploaded_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// IsExpired - запись считается истекшей при ExpiresAt <= now
func (e *TextEntry) IsExpired(now time.Time) bool {
	return !e.ExpiresAt.After(now)
}

func (i *ImageAsset) IsExpired(now time.Time) bool {
	return !i.ExpiresAt.After(now)
}
