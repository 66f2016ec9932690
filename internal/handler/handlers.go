package handler

import (
	"crossx/internal/config"
	"crossx/internal/service"
	"crossx/pkg/logger"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Health  *HealthHandler
	Room    *RoomHandler
	Content *ContentHandler
}

func NewHandlers(services *service.Services, cfg *config.Config, log logger.Logger) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(services.Assets, cfg, log),
		Room:    NewRoomHandler(services.Room, services.Content, cfg.Server.PublicURL, log),
		Content: NewContentHandler(services.Content, cfg.Server.MaxUploadBytes, log),
	}
}

// abort передает ошибку в middleware.ErrorHandler
func abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

type roomRequest struct {
	RoomID string `json:"roomId"`
}
