package handler

import (
	"context"
	"net/http"
	"time"

	"crossx/internal/assetstore"
	"crossx/internal/config"
	"crossx/pkg/logger"

	"github.com/gin-gonic/gin"
)

const storagePingTimeout = 10 * time.Second

type HealthHandler struct {
	assets       assetstore.Store
	storeBackend string
	assetBackend string
	log          logger.Logger
}

func NewHealthHandler(assets assetstore.Store, cfg *config.Config, log logger.Logger) *HealthHandler {
	return &HealthHandler{
		assets:       assets,
		storeBackend: cfg.Store.Backend,
		assetBackend: cfg.Assets.Backend,
		log:          log,
	}
}

func (h *HealthHandler) Check(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "crossx",
		"store":   h.storeBackend,
	})
}

// TestStorage проверяет доступность хранилища ассетов
func (h *HealthHandler) TestStorage(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), storagePingTimeout)
	defer cancel()

	if err := h.assets.Ping(ctx); err != nil {
		h.log.Error("Asset store ping failed", "error", err, "backend", h.assetBackend)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Asset store connection failed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Asset store connection successful",
		"backend": h.assetBackend,
	})
}
