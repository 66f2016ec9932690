package handler

import (
	"crossx/internal/assetstore"
	"crossx/internal/config"
	"crossx/internal/domain"
	"crossx/internal/middleware"
	"crossx/pkg/logger"

	"github.com/gin-gonic/gin"
)

func NewRouter(handlers *Handlers, rateLimit *middleware.RateLimitMiddleware, cfg *config.Config, log logger.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.ErrorHandler(log))

	// multipart в памяти не больше лимита загрузки, остальное уходит во временные файлы
	if cfg.Server.MaxUploadBytes > 0 {
		router.MaxMultipartMemory = cfg.Server.MaxUploadBytes
	}

	router.GET("/health", handlers.Health.Check)

	api := router.Group("/api")
	{
		// Комнаты
		api.POST("/create-room", rateLimit.Limit(domain.RateLimitScopeCreateRoom, cfg.Rooms.CreateLimitPerMinute), handlers.Room.Create)
		api.GET("/validate-room/:roomId", handlers.Room.Validate)
		api.POST("/close-room", handlers.Room.Close)
		api.POST("/clear-room", handlers.Room.Clear)
		api.GET("/room-qr/:roomId", handlers.Room.QRCode)

		// Содержимое
		api.POST("/upload", rateLimit.Limit(domain.RateLimitScopeUpload, cfg.Rooms.UploadLimitPerMinute), handlers.Content.Upload)
		api.GET("/images", handlers.Content.ListImages)
		api.POST("/text", handlers.Content.ShareText)
		api.GET("/text", handlers.Content.GetText)

		api.GET("/test-storage", handlers.Health.TestStorage)
	}

	if cfg.Assets.Backend == config.AssetBackendLocal {
		router.Static(assetstore.URLPrefix, cfg.Assets.UploadDir)
	}

	return router
}
