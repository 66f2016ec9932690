package handler

import (
	"net/http"
	"strings"

	"crossx/internal/service"
	apperrors "crossx/pkg/errors"
	"crossx/pkg/logger"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"
)

const qrSize = 256

type RoomHandler struct {
	roomService    service.RoomService
	contentService service.ContentService
	publicURL      string
	log            logger.Logger
}

func NewRoomHandler(roomService service.RoomService, contentService service.ContentService, publicURL string, log logger.Logger) *RoomHandler {
	return &RoomHandler{
		roomService:    roomService,
		contentService: contentService,
		publicURL:      publicURL,
		log:            log,
	}
}

func roomPath(roomID string) string {
	return "/room/" + roomID
}

func (h *RoomHandler) Create(c *gin.Context) {
	room, err := h.roomService.Create(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"roomId":    room.ID,
		"url":       roomPath(room.ID),
		"expiresAt": room.ExpiresAt,
	})
}

func (h *RoomHandler) Validate(c *gin.Context) {
	validation, err := h.roomService.Validate(c.Request.Context(), c.Param("roomId"))
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, validation)
}

func (h *RoomHandler) Close(c *gin.Context) {
	var req roomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, apperrors.NewValidationError("roomId", "roomId required"))
		return
	}

	if err := h.roomService.Close(c.Request.Context(), req.RoomID); err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Clear удаляет содержимое комнаты, саму комнату не трогает
func (h *RoomHandler) Clear(c *gin.Context) {
	var req roomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, apperrors.NewValidationError("roomId", "roomId required"))
		return
	}

	if err := h.contentService.Clear(c.Request.Context(), req.RoomID); err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// QRCode отдает PNG со ссылкой для входа в активную комнату
func (h *RoomHandler) QRCode(c *gin.Context) {
	roomID := strings.TrimSpace(c.Param("roomId"))

	validation, err := h.roomService.Validate(c.Request.Context(), roomID)
	if err != nil {
		abort(c, err)
		return
	}
	if !validation.Valid {
		abort(c, apperrors.ErrNotFound)
		return
	}

	png, err := qrcode.Encode(h.publicURL+roomPath(roomID), qrcode.Medium, qrSize)
	if err != nil {
		h.log.Error("Failed to encode QR code", "error", err, "room_id", roomID)
		abort(c, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}
