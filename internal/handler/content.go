package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"crossx/internal/service"
	apperrors "crossx/pkg/errors"
	"crossx/pkg/logger"

	"github.com/gin-gonic/gin"
)

type ContentHandler struct {
	contentService service.ContentService
	maxUploadBytes int64
	log            logger.Logger
}

func NewContentHandler(contentService service.ContentService, maxUploadBytes int64, log logger.Logger) *ContentHandler {
	return &ContentHandler{
		contentService: contentService,
		maxUploadBytes: maxUploadBytes,
		log:            log,
	}
}

type ShareTextRequest struct {
	RoomID string `json:"roomId"`
	Text   string `json:"text"`
}

func (h *ContentHandler) ShareText(c *gin.Context) {
	var req ShareTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, apperrors.NewValidationError("body", "invalid request body"))
		return
	}

	if err := h.contentService.AppendText(c.Request.Context(), req.RoomID, req.Text); err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *ContentHandler) GetText(c *gin.Context) {
	text, err := h.contentService.LatestText(c.Request.Context(), c.Query("roomId"))
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"text": text})
}

func (h *ContentHandler) ListImages(c *gin.Context) {
	urls, err := h.contentService.ListImages(c.Request.Context(), c.Query("roomId"))
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, urls)
}

// Upload принимает multipart-поля image и roomId
func (h *ContentHandler) Upload(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	// FormFile разбирает форму целиком, поэтому roomId читаем после него
	header, err := c.FormFile("image")
	roomID := c.PostForm("roomId")

	// Без файла data остается пустым: сервис сначала проверит комнату, потом вернет "No file uploaded"
	var data []byte
	var filename string

	switch {
	case err == nil:
		filename = header.Filename
		if data, err = readFormFile(header); err != nil {
			h.log.Error("Failed to read uploaded file", "error", err)
			abort(c, err)
			return
		}
	case isTooLarge(err):
		abort(c, apperrors.NewValidationError("image", "file too large"))
		return
	}

	url, err := h.contentService.UploadImage(c.Request.Context(), roomID, data, filename)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

func readFormFile(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
