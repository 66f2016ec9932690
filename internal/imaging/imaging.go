package imaging

import (
	"bytes"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"strings"

	apperrors "crossx/pkg/errors"

	"github.com/gabriel-vasile/mimetype"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp"
)

const jpegQuality = 85

// Prepared - изображение, готовое к загрузке во внешнее хранилище
type Prepared struct {
	Data        []byte
	Filename    string
	ContentType string
	Width       int
	Height      int
	Resized     bool
}

// Prepare проверяет, что данные являются изображением, и уменьшает его,
// если одна из сторон больше maxDimension. GIF не трогаем, чтобы не потерять анимацию.
func Prepare(data []byte, filename string, maxDimension int) (*Prepared, error) {
	if len(data) == 0 {
		return nil, apperrors.NewValidationError("image", "No file uploaded")
	}

	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return nil, apperrors.NewValidationError("image", "file is not an image")
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewValidationError("image", "unsupported image format")
	}

	prepared := &Prepared{
		Data:        data,
		Filename:    withExt(filename, mime.Extension()),
		ContentType: mime.String(),
		Width:       cfg.Width,
		Height:      cfg.Height,
	}

	if maxDimension <= 0 || format == "gif" {
		return prepared, nil
	}
	if cfg.Width <= maxDimension && cfg.Height <= maxDimension {
		return prepared, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewValidationError("image", "unsupported image format")
	}

	thumb := resize.Thumbnail(uint(maxDimension), uint(maxDimension), img, resize.Lanczos3)

	var buf bytes.Buffer
	if format == "png" {
		err = png.Encode(&buf, thumb)
		prepared.ContentType = "image/png"
		prepared.Filename = withExt(filename, ".png")
	} else {
		err = jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: jpegQuality})
		prepared.ContentType = "image/jpeg"
		prepared.Filename = withExt(filename, ".jpg")
	}
	if err != nil {
		return nil, err
	}

	bounds := thumb.Bounds()
	prepared.Data = buf.Bytes()
	prepared.Width = bounds.Dx()
	prepared.Height = bounds.Dy()
	prepared.Resized = true

	return prepared, nil
}

func withExt(filename, ext string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "image"
	}
	return base + ext
}
