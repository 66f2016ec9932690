package middleware

import (
	"net/http"

	apperrors "crossx/pkg/errors"
	"crossx/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ErrorHandler отдает последнюю ошибку из c.Errors в виде {"error": msg, "code": status}.
// Внутренние детали не раскрываются, 5xx пишутся в лог.
func ErrorHandler(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		statusCode := apperrors.HTTPStatusFromError(err)

		if statusCode >= http.StatusInternalServerError {
			log.Error("Request failed",
				"error", err,
				"method", c.Request.Method,
				"path", c.FullPath(),
			)
		}

		c.JSON(statusCode, apperrors.NewAPIError(apperrors.PublicMessage(err), statusCode))
	}
}
