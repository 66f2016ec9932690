package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("validation failed")
	ErrRoomInactive  = errors.New("room not found or expired")
	ErrUpstreamStore = errors.New("upstream store error")
	ErrRateLimited   = errors.New("rate limit exceeded")
)

// APIError - тело ответа с ошибкой, общее для сервера и клиента
type APIError struct {
	Message string `json:"error"`
	Code    int    `json:"code"`
}

func (e *APIError) Error() string {
	return e.Message
}

func NewAPIError(message string, code int) *APIError {
	return &APIError{
		Message: message,
		Code:    code,
	}
}

// ValidationError - некорректный или отсутствующий входной параметр
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// UpstreamStoreError - ошибка внешнего хранилища ассетов.
// Op = "upload" пробрасывается клиенту, Op = "delete" только логируется.
type UpstreamStoreError struct {
	Op  string
	Err error
}

func (e *UpstreamStoreError) Error() string {
	return fmt.Sprintf("asset store %s failed: %v", e.Op, e.Err)
}

func (e *UpstreamStoreError) Unwrap() error {
	return e.Err
}

func (e *UpstreamStoreError) Is(target error) bool {
	return target == ErrUpstreamStore
}

func NewUpstreamStoreError(op string, err error) *UpstreamStoreError {
	return &UpstreamStoreError{Op: op, Err: err}
}

func HTTPStatusFromError(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrRoomInactive):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage возвращает сообщение, которое можно показать клиенту.
// Внутренние детали ошибок наружу не отдаем.
func PublicMessage(err error) string {
	var validationErr *ValidationError
	switch {
	case errors.As(err, &validationErr):
		return validationErr.Message
	case errors.Is(err, ErrRoomInactive):
		return "Room not found or expired"
	case errors.Is(err, ErrUpstreamStore):
		return "upload failed"
	case errors.Is(err, ErrNotFound):
		return ErrNotFound.Error()
	case errors.Is(err, ErrRateLimited):
		return "Rate limit exceeded"
	default:
		return "Internal server error"
	}
}
