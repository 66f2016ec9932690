package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "crossx/pkg/errors"
	"crossx/pkg/logger"

	"github.com/gin-gonic/gin"
)

type stubLimiter struct {
	calls int
	err   error
}

func (s *stubLimiter) Allow(_ context.Context, _, _ string, limit int, _ time.Duration) (bool, int, error) {
	s.calls++
	if s.err != nil {
		return false, 0, s.err
	}
	if s.calls > limit {
		return false, 0, nil
	}
	return true, limit - s.calls, nil
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler(logger.Nop()))
	r.GET("/x", handlers...)
	return r
}

func get(r *gin.Engine) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	return w
}

func ok(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) }

func TestErrorHandlerMapsErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", apperrors.NewValidationError("roomId", "roomId required"), http.StatusBadRequest, "roomId required"},
		{"inactive", apperrors.ErrRoomInactive, http.StatusForbidden, "Room not found or expired"},
		{"upload", apperrors.NewUpstreamStoreError("upload", errors.New("boom")), http.StatusInternalServerError, "upload failed"},
		{"internal", errors.New("pq: connection reset"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newEngine(func(c *gin.Context) {
				_ = c.Error(tt.err)
				c.Abort()
			})
			w := get(r)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			var body apperrors.APIError
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body.Message != tt.message || body.Code != tt.status {
				t.Fatalf("body = %+v, want {%q %d}", body, tt.message, tt.status)
			}
		})
	}
}

func TestRateLimitRejectsOverLimit(t *testing.T) {
	limiter := &stubLimiter{}
	m := NewRateLimitMiddleware(limiter, logger.Nop())
	r := newEngine(m.Limit("create-room", 2), ok)

	for i := 0; i < 2; i++ {
		if w := get(r); w.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i+1, w.Code)
		}
	}
	w := get(r)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if got := w.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Fatalf("X-RateLimit-Remaining = %q, want 0", got)
	}
}

func TestRateLimitDisabledAndFailOpen(t *testing.T) {
	disabled := NewRateLimitMiddleware(nil, logger.Nop())
	if w := get(newEngine(disabled.Limit("upload", 1), ok)); w.Code != http.StatusOK {
		t.Fatalf("disabled limiter status = %d", w.Code)
	}

	failing := NewRateLimitMiddleware(&stubLimiter{err: errors.New("redis down")}, logger.Nop())
	if w := get(newEngine(failing.Limit("upload", 1), ok)); w.Code != http.StatusOK {
		t.Fatalf("limiter with redis error status = %d, want 200", w.Code)
	}
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger(logger.Nop()))
	r.GET("/x", ok)

	w := get(r)
	if w.Header().Get(RequestIDHeader) == "" {
		t.Fatal("response has no request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get(RequestIDHeader); got != "abc" {
		t.Fatalf("request id = %q, want abc", got)
	}
}
