package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusFromError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{NewValidationError("roomId", "roomId required"), http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", ErrRoomInactive), http.StatusForbidden},
		{ErrNotFound, http.StatusNotFound},
		{ErrRateLimited, http.StatusTooManyRequests},
		{NewUpstreamStoreError("upload", errors.New("timeout")), http.StatusInternalServerError},
		{errors.New("unexpected"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatusFromError(tt.err); got != tt.want {
			t.Errorf("HTTPStatusFromError(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestUpstreamStoreErrorUnwraps(t *testing.T) {
	cause := errors.New("network unreachable")
	err := fmt.Errorf("save image: %w", NewUpstreamStoreError("upload", cause))

	if !errors.Is(err, ErrUpstreamStore) {
		t.Fatal("errors.Is(err, ErrUpstreamStore) = false")
	}
	if !errors.Is(err, cause) {
		t.Fatal("cause is not reachable through Unwrap")
	}

	var storeErr *UpstreamStoreError
	if !errors.As(err, &storeErr) || storeErr.Op != "upload" {
		t.Fatalf("errors.As() = %+v", storeErr)
	}
}

func TestPublicMessageHidesInternals(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{NewValidationError("image", "No file uploaded"), "No file uploaded"},
		{ErrRoomInactive, "Room not found or expired"},
		{NewUpstreamStoreError("upload", errors.New("api key invalid")), "upload failed"},
		{ErrRateLimited, "Rate limit exceeded"},
		{errors.New("dial tcp 10.0.0.5:5432: refused"), "Internal server error"},
	}
	for _, tt := range tests {
		if got := PublicMessage(tt.err); got != tt.want {
			t.Errorf("PublicMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
