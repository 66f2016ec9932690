package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	apperrors "crossx/pkg/errors"
)

func TestHTTPClientRoundTrips(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/create-room", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Write([]byte(`{"roomId":"ab12cd","url":"/room/ab12cd","expiresAt":"2026-03-01T12:05:00Z"}`))
	})
	mux.HandleFunc("/api/validate-room/ab12cd", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"valid":true,"expiresAt":"2026-03-01T12:05:00Z"}`))
	})
	mux.HandleFunc("/api/text", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["roomId"] != "ab12cd" || body["text"] != "hi" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.Write([]byte(`{"success":true}`))
			return
		}
		w.Write([]byte(`{"text":"hi"}`))
	})
	mux.HandleFunc("/api/images", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`["u2","u1"]`))
	})
	mux.HandleFunc("/api/upload", func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("image")
		if err != nil || r.FormValue("roomId") != "ab12cd" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(file)
		if header.Filename != "cat.png" || string(data) != "png" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"url":"https://cdn.test/cat.png"}`))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewHTTPClient(srv.URL+"/", 5*time.Second)
	ctx := context.Background()

	room, err := c.CreateRoom(ctx)
	if err != nil || room.RoomID != "ab12cd" {
		t.Fatalf("CreateRoom() = %+v, %v", room, err)
	}
	if want := time.Date(2026, 3, 1, 12, 5, 0, 0, time.UTC); !room.ExpiresAt.Equal(want) {
		t.Fatalf("ExpiresAt = %v, want %v", room.ExpiresAt, want)
	}

	v, err := c.ValidateRoom(ctx, "ab12cd")
	if err != nil || !v.Valid || v.ExpiresAt == nil {
		t.Fatalf("ValidateRoom() = %+v, %v", v, err)
	}

	if err := c.ShareText(ctx, "ab12cd", "hi"); err != nil {
		t.Fatalf("ShareText() error = %v", err)
	}
	if text, err := c.GetText(ctx, "ab12cd"); err != nil || text != "hi" {
		t.Fatalf("GetText() = %q, %v", text, err)
	}

	urls, err := c.ListImages(ctx, "ab12cd")
	if err != nil || len(urls) != 2 || urls[0] != "u2" {
		t.Fatalf("ListImages() = %v, %v", urls, err)
	}

	url, err := c.UploadImage(ctx, "ab12cd", "cat.png", []byte("png"))
	if err != nil || url != "https://cdn.test/cat.png" {
		t.Fatalf("UploadImage() = %q, %v", url, err)
	}
}

func TestHTTPClientStatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"Room not found or expired"}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, 5*time.Second)
	_, err := c.GetText(context.Background(), "nope00")

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if statusErr.StatusCode != http.StatusForbidden || statusErr.Message != "Room not found or expired" {
		t.Fatalf("StatusError = %+v", statusErr)
	}
	if !errors.Is(err, apperrors.ErrRoomInactive) {
		t.Fatal("403 is not reported as ErrRoomInactive")
	}
}

func TestFileLocation(t *testing.T) {
	loc := NewFileLocation(filepath.Join(t.TempDir(), "state", "room"))

	if id, err := loc.Load(); err != nil || id != "" {
		t.Fatalf("Load() on missing file = %q, %v", id, err)
	}
	if err := loc.Save("ab12cd"); err != nil {
		t.Fatal(err)
	}
	if id, err := loc.Load(); err != nil || id != "ab12cd" {
		t.Fatalf("Load() = %q, %v", id, err)
	}
	if err := loc.Clear(); err != nil {
		t.Fatal(err)
	}
	if err := loc.Clear(); err != nil {
		t.Fatalf("second Clear() error = %v", err)
	}
	if id, _ := loc.Load(); id != "" {
		t.Fatalf("Load() after Clear = %q", id)
	}
}
