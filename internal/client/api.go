package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "crossx/pkg/errors"
)

// API - серверные операции, которые нужны клиенту
type API interface {
	CreateRoom(ctx context.Context) (*CreatedRoom, error)
	ValidateRoom(ctx context.Context, roomID string) (*Validation, error)
	CloseRoom(ctx context.Context, roomID string) error
	ShareText(ctx context.Context, roomID, text string) error
	GetText(ctx context.Context, roomID string) (string, error)
	ListImages(ctx context.Context, roomID string) ([]string, error)
	UploadImage(ctx context.Context, roomID, filename string, data []byte) (string, error)
}

type CreatedRoom struct {
	RoomID    string    `json:"roomId"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Validation struct {
	Valid     bool       `json:"valid"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

// StatusError - сервер ответил не 2xx
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Message)
}

// Is позволяет проверять 403 через errors.Is(err, apperrors.ErrRoomInactive)
func (e *StatusError) Is(target error) bool {
	switch target {
	case apperrors.ErrRoomInactive:
		return e.StatusCode == http.StatusForbidden
	case apperrors.ErrValidation:
		return e.StatusCode == http.StatusBadRequest
	case apperrors.ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	}
	return false
}

// HTTPClient - клиент REST API сервера комнат
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *HTTPClient) CreateRoom(ctx context.Context) (*CreatedRoom, error) {
	var room CreatedRoom
	if err := c.do(ctx, http.MethodPost, "/api/create-room", nil, "", &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (c *HTTPClient) ValidateRoom(ctx context.Context, roomID string) (*Validation, error) {
	var v Validation
	if err := c.do(ctx, http.MethodGet, "/api/validate-room/"+url.PathEscape(roomID), nil, "", &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *HTTPClient) CloseRoom(ctx context.Context, roomID string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/close-room", map[string]string{"roomId": roomID}, nil)
}

func (c *HTTPClient) ShareText(ctx context.Context, roomID, text string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/text", map[string]string{"roomId": roomID, "text": text}, nil)
}

func (c *HTTPClient) GetText(ctx context.Context, roomID string) (string, error) {
	var resp struct {
		Text string `json:"text"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/text?roomId="+url.QueryEscape(roomID), nil, "", &resp); err != nil {
		return "", err
	}
	return resp.Text, nil
}

func (c *HTTPClient) ListImages(ctx context.Context, roomID string) ([]string, error) {
	urls := []string{}
	if err := c.do(ctx, http.MethodGet, "/api/images?roomId="+url.QueryEscape(roomID), nil, "", &urls); err != nil {
		return nil, err
	}
	return urls, nil
}

func (c *HTTPClient) UploadImage(ctx context.Context, roomID, filename string, data []byte) (string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	if err := w.WriteField("roomId", roomID); err != nil {
		return "", fmt.Errorf("failed to write form: %w", err)
	}
	part, err := w.CreateFormFile("image", filename)
	if err != nil {
		return "", fmt.Errorf("failed to write form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("failed to write form: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to write form: %w", err)
	}

	var resp struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/upload", &body, w.FormDataContentType(), &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, payload, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.do(ctx, method, path, bytes.NewReader(raw), "application/json", out)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apperrors.APIError
		raw, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(raw, &apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return &StatusError{StatusCode: resp.StatusCode, Message: apiErr.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
