// Package client is a Go client for the control server's HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"aion/internal/api"
	"aion/internal/input"
)

// DefaultAddr is the address the server listens on by default.
const DefaultAddr = "http://127.0.0.1:8080"

// APIError is returned when the server answers with success=false.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Client talks to one control server.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates a client for baseURL. token may be empty.
func New(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultAddr
	}
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		// Animated actions hold the request open for their whole duration.
		http: &http.Client{Timeout: 2 * time.Minute},
	}
}

// do sends body (if any) and decodes the envelope into a Response. data,
// when non-nil, receives the envelope's data field.
func (c *Client) do(ctx context.Context, method, path string, body any, data any) (*api.Response, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var env struct {
		api.Response
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("unexpected response (status %d): %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if !env.Success {
		return nil, &APIError{Status: resp.StatusCode, Message: env.Message}
	}
	if data != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, data); err != nil {
			return nil, fmt.Errorf("decode data: %w", err)
		}
	}

	out := env.Response
	out.Data = data
	return &out, nil
}

// Status fetches GET /api/status.
func (c *Client) Status(ctx context.Context) (*api.StatusData, error) {
	var status api.StatusData
	if _, err := c.do(ctx, http.MethodGet, "/api/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// SetMode switches the server mode.
func (c *Client) SetMode(ctx context.Context, mode string) (string, error) {
	return c.message(ctx, "/api/mode", api.ModeChangeRequest{Mode: &mode})
}

// Move moves the cursor to (x, y).
func (c *Client) Move(ctx context.Context, x, y int) (string, error) {
	return c.message(ctx, "/api/mouse/move", api.MouseMoveRequest{X: &x, Y: &y})
}

// Click clicks button, at (x, y) when both are non-nil.
func (c *Client) Click(ctx context.Context, x, y *int, button string) (string, error) {
	req := api.MouseClickRequest{X: x, Y: y}
	if button != "" {
		req.Button = &button
	}
	return c.message(ctx, "/api/mouse/click", req)
}

// Type types text; interval is the per-character delay in ms (nil for the server default).
func (c *Client) Type(ctx context.Context, text string, interval *uint64) (string, error) {
	return c.message(ctx, "/api/keyboard/type", api.KeyboardTypeRequest{Text: &text, Interval: interval})
}

// Press presses a named key.
func (c *Client) Press(ctx context.Context, key string) (string, error) {
	return c.message(ctx, "/api/keyboard/press", api.KeyboardPressRequest{Key: &key})
}

// OpenURL asks the server to open url in the default browser.
func (c *Client) OpenURL(ctx context.Context, url string) (string, error) {
	return c.message(ctx, "/api/browser/open", api.BrowserOpenRequest{URL: &url})
}

// Screenshot is a decoded screen capture.
type Screenshot struct {
	Width  int
	Height int
	PNG    []byte
}

// Capture fetches GET /api/screen/capture.
func (c *Client) Capture(ctx context.Context) (*Screenshot, error) {
	var data api.ScreenCaptureData
	if _, err := c.do(ctx, http.MethodGet, "/api/screen/capture", nil, &data); err != nil {
		return nil, err
	}
	raw, err := base64.StdEncoding.DecodeString(data.Image)
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}
	return &Screenshot{Width: data.Width, Height: data.Height, PNG: raw}, nil
}

// Windows fetches GET /api/window/list.
func (c *Client) Windows(ctx context.Context) ([]input.Window, error) {
	var data api.WindowListData
	if _, err := c.do(ctx, http.MethodGet, "/api/window/list", nil, &data); err != nil {
		return nil, err
	}
	return data.Windows, nil
}

// SwitchWindow focuses the window whose process name contains name.
func (c *Client) SwitchWindow(ctx context.Context, name string) (string, error) {
	return c.message(ctx, "/api/window/switch", api.WindowSwitchRequest{Name: &name})
}

func (c *Client) message(ctx context.Context, path string, body any) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, path, body, nil)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}
