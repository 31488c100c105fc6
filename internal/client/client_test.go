package client

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aion/internal/api"
	"aion/internal/config"
	"aion/internal/dispatcher"
	"aion/internal/input"
	"aion/internal/input/inputtest"
	"aion/internal/mode"
)

func newServer(t *testing.T, token string) (*Client, *inputtest.Recorder) {
	t.Helper()

	dev := inputtest.NewRecorder(input.Point{})
	d := dispatcher.New(dev, mode.NewState(mode.Assistant),
		dispatcher.WithSleep(func(time.Duration) {}),
		dispatcher.WithURLOpener(func(string) error { return nil }),
	)
	cfg := config.DefaultConfig().General
	cfg.APIToken = token
	srv := api.NewServer(cfg, d)
	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		hs.Close()
		srv.Close()
	})
	return New(hs.URL, token), dev
}

func TestNewNormalizesBaseURL(t *testing.T) {
	assert.Equal(t, DefaultAddr, New("", "").baseURL)
	assert.Equal(t, "http://localhost:9000", New("localhost:9000", "").baseURL)
	assert.Equal(t, "http://127.0.0.1:8080", New("http://127.0.0.1:8080/", "").baseURL)
}

func TestStatusAndMode(t *testing.T) {
	c, _ := newServer(t, "")
	ctx := context.Background()

	status, err := c.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "running", status.Status)
	assert.Equal(t, "assistant", status.Mode)
	assert.Equal(t, api.Version, status.Version)

	msg, err := c.SetMode(ctx, "production")
	require.NoError(t, err)
	assert.Equal(t, "Mode changed to: production", msg)

	status, err = c.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "production", status.Mode)
}

func TestActions(t *testing.T) {
	c, dev := newServer(t, "")
	ctx := context.Background()

	_, err := c.SetMode(ctx, "production")
	require.NoError(t, err)

	msg, err := c.Move(ctx, 5, 6)
	require.NoError(t, err)
	assert.Equal(t, "Mouse moved to (5, 6)", msg)

	x, y := 7, 8
	msg, err = c.Click(ctx, &x, &y, "middle")
	require.NoError(t, err)
	assert.Equal(t, "Clicked at (7, 8) with Middle button", msg)

	msg, err = c.Type(ctx, "abc", nil)
	require.NoError(t, err)
	assert.Equal(t, "Typed: abc", msg)

	msg, err = c.Press(ctx, "esc")
	require.NoError(t, err)
	assert.Equal(t, "Pressed key: esc", msg)

	msg, err = c.OpenURL(ctx, "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "Browser opened: https://example.com", msg)

	ops := make([]string, 0)
	for _, call := range dev.Calls() {
		ops = append(ops, call.Op)
	}
	assert.Equal(t, []string{
		inputtest.OpMove,
		inputtest.OpMove, inputtest.OpClick,
		inputtest.OpText,
		inputtest.OpKey,
	}, ops)
}

func TestAPIErrors(t *testing.T) {
	c, _ := newServer(t, "")
	ctx := context.Background()

	_, err := c.Press(ctx, "ctrl")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Unknown key: ctrl", apiErr.Message)

	_, err = c.SetMode(ctx, "nope")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Invalid mode. Use 'assistant' or 'production'", apiErr.Message)
}

func TestTokenIsSent(t *testing.T) {
	c, _ := newServer(t, "s3cret")
	_, err := c.Status(context.Background())
	require.NoError(t, err)

	bad := New(c.baseURL, "wrong")
	_, err = bad.Status(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestScreenAndWindows(t *testing.T) {
	c, dev := newServer(t, "")
	ctx := context.Background()
	dev.Screen = image.NewRGBA(image.Rect(0, 0, 8, 6))
	dev.Windows = []input.Window{{PID: 42, Name: "Finder", Title: "Desktop"}}

	shot, err := c.Capture(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, shot.Width)
	assert.Equal(t, 6, shot.Height)
	img, err := png.Decode(bytes.NewReader(shot.PNG))
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())

	windows, err := c.Windows(ctx)
	require.NoError(t, err)
	assert.Equal(t, dev.Windows, windows)

	msg, err := c.SwitchWindow(ctx, "finder")
	require.NoError(t, err)
	assert.Equal(t, "Switched to window: finder", msg)

	_, err = c.SwitchWindow(ctx, "mail")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}
