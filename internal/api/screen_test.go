package api

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aion/internal/input"
	"aion/internal/input/inputtest"
)

func TestScreenCapture(t *testing.T) {
	ts := newTestServer(t, nil)
	screen := image.NewRGBA(image.Rect(0, 0, 3, 2))
	screen.Set(1, 1, color.RGBA{R: 255, A: 255})
	ts.dev.Screen = screen

	status, resp, _ := ts.do(t, http.MethodGet, "/api/screen/capture", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, resp.Success)
	assert.Equal(t, "Screenshot captured", resp.Message)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(3), data["width"])
	assert.Equal(t, float64(2), data["height"])
	assert.Equal(t, "png", data["format"])

	raw, err := base64.StdEncoding.DecodeString(data["image"].(string))
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	r, _, _, _ := img.At(1, 1).RGBA()
	assert.Equal(t, uint32(0xffff), r)

	assert.Len(t, ts.dev.Ops(inputtest.OpCapture), 1)
}

func TestScreenCaptureFailure(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.dev.Err = errors.New("no display")

	status, resp, _ := ts.do(t, http.MethodGet, "/api/screen/capture", "", nil)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.False(t, resp.Success)
	assert.Equal(t, "Screen capture failed: no display", resp.Message)

	status, _ = ts.post(t, "/api/screen/capture", `{}`)
	assert.Equal(t, http.StatusMethodNotAllowed, status)
}

func TestWindowListAndSwitch(t *testing.T) {
	ts := newTestServer(t, nil)

	status, resp, _ := ts.do(t, http.MethodGet, "/api/window/list", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Found 0 windows", resp.Message)
	data := resp.Data.(map[string]any)
	assert.Equal(t, []any{}, data["windows"])

	ts.dev.Windows = []input.Window{{PID: 7, Name: "Code", Title: "main.go"}}

	status, resp, _ = ts.do(t, http.MethodGet, "/api/window/list", "", nil)
	require.Equal(t, http.StatusOK, status)
	data = resp.Data.(map[string]any)
	assert.Equal(t, float64(1), data["count"])
	windows := data["windows"].([]any)
	require.Len(t, windows, 1)
	assert.Equal(t, "Code", windows[0].(map[string]any)["name"])

	status, resp = ts.post(t, "/api/window/switch", `{"name":"code"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Switched to window: code", resp.Message)

	status, resp = ts.post(t, "/api/window/switch", `{"name":"slack"}`)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Window not found: slack", resp.Message)

	status, resp = ts.post(t, "/api/window/switch", `{}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Missing field: name", resp.Message)
}
