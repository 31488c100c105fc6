package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"aion/internal/input"
)

// Response is the envelope wrapping every API reply.
type Response struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Data      any    `json:"data"`
	Timestamp int64  `json:"timestamp"`
}

// StatusData is the payload of GET /api/status.
type StatusData struct {
	Status  string `json:"status"`
	Port    int    `json:"port"`
	Version string `json:"version"`
	Mode    string `json:"mode"`
}

// ScreenCaptureData is the payload of GET /api/screen/capture.
type ScreenCaptureData struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
	Image  string `json:"image"` // base64
}

// WindowListData is the payload of GET /api/window/list.
type WindowListData struct {
	Count   int            `json:"count"`
	Windows []input.Window `json:"windows"`
}

// WindowSwitchRequest is the body of POST /api/window/switch.
type WindowSwitchRequest struct {
	Name *string `json:"name"`
}

// MouseMoveRequest is the body of POST /api/mouse/move.
type MouseMoveRequest struct {
	X *int `json:"x"`
	Y *int `json:"y"`
}

// MouseClickRequest is the body of POST /api/mouse/click.
type MouseClickRequest struct {
	X      *int    `json:"x,omitempty"`
	Y      *int    `json:"y,omitempty"`
	Button *string `json:"button,omitempty"`
}

// KeyboardTypeRequest is the body of POST /api/keyboard/type.
type KeyboardTypeRequest struct {
	Text     *string `json:"text"`
	Interval *uint64 `json:"interval,omitempty"`
}

// KeyboardPressRequest is the body of POST /api/keyboard/press.
type KeyboardPressRequest struct {
	Key *string `json:"key"`
}

// BrowserOpenRequest is the body of POST /api/browser/open.
type BrowserOpenRequest struct {
	URL *string `json:"url"`
}

// ModeChangeRequest is the body of POST /api/mode.
type ModeChangeRequest struct {
	Mode *string `json:"mode"`
}

func writeJSON(w http.ResponseWriter, status int, resp Response) {
	resp.Timestamp = time.Now().Unix()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("API: Failed to encode response: %v", err)
	}
}

func writeSuccess(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, Response{Success: true, Message: message, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Response{Success: false, Message: message})
}

// maxBodyBytes bounds request bodies; action payloads are tiny.
const maxBodyBytes = 1 << 20

// decodeBody decodes a JSON request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %v", err)
	}
	return nil
}
