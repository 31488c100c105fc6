package api

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"log"
	"net/http"

	"aion/internal/dispatcher"
	"aion/internal/input"
)

// writeCapabilityError maps a screen or window failure to a status code.
func writeCapabilityError(w http.ResponseWriter, what string, err error) {
	switch {
	case errors.Is(err, dispatcher.ErrUnsupported):
		writeError(w, http.StatusNotImplemented, fmt.Sprintf("%s is not supported on this system", what))
	default:
		log.Printf("API: %s failed: %v", what, err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("%s failed: %v", what, err))
	}
}

// handleScreenCapture handles GET /api/screen/capture
func (s *Server) handleScreenCapture(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	img, err := s.dispatcher.Capture()
	if err != nil {
		writeCapabilityError(w, "Screen capture", err)
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		writeCapabilityError(w, "Screen capture", err)
		return
	}

	b := img.Bounds()
	writeSuccess(w, "Screenshot captured", ScreenCaptureData{
		Width:  b.Dx(),
		Height: b.Dy(),
		Format: "png",
		Image:  base64.StdEncoding.EncodeToString(buf.Bytes()),
	})
}

// handleWindowList handles GET /api/window/list
func (s *Server) handleWindowList(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	windows, err := s.dispatcher.ListWindows()
	if err != nil {
		writeCapabilityError(w, "Window listing", err)
		return
	}
	if windows == nil {
		windows = []input.Window{}
	}

	writeSuccess(w, fmt.Sprintf("Found %d windows", len(windows)), WindowListData{
		Count:   len(windows),
		Windows: windows,
	})
}

// handleWindowSwitch handles POST /api/window/switch
func (s *Server) handleWindowSwitch(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req WindowSwitchRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == nil || *req.Name == "" {
		writeError(w, http.StatusBadRequest, "Missing field: name")
		return
	}

	res, err := s.dispatcher.SwitchWindow(*req.Name)
	if err != nil {
		if errors.Is(err, input.ErrWindowNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Window not found: %s", *req.Name))
			return
		}
		writeCapabilityError(w, "Window switch", err)
		return
	}
	writeSuccess(w, res.Message, nil)
}
