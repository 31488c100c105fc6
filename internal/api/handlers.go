package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"aion/internal/dispatcher"
	"aion/internal/mode"
)

const invalidModeMessage = "Invalid mode. Use 'assistant' or 'production'"

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return false
	}
	return true
}

// handleStatus handles GET /api/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	writeSuccess(w, "AION Server Online", StatusData{
		Status:  "running",
		Port:    s.cfg.Port,
		Version: Version,
		Mode:    s.dispatcher.Mode().String(),
	})
}

// handleMode handles POST /api/mode
func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req ModeChangeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Mode == nil {
		writeError(w, http.StatusBadRequest, "Missing field: mode")
		return
	}

	res, err := s.dispatcher.SetMode(*req.Mode)
	if err != nil {
		log.Printf("API: Rejected mode %q: %v", *req.Mode, err)
		msg := err.Error()
		if errors.Is(err, mode.ErrInvalidMode) {
			msg = invalidModeMessage
		}
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	writeSuccess(w, res.Message, nil)
}

// handleMouseMove handles POST /api/mouse/move
func (s *Server) handleMouseMove(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req MouseMoveRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.X == nil || req.Y == nil {
		writeError(w, http.StatusBadRequest, "Missing field: x and y are required")
		return
	}

	res := s.dispatcher.Move(*req.X, *req.Y)
	writeSuccess(w, res.Message, nil)
}

// handleMouseClick handles POST /api/mouse/click
func (s *Server) handleMouseClick(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req MouseClickRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	button := ""
	if req.Button != nil {
		button = *req.Button
	}
	res := s.dispatcher.Click(req.X, req.Y, button)
	writeSuccess(w, res.Message, nil)
}

// handleKeyboardType handles POST /api/keyboard/type
func (s *Server) handleKeyboardType(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req KeyboardTypeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Text == nil {
		writeError(w, http.StatusBadRequest, "Missing field: text")
		return
	}

	res := s.dispatcher.Type(*req.Text, req.Interval)
	writeSuccess(w, res.Message, nil)
}

// handleKeyboardPress handles POST /api/keyboard/press
func (s *Server) handleKeyboardPress(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req KeyboardPressRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Key == nil {
		writeError(w, http.StatusBadRequest, "Missing field: key")
		return
	}

	res, err := s.dispatcher.Press(*req.Key)
	if err != nil {
		msg := err.Error()
		var unknown *dispatcher.UnknownKeyError
		if errors.As(err, &unknown) {
			msg = fmt.Sprintf("Unknown key: %s", unknown.Token)
		}
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	writeSuccess(w, res.Message, nil)
}

// handleBrowserOpen handles POST /api/browser/open
func (s *Server) handleBrowserOpen(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req BrowserOpenRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.URL == nil || *req.URL == "" {
		writeError(w, http.StatusBadRequest, "Missing field: url")
		return
	}

	res := s.dispatcher.OpenURL(*req.URL)
	writeSuccess(w, res.Message, nil)
}

// handleHealth handles GET /health (for monitoring)
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
