// Package api provides the loopback HTTP API for input control.
package api

import (
	"bufio"
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"aion/internal/config"
	"aion/internal/dispatcher"
	"aion/internal/protocol"
)

// Version is reported by GET /api/status.
const Version = "1.1.0"

// Server provides the HTTP API for input control
type Server struct {
	cfg        config.GeneralConfig
	dispatcher *dispatcher.Dispatcher
	limiter    *RateLimiter
	wsMgr      *WSManager
	handler    http.Handler
}

// NewServer creates a new API server and starts its event hub.
func NewServer(cfg config.GeneralConfig, d *dispatcher.Dispatcher) *Server {
	s := &Server{
		cfg:        cfg,
		dispatcher: d,
	}
	if cfg.RateLimitRPS > 0 {
		s.limiter = NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	s.wsMgr = newWSManager(s)
	go s.wsMgr.start()

	d.OnAction(func(ev dispatcher.Event) {
		if ev.Action == dispatcher.ActionMode {
			s.wsMgr.Broadcast(protocol.Message{
				Type:    protocol.TypeMode,
				Payload: protocol.ModePayload{Mode: ev.Mode.String()},
			})
			return
		}
		s.wsMgr.Broadcast(protocol.Message{
			Type: protocol.TypeAction,
			Payload: protocol.ActionPayload{
				Action:    ev.Action,
				Message:   ev.Message,
				Mode:      ev.Mode.String(),
				Timestamp: ev.At.UnixMilli(),
			},
		})
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/mode", s.handleMode)
	mux.HandleFunc("/api/mouse/move", s.handleMouseMove)
	mux.HandleFunc("/api/mouse/click", s.handleMouseClick)
	mux.HandleFunc("/api/keyboard/type", s.handleKeyboardType)
	mux.HandleFunc("/api/keyboard/press", s.handleKeyboardPress)
	mux.HandleFunc("/api/browser/open", s.handleBrowserOpen)
	mux.HandleFunc("/api/screen/capture", s.handleScreenCapture)
	mux.HandleFunc("/api/window/list", s.handleWindowList)
	mux.HandleFunc("/api/window/switch", s.handleWindowSwitch)
	mux.HandleFunc("/ws", s.wsMgr.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	var h http.Handler = s.recoverMiddleware(mux)
	if s.limiter != nil {
		h = s.limiter.Middleware(h)
	}
	s.handler = s.logMiddleware(s.authMiddleware(h))
	return s
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves the API on 127.0.0.1 at the configured port until ctx is
// cancelled.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("127.0.0.1:%d", s.cfg.Port)

	ln, err := net.Listen("tcp4", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	log.Printf("Starting API server on http://%s", addr)
	return s.Serve(ctx, ln)
}

// Serve serves the API on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("API: Shutdown error: %v", err)
		}
	}()

	// This is blocking
	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("ERROR: API server stopped: %v", err)
		return err
	}
	return nil
}

// Close stops the event hub and background workers.
func (s *Server) Close() {
	s.wsMgr.stop()
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

// recoverMiddleware prevents panics from crashing the whole server
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("PANIC RECOV: %v", err)
				writeError(w, http.StatusInternalServerError, "Internal Server Error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// authMiddleware checks the API token if configured
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip auth for health check
		if r.URL.Path == "/health" || s.cfg.APIToken == "" {
			next.ServeHTTP(w, r)
			return
		}

		expected := "Bearer " + s.cfg.APIToken
		got := r.Header.Get("Authorization")
		if subtle.ConstantTimeCompare([]byte(got), []byte(expected)) != 1 {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// logMiddleware tags every request with an X-Request-ID and logs its outcome
func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		log.Printf("API: %s %s from %s -> %d (%s) [%s]",
			r.Method, r.URL.Path, r.RemoteAddr, rec.status, time.Since(start).Round(time.Millisecond), id)
	})
}

// statusRecorder captures the response status for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack lets the WebSocket upgrader take over the connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
