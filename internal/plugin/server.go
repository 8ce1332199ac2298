package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"
)

const (
	// maxRequestBodySize caps operation argument payloads (1MB).
	maxRequestBodySize = 1 * 1024 * 1024

	// shutdownTimeout bounds graceful server shutdown.
	shutdownTimeout = 5 * time.Second
)

// Server exposes the plugin's named operations over a local HTTP bridge:
//
//	POST /plugin/{op} - invoke an operation with a JSON argument body
//	GET  /health      - liveness check
//
// The bridge binds to loopback only; it is the seam between the panel UI
// and the backend, not a public API.
type Server struct {
	plugin *Plugin
	logger *log.Logger
	srv    *http.Server
}

// NewServer creates a bridge server for p listening on addr.
func NewServer(p *Plugin, addr string, logger *log.Logger) *Server {
	s := &Server{
		plugin: p,
		logger: logger,
	}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the bridge's HTTP handler. Exposed separately so tests
// can drive it through httptest without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /plugin/{op}", s.handleInvoke)
	return mux
}

// ListenAndServe runs the bridge until the server is shut down.
func (s *Server) ListenAndServe() error {
	s.logger.Printf("bridge listening on %s", s.srv.Addr)
	err := s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the bridge gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

type errorReply struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	op := r.PathValue("op")
	start := time.Now()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorReply{Error: "failed to read request body"})
		return
	}

	result, err := s.plugin.Invoke(r.Context(), op, json.RawMessage(body))
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, ErrUnknownOperation):
			status = http.StatusNotFound
		case errors.Is(err, ErrBadArguments):
			status = http.StatusBadRequest
		case errors.Is(err, ErrNotStarted):
			status = http.StatusServiceUnavailable
		}
		s.logger.Printf("op %s failed in %s: %v", op, time.Since(start).Round(time.Millisecond), err)
		writeJSON(w, status, errorReply{Error: err.Error()})
		return
	}

	s.logger.Printf("op %s completed in %s", op, time.Since(start).Round(time.Millisecond))
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
