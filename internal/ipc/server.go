package ipc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// maxArgsSize bounds a request body; file contents travel as arguments.
const maxArgsSize = 64 << 20

// Server serves the invoke bridge over a Unix socket and optionally TCP.
type Server struct {
	registry *Registry
	server   *http.Server
	logger   *slog.Logger
}

// NewServer creates a server dispatching to the given registry.
func NewServer(reg *Registry) *Server {
	s := &Server{
		registry: reg,
		logger:   slog.With("component", "ipc"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/invoke/{command}", s.invoke)
	mux.HandleFunc("GET /v1/commands", s.commands)
	mux.HandleFunc("GET /v1/health", s.health)

	s.server = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	return s
}

// ListenUnix starts the server on a Unix socket.
func (s *Server) ListenUnix(path string) error {
	ln, err := net.Listen("unix", path)
	if err != nil {
		return err
	}
	s.logger.Info("invoke bridge listening", "socket", path)
	return s.Serve(ln)
}

// ListenTCP starts the server on a TCP address.
func (s *Server) ListenTCP(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.logger.Info("invoke bridge listening", "addr", addr)
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	err := s.server.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) invoke(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("command")
	h, ok := s.registry.Lookup(name)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown command %s", name))
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxArgsSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("reading arguments: %v", err))
		return
	}
	if len(body) > maxArgsSize {
		writeError(w, http.StatusRequestEntityTooLarge, "arguments too large")
		return
	}
	args := json.RawMessage(bytes.TrimSpace(body))
	if len(args) > 0 && !json.Valid(args) {
		writeError(w, http.StatusBadRequest, "arguments are not valid JSON")
		return
	}

	start := time.Now()
	result, err := s.call(r.Context(), name, h, args)
	logger := s.logger.With("command", name, "duration", time.Since(start))
	if err != nil {
		logger.Debug("command failed", "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	logger.Debug("command handled")
	writeJSON(w, http.StatusOK, result)
}

// call runs h, converting a panic into an error scoped to this request.
func (s *Server) call(ctx context.Context, name string, h Handler, args json.RawMessage) (result any, err error) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("command panicked", "command", name, "panic", p)
			err = fmt.Errorf("command %s failed: internal error", name)
		}
	}()
	return h(ctx, args)
}

func (s *Server) commands(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Names())
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
