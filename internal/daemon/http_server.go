package daemon

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"git.home.luguber.info/inful/siteconfig/internal/logfields"
	m "git.home.luguber.info/inful/siteconfig/internal/metrics"
	"git.home.luguber.info/inful/siteconfig/internal/version"
)

// HTTPServer serves /metrics, /healthz and /status.
type HTTPServer struct {
	daemon *Daemon
	server *http.Server
	ln     net.Listener
}

// StatusResponse is the body of /status.
type StatusResponse struct {
	Status      Status     `json:"status"`
	Version     string     `json:"version"`
	Uptime      string     `json:"uptime"`
	Publication string     `json:"publication"`
	LastRun     *RunResult `json:"last_run,omitempty"`
}

// NewHTTPServer creates the server for d.
func NewHTTPServer(d *Daemon) *HTTPServer {
	return &HTTPServer{daemon: d}
}

// Handler returns the mux served by the server.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.HTTPHandler(s.daemon.registry))
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/status", s.handleStatus)
	return mux
}

// Start binds addr and serves in the background.
func (s *HTTPServer) Start(_ context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics server %s: %w", addr, err)
	}
	s.ln = ln
	s.server = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := s.server.Serve(ln); err != nil && !stdErrors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", logfields.Error(err))
		}
	}()
	slog.Info("Metrics server listening", slog.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the bound address, nil before Start.
func (s *HTTPServer) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Stop shuts the server down.
func (s *HTTPServer) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("metrics server shutdown: %w", err)
	}
	slog.Info("Metrics server stopped")
	return nil
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if s.daemon.Status() != StatusRunning {
		http.Error(w, string(s.daemon.Status()), http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *HTTPServer) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := StatusResponse{
		Status:      s.daemon.Status(),
		Version:     version.Version,
		Uptime:      time.Since(s.daemon.startTime).Round(time.Second).String(),
		Publication: s.daemon.Config().Publication.ID,
		LastRun:     s.daemon.LastRun(),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Warn("Failed to write status", logfields.Error(err))
	}
}
