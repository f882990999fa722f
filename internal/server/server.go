package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/isoft/internal/logging"
	"github.com/muurk/isoft/internal/poller"
)

// ShutdownTimeout bounds how long Start waits for in-flight requests.
const ShutdownTimeout = 10 * time.Second

// Config holds the listener configuration. Nil handlers are not mounted.
type Config struct {
	Addr           string
	MetricsPath    string
	MetricsHandler http.Handler
	StreamPath     string
	StreamHandler  http.Handler
}

// Server serves the bridge's HTTP endpoints
type Server struct {
	config      *Config
	httpServer  *http.Server
	listener    net.Listener
	mu          sync.Mutex
	activeConns map[net.Conn]struct{}
	lastPoll    atomic.Int64 // unix nanoseconds, 0 before the first poll
	device      string
}

// New creates a Server. It does not listen until Start.
func New(config *Config) (*Server, error) {
	if config.Addr == "" {
		return nil, errors.New("listen address is required")
	}
	if config.MetricsHandler != nil && config.MetricsPath == "" {
		return nil, errors.New("metrics path is required")
	}
	if config.StreamHandler != nil && config.StreamPath == "" {
		return nil, errors.New("stream path is required")
	}
	if config.MetricsHandler != nil && config.StreamHandler != nil && config.MetricsPath == config.StreamPath {
		return nil, fmt.Errorf("metrics and stream share path %s", config.MetricsPath)
	}

	s := &Server{
		config:      config,
		activeConns: make(map[net.Conn]struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if config.MetricsHandler != nil {
		mux.Handle("GET "+config.MetricsPath, config.MetricsHandler)
	}
	if config.StreamHandler != nil {
		mux.Handle("GET "+config.StreamPath, config.StreamHandler)
	}

	s.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ConnState:         s.trackConn,
	}

	return s, nil
}

// Listen binds the configured address. Start calls it when needed; calling
// it first lets callers learn the bound address (e.g. for ":0").
func (s *Server) Listen() error {
	if s.listener != nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}
	s.listener = listener
	return nil
}

// Addr returns the bound address, or nil before Listen
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}

	logging.Info("HTTP server listening",
		zap.String("addr", s.listener.Addr().String()),
		zap.String("metrics", mountedPath(s.config.MetricsHandler, s.config.MetricsPath)),
		zap.String("stream", mountedPath(s.config.StreamHandler, s.config.StreamPath)),
	)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.httpServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down HTTP server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		logging.Warn("HTTP shutdown timeout, forcing close", zap.Error(err))
		return s.httpServer.Close()
	}
	return nil
}

// GetActiveConnections returns the number of open HTTP connections
func (s *Server) GetActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.activeConns)
}

func (s *Server) trackConn(conn net.Conn, state http.ConnState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch state {
	case http.StateNew:
		s.activeConns[conn] = struct{}{}
	case http.StateHijacked, http.StateClosed:
		delete(s.activeConns, conn)
	}
}

// Name identifies the server as a poller sink
func (s *Server) Name() string {
	return "health"
}

// Consume records the poll time reported by /healthz
func (s *Server) Consume(_ context.Context, snap poller.Snapshot) error {
	s.mu.Lock()
	s.device = snap.Device
	s.mu.Unlock()
	s.lastPoll.Store(snap.At.UnixNano())
	return nil
}

type healthDoc struct {
	Status   string     `json:"status"`
	Device   string     `json:"device,omitempty"`
	LastPoll *time.Time `json:"last_poll,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	doc := healthDoc{Status: "ok"}

	s.mu.Lock()
	doc.Device = s.device
	s.mu.Unlock()

	if ns := s.lastPoll.Load(); ns != 0 {
		at := time.Unix(0, ns).UTC()
		doc.LastPoll = &at
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(doc)
}

func mountedPath(h http.Handler, path string) string {
	if h == nil {
		return "disabled"
	}
	return path
}
