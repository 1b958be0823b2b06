package api

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yourusername/bgrules/pkg/engine"
)

// ServerConfig holds the server configuration.
type ServerConfig struct {
	Host         string        // Host to bind to (default "localhost")
	Port         int           // Port to listen on (default 8080)
	ReadTimeout  time.Duration // Read timeout (default 30s)
	WriteTimeout time.Duration // Write timeout (default 30s)
	IdleTimeout  time.Duration // Idle timeout (default 60s)
	MaxRequests  int           // Max concurrent short requests (default 100)
	MaxStreams   int           // Max open SSE/WebSocket streams (default 64)
	MaxSessions  int           // Max games held at once, 0 for no limit (default 1000)
	SessionTTL   time.Duration // Idle time before a game is evicted (default 30m)
	Defaults     GameDefaults  // Settings for games that do not name their own
	Logger       *slog.Logger  // nil means slog.Default()
}

// DefaultConfig returns a ServerConfig with sensible defaults.
func DefaultConfig() ServerConfig {
	return ServerConfig{
		Host:         "localhost",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		MaxRequests:  100,
		MaxStreams:   64,
		MaxSessions:  1000,
		SessionTTL:   30 * time.Minute,
		Defaults:     GameDefaults{Rules: engine.DefaultRules()},
	}
}

// Server is the HTTP API server.
type Server struct {
	config   ServerConfig
	handlers *Handlers
	sessions *SessionManager
	metrics  *Metrics
	server   *http.Server
	pool     *WorkerPool
	logger   *slog.Logger
	version  string
}

// NewServer creates a new API server.
func NewServer(config ServerConfig, version string) *Server {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if config.SessionTTL <= 0 {
		config.SessionTTL = 30 * time.Minute
	}

	metrics := NewMetrics()
	sessions := NewSessionManager(config.MaxSessions, config.SessionTTL, logger, metrics)
	pool := NewWorkerPool(PoolConfig{
		MaxRequests: config.MaxRequests,
		MaxStreams:  config.MaxStreams,
	})

	handlers := NewHandlersWithPool(sessions, version, pool)
	handlers.metrics = metrics
	handlers.logger = logger
	handlers.defaults = config.Defaults

	return &Server{
		config:   config,
		handlers: handlers,
		sessions: sessions,
		metrics:  metrics,
		pool:     pool,
		logger:   logger,
		version:  version,
	}
}

// Pool returns the worker pool for monitoring.
func (s *Server) Pool() *WorkerPool {
	return s.pool
}

// Sessions returns the server's games.
func (s *Server) Sessions() *SessionManager {
	return s.sessions
}

// corsMiddleware adds CORS headers for browser access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for logging. It passes
// flushing and hijacking through so streams keep working.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := r.ResponseWriter.(http.Hijacker); ok {
		if r.status == 0 {
			r.status = http.StatusSwitchingProtocols
		}
		return h.Hijack()
	}
	return nil, nil, errors.New("hijacking not supported")
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// loggingMiddleware logs every request and records its latency under
// the matched route pattern.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		s.metrics.observeRequest(route, elapsed)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", elapsed,
		)
	})
}

// routes configures all API routes.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	h := s.handlers

	mux.HandleFunc("GET /api/health", h.Health)
	mux.HandleFunc("POST /api/games", h.CreateGame)
	mux.HandleFunc("GET /api/games/{id}", h.GetGame)
	mux.HandleFunc("DELETE /api/games/{id}", h.DeleteGame)
	mux.HandleFunc("POST /api/games/{id}/roll", h.Roll)
	mux.HandleFunc("POST /api/games/{id}/move", h.Move)
	mux.HandleFunc("POST /api/games/{id}/select", h.Select)
	mux.HandleFunc("POST /api/games/{id}/undo", h.Undo)
	mux.HandleFunc("POST /api/games/{id}/redo", h.Redo)
	mux.HandleFunc("GET /api/games/{id}/destinations", h.Destinations)
	mux.HandleFunc("GET /api/games/{id}/events", h.Events)
	mux.HandleFunc("/api/games/{id}/ws", h.WebSocket)
	mux.Handle("GET /metrics", s.metrics.Handler())

	// The mux fills in r.Pattern while routing, so the logger reads the
	// matched route after next returns.
	return corsMiddleware(s.loggingMiddleware(mux))
}

// Handler returns the server's root handler, for embedding and tests.
func (s *Server) Handler() http.Handler {
	return s.routes()
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port))
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.Addr(),
		Handler:      s.routes(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	s.logger.Info("starting bgrules API server", "version", s.version, "addr", s.Addr())
	return s.server.ListenAndServe()
}

// Shutdown stops accepting requests, waits for in-flight ones and ends
// every game.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
	}
	s.sessions.CloseAll()
	return err
}

// ListenAndServeWithGracefulShutdown starts the server and the idle-game
// janitor, and shuts both down on SIGINT or SIGTERM.
func (s *Server) ListenAndServeWithGracefulShutdown() error {
	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	go s.sessions.Run(janitorCtx, sweepInterval(s.config.SessionTTL))

	errChan := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errChan:
		return err
	case sig := <-quit:
		s.logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("server stopped gracefully")
	return nil
}

// sweepInterval checks for idle games a few times per ttl.
func sweepInterval(ttl time.Duration) time.Duration {
	d := ttl / 4
	if d < time.Second {
		d = time.Second
	}
	return d
}
