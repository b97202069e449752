package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"radiocalico/internal/api"
	"radiocalico/internal/config"
	"radiocalico/internal/logging"
)

// ErrAlreadyRunning reports that another server holds the database lock.
var ErrAlreadyRunning = errors.New("radiocalico server already running")

const shutdownTimeout = 5 * time.Second

// Server serves the rating API.
type Server struct {
	cfg    *config.Config
	logger *slog.Logger
	svc    *api.RatingService

	lockPath string
	lock     *flock.Flock

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
	running  bool
}

// New constructs a Server around an opened rating store.
func New(cfg *config.Config, st api.RatingStore, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server: config is required")
	}
	svc := api.NewRatingService(st, logger)
	if svc == nil {
		return nil, errors.New("server: rating store is required")
	}
	lockPath := cfg.LockPath()
	s := &Server{
		cfg:      cfg,
		logger:   logger,
		svc:      svc,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Start acquires the database lock and begins serving on the configured bind
// address. The server shuts down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("server already started")
	}

	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w (lock %s)", ErrAlreadyRunning, s.lockPath)
	}

	bind := strings.TrimSpace(s.cfg.Server.Bind)
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		_ = s.lock.Unlock()
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener
	s.running = true

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.log().Info("api server listening",
		logging.String("address", listener.Addr().String()),
		logging.String("lock", s.lockPath),
		logging.Bool("admin_enabled", s.cfg.Server.AdminToken != ""),
	)
	return nil
}

// Stop drains in-flight requests and releases the database lock. It is safe
// to call more than once.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.log().Warn("api server shutdown incomplete", logging.Error(err))
	}
	s.listener = nil
	if err := s.lock.Unlock(); err != nil {
		logging.WarnWithContext(s.log(), "failed to release server lock", "lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove "+s.lockPath+" if no server is running"),
		)
	}
	s.log().Info("api server stopped")
}

// Addr returns the listening address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) log() *slog.Logger {
	return logging.NewComponentLogger(s.logger, "api-server")
}
