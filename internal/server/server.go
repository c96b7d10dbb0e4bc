package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"marquee/internal/app"
	"marquee/internal/logging"
	"marquee/internal/services"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 64 << 10

// Server exposes the recommendation pipeline, catalog browsing, and the
// watchlist over HTTP. At most one server may run per data directory.
type Server struct {
	svc       *app.Services
	bind      string
	imageBase string
	logger    *slog.Logger

	lockPath string
	lock     *flock.Flock

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
	handler  http.Handler
	closing  chan struct{}
	once     sync.Once
}

// New builds a server around already wired services.
func New(svc *app.Services) (*Server, error) {
	if svc == nil || svc.Config == nil {
		return nil, errors.New("services are required")
	}
	cfg := svc.Config
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, services.Wrap(services.ErrConfiguration, "server", "new", "paths.api_bind is empty", nil)
	}

	s := &Server{
		svc:       svc,
		bind:      bind,
		imageBase: cfg.TMDB.ImageBaseURL,
		logger:    logging.NewComponentLogger(svc.Logger, "api-server"),
		lockPath:  cfg.LockPath(),
		lock:      flock.New(cfg.LockPath()),
		closing:   make(chan struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("POST /api/recommendations", s.handleRecommend)
	mux.HandleFunc("GET /api/recommendations", s.handleRecommendationState)
	mux.HandleFunc("DELETE /api/recommendations", s.handleRecommendationReset)
	mux.HandleFunc("GET /api/recommendations/events", s.handleRecommendationEvents)
	mux.HandleFunc("GET /api/movies/{category}", s.handleMovies)
	mux.HandleFunc("GET /api/movies/{id}/trailer", s.handleTrailer)
	mux.HandleFunc("GET /api/watchlist/{list}", s.handleWatchlist)
	mux.HandleFunc("POST /api/watchlist/{list}", s.handleWatchlistAdd)
	mux.HandleFunc("DELETE /api/watchlist/{list}/{movieID}", s.handleWatchlistRemove)

	s.handler = requestIDMiddleware(s.logger, authMiddleware(cfg.Paths.APIToken, mux))
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      writeTimeout(svc),
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// writeTimeout leaves room for a full pipeline run: one completion call plus
// one round of catalog lookups.
func writeTimeout(svc *app.Services) time.Duration {
	cfg := svc.Config
	budget := time.Duration(cfg.LLM.TimeoutSeconds+cfg.TMDB.TimeoutSeconds)*time.Second + 15*time.Second
	if budget < 30*time.Second {
		return 30 * time.Second
	}
	return budget
}

// Handler returns the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr reports the bound listener address once started.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Start acquires the instance lock and begins serving. The server shuts
// down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("marquee server already running (lock %s)", s.lockPath)
	}

	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		_ = s.lock.Unlock()
		return fmt.Errorf("api listen: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorWithContext(s.logger, "api server error", "server_failed", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening",
		logging.String("address", listener.Addr().String()),
		logging.String("lock", s.lockPath),
		logging.Bool("auth", s.svc.Config.Paths.APIToken != ""),
	)
	return nil
}

// Stop shuts the HTTP server down and releases the instance lock. It is safe
// to call more than once.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return
	}
	s.once.Do(func() { close(s.closing) })
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
	_ = s.listener.Close()
	s.listener = nil
	if err := s.lock.Unlock(); err != nil {
		logging.WarnWithContext(s.logger, "failed to release server lock", "lock_release_failed",
			logging.Error(err),
			logging.String("lock", s.lockPath),
		)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps a classified error to its HTTP status. Server-side
// failures are logged; client errors are only echoed back.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	status := services.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logging.WarnWithContext(logging.WithContext(r.Context(), s.logger), "api request failed", "api_request_failed",
			logging.String("operation", operation),
			logging.Int("status", status),
			logging.Error(err),
		)
	}
	s.writeError(w, status, err.Error())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, out any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return services.Wrap(services.ErrValidation, "server", "decode", "invalid JSON body", err)
	}
	return nil
}
