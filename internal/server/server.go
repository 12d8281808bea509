package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/voyagen/nowplaying/internal/cache"
	"github.com/voyagen/nowplaying/internal/config"
	nplog "github.com/voyagen/nowplaying/internal/log"
	"github.com/voyagen/nowplaying/internal/schedule"
	"github.com/voyagen/nowplaying/internal/store"
)

// Server holds dependencies for the HTTP API.
type Server struct {
	store  store.Store
	sched  *schedule.Service
	redis  *cache.Redis // nil when REDIS_URL is not set
	cfg    *config.Config
	router chi.Router
	now    func() time.Time
	logger zerolog.Logger
}

// New creates a Server and registers routes.
// redis may be nil; contact messages are then stored but not queued for notification.
func New(s store.Store, cfg *config.Config, redis *cache.Redis) *Server {
	srv := &Server{
		store:  s,
		sched:  schedule.NewService(s, cfg.Location),
		redis:  redis,
		cfg:    cfg,
		router: chi.NewRouter(),
		now:    time.Now,
		logger: nplog.WithComponent("api"),
	}
	srv.routes()
	return srv
}

func (s *Server) routes() {
	r := s.router
	r.Use(withRecover, withRequestID, withCORS(s.cfg.CORSOrigins), withMetrics, withLogging)

	r.Get("/api/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Channels
	r.Get("/api/channels", s.handleListChannels)
	r.Post("/api/channels", s.handleCreateChannel)
	r.Get("/api/channels/{id}", s.handleGetChannel)
	r.Post("/api/channels/{id}/programs/import", s.handleImportPrograms)

	// Programs
	r.Get("/api/programs", s.handleListPrograms)
	r.Post("/api/programs", s.handleCreateProgram)
	r.Get("/api/programs/{id}", s.handleGetProgram)
	r.Patch("/api/programs/{id}", s.handleUpdateProgram)
	r.Delete("/api/programs/{id}", s.handleDeleteProgram)

	// Schedule
	r.Get("/api/schedule", s.handleListSchedule)
	r.Post("/api/schedule", s.handleCreateSchedule)
	r.Get("/api/schedule/now-playing", s.handleNowPlaying)
	r.Get("/api/schedule/week", s.handleWeek)
	r.Get("/api/schedule/{id}", s.handleGetSchedule)
	r.Put("/api/schedule/{id}", s.handleUpdateSchedule)
	r.Delete("/api/schedule/{id}", s.handleDeleteSchedule)

	// Ticker and ads
	r.Get("/api/ticker", s.handleListTickers)
	r.Post("/api/ticker", s.handleCreateTicker)
	r.Put("/api/ticker/{id}", s.handleUpdateTicker)
	r.Delete("/api/ticker/{id}", s.handleDeleteTicker)
	r.Get("/api/ads", s.handleListAds)
	r.Post("/api/ads", s.handleCreateAd)
	r.Delete("/api/ads/{id}", s.handleDeleteAd)

	// Contact
	r.With(contactRateLimit(s.cfg.ContactRateLimit)).Post("/api/contact", s.handleCreateContact)
	r.Get("/api/contact", s.handleListContacts)

	// Docs
	r.Get("/api/docs", handleSwaggerUI)
	r.Get("/api/docs/openapi.yaml", handleOpenAPISpec)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe starts the HTTP server on the configured port.
// It blocks until the server is shut down or ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := ":" + s.cfg.ServerPort
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error().Err(err).Msg("server shutdown")
		}
	}()

	s.logger.Info().Str("addr", addr).Msg("listening")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("ListenAndServe: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{"status": "ok"}
	if s.redis != nil {
		body["redis"] = "ok"
		if err := s.redis.Ping(r.Context()); err != nil {
			body["redis"] = "unavailable"
		}
	}
	writeJSON(w, http.StatusOK, body)
}

// --- helpers ---

// APIError is the standard error envelope for all error responses.
type APIError struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// parseID extracts a path parameter by name and parses it as int64.
func parseID(r *http.Request, param string) (int64, error) {
	v := chi.URLParam(r, param)
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s: %s", param, v)
	}
	return id, nil
}

// queryID parses a required positive int64 query parameter.
func queryID(r *http.Request, param string) (int64, error) {
	v := r.URL.Query().Get(param)
	if v == "" {
		return 0, fmt.Errorf("%s is required", param)
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s: %s", param, v)
	}
	return id, nil
}

// queryBool parses an optional boolean query parameter.
func queryBool(r *http.Request, param string, def bool) (bool, error) {
	v := r.URL.Query().Get(param)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %s", param, v)
	}
	return b, nil
}

// decodeJSON reads a JSON body into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		l := nplog.WithComponent("api")
		l.Warn().Err(err).Msg("writeJSON")
	}
}

func writeNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func writeErr(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= 500 {
		l := nplog.FromContext(r.Context(), "api")
		l.Error().Err(err).Int("status", status).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSON(w, status, APIError{
		Status: status,
		Error:  http.StatusText(status),
		Detail: err.Error(),
	})
}

// writeStoreErr maps store sentinel errors onto HTTP statuses.
func writeStoreErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeErr(w, r, http.StatusNotFound, err)
	case errors.Is(err, store.ErrInvalidRange),
		errors.Is(err, store.ErrEmptyTitle),
		errors.Is(err, store.ErrInvalidKind),
		errors.Is(err, store.ErrInvalidInput):
		writeErr(w, r, http.StatusBadRequest, err)
	default:
		writeErr(w, r, http.StatusInternalServerError, err)
	}
}
