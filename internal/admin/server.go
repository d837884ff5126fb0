// Package admin exposes live processes, finished process records and
// metrics over HTTP.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/viant/jobflow/runtime/execution"
	"github.com/viant/jobflow/service/dao"
	"github.com/viant/jobflow/service/processor"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
	writeTimeout      = 30 * time.Second
)

// Interrupter injects a synthetic escalation into a live process
type Interrupter interface {
	Interrupt(ctx context.Context, processID string, cause error) error
}

// ErrInterrupted is the cause of interrupts requested over HTTP
var ErrInterrupted = errors.New("interrupted by admin request")

// Server wraps the chi router and engine stores
type Server struct {
	router      *chi.Mux
	processes   dao.Service[string, execution.Process]
	records     dao.Service[string, execution.Record]
	interrupter Interrupter
	metrics     http.Handler
	logger      *slog.Logger
	addr        string
}

// Option customises the Server
type Option func(s *Server)

// WithMetrics exposes handler at /metrics
func WithMetrics(handler http.Handler) Option {
	return func(s *Server) {
		s.metrics = handler
	}
}

// WithInterrupter enables POST /v1/processes/{id}/interrupt
func WithInterrupter(interrupter Interrupter) Option {
	return func(s *Server) {
		s.interrupter = interrupter
	}
}

// NewServer creates and configures a new HTTP server
func NewServer(addr string, processes dao.Service[string, execution.Process], records dao.Service[string, execution.Record], logger *slog.Logger, options ...Option) *Server {
	srv := &Server{
		router:    chi.NewRouter(),
		processes: processes,
		records:   records,
		logger:    logger,
		addr:      addr,
	}
	for _, option := range options {
		option(srv)
	}
	if srv.logger == nil {
		srv.logger = slog.Default()
	}
	srv.router.Use(middleware.RequestID)
	srv.router.Use(middleware.Recoverer)
	srv.router.Use(srv.loggingMiddleware)
	srv.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
	srv.routes()
	return srv
}

func (s *Server) routes() {
	s.router.Get("/healthz", s.handleHealthz)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics)
	}
	s.router.Route("/v1/processes", func(r chi.Router) {
		r.Get("/", s.handleListProcesses)
		r.Get("/{id}", s.handleGetProcess)
		if s.interrupter != nil {
			r.Post("/{id}/interrupt", s.handleInterrupt)
		}
	})
	s.router.Route("/v1/records", func(r chi.Router) {
		r.Get("/", s.handleListRecords)
		r.Get("/{id}", s.handleGetRecord)
	})
}

// Router returns the chi router
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Run serves until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("admin server listening", "addr", s.addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("admin server error: %w", err)
		}
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("admin server stopped")
	return nil
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, dao.ErrNotFound), errors.Is(err, processor.ErrNotRunning):
		status = http.StatusNotFound
	case errors.Is(err, dao.ErrInvalidID):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
