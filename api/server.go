// Package api serves the task service over HTTP with JSON envelopes.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/NHHoangTuan/todo-api/internal/cache"
	"github.com/NHHoangTuan/todo-api/internal/logging"
	"github.com/NHHoangTuan/todo-api/task"
)

// RequestIDHeader carries the per-request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// CacheHeader reports whether a list response came from the cache.
const CacheHeader = "X-Cache"

const shutdownTimeout = 5 * time.Second

// ServerOptions configures a Server.
type ServerOptions struct {
	// Store is required.
	Store task.Store

	// CacheTTL bounds how long list responses are reused (default 30m).
	CacheTTL time.Duration

	// Logger defaults to a discarding logger.
	Logger *slog.Logger

	// Now overrides the service clock, for tests.
	Now func() time.Time
}

// Server handles the task and dependency routes.
type Server struct {
	service *task.Service
	lists   *cache.Cache[[]byte]
	logger  *slog.Logger
}

// NewServer builds the service over opts.Store with the list cache wired to
// its mutation hook.
func NewServer(opts ServerOptions) (*Server, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	lists := cache.New[[]byte](opts.CacheTTL)
	service := task.NewService(opts.Store, task.Options{
		Now:      opts.Now,
		OnMutate: lists.Invalidate,
	})
	return &Server{service: service, lists: lists, logger: logger}, nil
}

// Service returns the service the server writes through.
func (s *Server) Service() *task.Service {
	return s.service
}

// Handler returns the HTTP handler for every route.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/tasks", s.handleTaskCreate)
	mux.HandleFunc("GET /api/tasks", s.handleTaskList)
	mux.HandleFunc("GET /api/tasks/ready", s.handleTaskReady)
	mux.HandleFunc("GET /api/tasks/{id}", s.handleTaskGet)
	mux.HandleFunc("PATCH /api/tasks/{id}", s.handleTaskUpdate)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.handleTaskDelete)
	mux.HandleFunc("POST /api/dependencies/tasks/{taskId}/dependencies/{dependencyId}", s.handleDependencyAdd)
	mux.HandleFunc("DELETE /api/dependencies/tasks/{taskId}/dependencies/{dependencyId}", s.handleDependencyRemove)
	mux.HandleFunc("GET /api/dependencies/tasks/{taskId}/dependencies", s.handleDependencyList)
	mux.HandleFunc("POST /api/dependencies/tasks/{taskId}/dependencies", s.handleDependencyBatch)
	mux.HandleFunc("/", s.handleRoot)
	return s.requestContext(s.recoverHandler(mux))
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:     addr,
		Handler:  s.Handler(),
		ErrorLog: slog.NewLogLogger(s.logger.Handler(), slog.LevelError),
	}

	listenErrs := make(chan error, 1)
	go func() {
		listenErrs <- server.ListenAndServe()
	}()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-listenErrs:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server stopped", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		shutdownErr := server.Shutdown(shutdownCtx)
		cancel()
		listenErr := <-listenErrs
		if errors.Is(listenErr, http.ErrServerClosed) {
			listenErr = nil
		}
		return errors.Join(shutdownErr, listenErr)
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" || r.Method != http.MethodGet {
		s.writeError(w, r, http.StatusNotFound, fmt.Errorf("route %s %s not found", r.Method, r.URL.Path))
		return
	}
	writeJSON(w, http.StatusOK, welcomeResponse{Message: "Welcome to Todo API"})
}

// requestContext assigns a request ID, attaches a request-scoped logger and
// logs each request once it completes.
func (s *Server) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		logger := s.logger.With("request_id", requestID)
		r = r.WithContext(logging.WithLogger(r.Context(), logger))

		writer := &responseTracker{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(writer, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", writer.status,
			"duration", time.Since(start))
	})
}

func (s *Server) recoverHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writer := &responseTracker{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			if recovered := recover(); recovered != nil {
				s.requestLogger(r).Error("panic handling request",
					"method", r.Method,
					"path", r.URL.Path,
					"panic", recovered,
					"stack", string(debug.Stack()))
				if writer.wroteHeader {
					return
				}
				writeJSON(writer, http.StatusInternalServerError, errorEnvelope{Error: "Internal server error"})
			}
		}()
		next.ServeHTTP(writer, r)
	})
}

func (s *Server) requestLogger(r *http.Request) *slog.Logger {
	return logging.FromContext(r.Context(), s.logger)
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if decoder.More() {
		return fmt.Errorf("invalid request body: unexpected extra JSON data")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

// statusFor maps a failure kind to its HTTP status.
func statusFor(kind task.Kind) int {
	switch kind {
	case task.KindNotFound:
		return http.StatusNotFound
	case task.KindStoreConflict:
		return http.StatusConflict
	case task.KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// writeTaskError renders a service failure, including the blocking tasks
// when there are any.
func (s *Server) writeTaskError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(task.KindOf(err))
	if status == http.StatusInternalServerError {
		s.writeError(w, r, status, err)
		return
	}

	payload := errorEnvelope{Error: err.Error()}
	if taskErr, ok := task.AsError(err); ok {
		payload.IncompleteDependencies = incompleteDependencies(taskErr.Blockers)
		payload.DependentTasks = dependentTasks(taskErr.Referencing)
	}
	s.logRequestError(r, status, err)
	writeJSON(w, status, payload)
}

// writeError renders a plain failure. Internal errors are logged in full
// but reported generically.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	s.logRequestError(r, status, err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "Internal server error"
	}
	writeJSON(w, status, errorEnvelope{Error: message})
}

func (s *Server) logRequestError(r *http.Request, status int, err error) {
	logger := s.requestLogger(r)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
		return
	}
	logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
}

type responseTracker struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *responseTracker) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
	}
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseTracker) Write(data []byte) (int, error) {
	if !w.wroteHeader {
		w.wroteHeader = true
	}
	return w.ResponseWriter.Write(data)
}

func (w *responseTracker) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
