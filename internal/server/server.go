package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"task-dashboard/internal/export"
	"task-dashboard/internal/metrics"
	"task-dashboard/internal/service"
)

// maxRequestBodySize limits POST and PATCH bodies.
const maxRequestBodySize = 1 << 20 // 1 MB

const shutdownTimeout = 10 * time.Second

// Server exposes the task dashboard as a JSON HTTP API.
type Server struct {
	tasks      *service.TaskService
	categories *service.CategoryService
	stats      *service.StatsService
	exporter   *export.Exporter
	metrics    *metrics.Metrics
}

// New builds the API; m may be nil to run without /metrics.
func New(tasks *service.TaskService, categories *service.CategoryService, stats *service.StatsService, exporter *export.Exporter, m *metrics.Metrics) *Server {
	return &Server{tasks: tasks, categories: categories, stats: stats, exporter: exporter, metrics: m}
}

// Handler returns the routed API wrapped in request logging.
//
//	GET    /health
//	GET    /api/categories
//	GET    /api/categories/stats
//	GET    /api/categories/{id}
//	GET    /api/tasks?category=&status=&filter=overdue
//	POST   /api/tasks
//	GET    /api/tasks/{id}
//	PATCH  /api/tasks/{id}
//	DELETE /api/tasks/{id}
//	GET    /api/stats
//	GET    /api/dashboard
//	GET    /api/export?format=json|csv|pdf
//	GET    /metrics
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("GET /api/categories/stats", s.handleCategoryStats)
	mux.HandleFunc("GET /api/categories/{id}", s.handleGetCategory)
	mux.HandleFunc("GET /api/tasks", s.handleListTasks)
	mux.HandleFunc("POST /api/tasks", s.handleCreateTask)
	mux.HandleFunc("GET /api/tasks/{id}", s.handleGetTask)
	mux.HandleFunc("PATCH /api/tasks/{id}", s.handleUpdateTask)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.handleDeleteTask)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/export", s.handleExport)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	return s.withRequestLog(mux)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Printf("[info] http listening on %s", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		if s.metrics != nil {
			s.metrics.ObserveRequest(route, rec.status)
		}
		log.Printf("[info] http request_id=%s %s %s status=%d duration=%s", requestID, r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Microsecond))
	})
}
