package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"fleet-ops-report/internal/db"
	"fleet-ops-report/internal/logger"
	"fleet-ops-report/internal/models"
	"fleet-ops-report/internal/report"
	"fleet-ops-report/internal/source"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxBodyBytes bounds POST /api/v1/report payloads
const maxBodyBytes = 32 << 20

// Server represents the API server
type Server struct {
	svc    *report.Service
	src    source.Source
	feed   *db.Database
	log    logger.Logger
	router *mux.Router
}

// Option configures a Server
type Option func(*Server)

// WithFeed exposes feed statistics on /api/v1/stats
func WithFeed(feed *db.Database) Option {
	return func(s *Server) { s.feed = feed }
}

// WithLogger sets the access and error logger
func WithLogger(l logger.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithGatherer serves Prometheus metrics from g on /metrics
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.router.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{})).Methods("GET")
	}
}

// NewServer creates a new API server. GET routes report on src.
func NewServer(svc *report.Service, src source.Source, opts ...Option) *Server {
	s := &Server{
		svc:    svc,
		src:    src,
		log:    logger.NopLogger{},
		router: mux.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	s.router.HandleFunc("/api/v1/vehicles", s.handleListVehicles).Methods("GET")
	s.router.HandleFunc("/api/v1/stats", s.handleStats).Methods("GET")

	s.router.HandleFunc("/api/v1/report", s.handleReport).Methods("GET")
	s.router.HandleFunc("/api/v1/report", s.handleReportRecords).Methods("POST")
	s.router.HandleFunc("/api/v1/report/{view}", s.handleReportView).Methods("GET")

	s.router.Use(requestIDMiddleware)
	s.router.Use(s.loggingMiddleware)
}

// Router returns the configured router
func (s *Server) Router() *mux.Router {
	return s.router
}

type ctxKey struct{}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Middleware
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Infow("request", map[string]any{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"took_ms":    time.Since(start).Milliseconds(),
			"request_id": requestID(r.Context()),
		})
	})
}

// Response helpers
type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Meta    *meta       `json:"meta,omitempty"`
}

type meta struct {
	RequestID string `json:"request_id,omitempty"`
	QueryMs   int64  `json:"query_ms"`
	Records   int    `json:"records,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, apiResponse{Success: true, Data: data})
}

func respondWithMeta(w http.ResponseWriter, data interface{}, m *meta) {
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: data, Meta: m})
}

func respondError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apiResponse{Success: false, Error: message})
}

// respondFailure maps validation errors to 400 and everything else to 500.
// Nothing is written once the client has gone away.
func (s *Server) respondFailure(w http.ResponseWriter, r *http.Request, err error) {
	if models.IsValidation(err) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if r.Context().Err() != nil {
		return
	}
	s.log.Errorf("request %s: %v", requestID(r.Context()), err)
	respondError(w, http.StatusInternalServerError, err.Error())
}
