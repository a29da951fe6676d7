// Package server exposes the analyzer as a small web UI and JSON API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/brochure-cli/internal/analyzer"
	"github.com/sells-group/brochure-cli/internal/extract"
	"github.com/sells-group/brochure-cli/internal/fetcher"
	"github.com/sells-group/brochure-cli/internal/model"
	"github.com/sells-group/brochure-cli/internal/store"
	"github.com/sells-group/brochure-cli/pkg/google"
)

// Analyzer runs one analysis request.
type Analyzer interface {
	Analyze(ctx context.Context, req analyzer.Request) (*model.Analysis, error)
}

// History reads stored analyses.
type History interface {
	GetAnalysis(ctx context.Context, id string) (*model.Analysis, error)
	ListAnalyses(ctx context.Context, limit int) ([]model.Analysis, error)
}

// Options configures the handler.
type Options struct {
	// MaxUploadBytes caps a multipart request. Default 50 MiB.
	MaxUploadBytes int64
	// AllowedOrigins for CORS. Default "*".
	AllowedOrigins []string
	// RequestTimeout bounds a single analysis. Default 3 minutes.
	RequestTimeout time.Duration
}

// Server holds the HTTP handlers.
type Server struct {
	analyzer Analyzer
	history  History
	opts     Options
}

// New creates a Server. history may be nil when the store is disabled.
func New(a Analyzer, history History, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 50 << 20
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 3 * time.Minute
	}
	return &Server{analyzer: a, history: history, opts: opts}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/", s.handleIndex)

	r.Route("/api", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/compare", s.handleCompare)
		r.Get("/analyses", s.handleListAnalyses)
		r.Get("/analyses/{id}", s.handleGetAnalysis)
	})
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error  string `json:"error"`
	Source string `json:"source,omitempty"`
}

// writeError maps domain errors to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		zap.L().Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, body)
}

func classify(err error) (int, errorBody) {
	var failure *extract.Failure
	switch {
	case errors.As(err, &failure):
		return http.StatusUnprocessableEntity, errorBody{Error: failure.Detail, Source: failure.Label}
	case errors.Is(err, analyzer.ErrNoText):
		return http.StatusUnprocessableEntity, errorBody{Error: err.Error()}
	case errors.Is(err, analyzer.ErrNoInput), errors.Is(err, errBadRequest):
		return http.StatusBadRequest, errorBody{Error: err.Error()}
	case errors.Is(err, fetcher.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, errorBody{Error: err.Error()}
	case errors.Is(err, google.ErrNoResults), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, errorBody{Error: err.Error()}
	case errors.Is(err, analyzer.ErrSearchUnavailable):
		return http.StatusNotImplemented, errorBody{Error: err.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, errorBody{Error: "analysis timed out"}
	default:
		return http.StatusBadGateway, errorBody{Error: err.Error()}
	}
}
