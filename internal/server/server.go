// Package server implements the HTTP surface of the FAQ answering service:
// the landing page, POST /search, liveness and readiness probes and the
// Prometheus scrape endpoint. The server is started by `faqrag serve`.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/54b3r/faqrag-go/internal/logging"
	"github.com/54b3r/faqrag-go/internal/qa"
	"github.com/54b3r/faqrag-go/internal/rag"
)

// invalidSearchType is the error body returned for an unknown mode tag.
const invalidSearchType = "Invalid search type"

// New constructs a Server around the given answerer (normally a *qa.Pipeline).
func New(a answerer, cfg *Config) (*Server, error) {
	if a == nil {
		return nil, fmt.Errorf("server: answerer must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		// Covers one retrieval plus one non-streaming completion.
		cfg.WriteTimeout = 2 * time.Minute
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.IndexFile == "" {
		cfg.IndexFile = "index.html"
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = defaultRateBurst
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.New()
	}
	if cfg.Metrics == nil {
		reg := prometheus.NewRegistry()
		cfg.Metrics = NewMetrics(reg)
		if cfg.MetricsGatherer == nil {
			cfg.MetricsGatherer = reg
		}
	}
	if cfg.MetricsGatherer == nil {
		cfg.MetricsGatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		answerer: a,
		cfg:      cfg,
		log:      cfg.Logger,
		pingers:  cfg.Pingers,
		metrics:  cfg.Metrics,
		stopRL:   func() {},
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// routes builds the mux and wraps it in the middleware chain. Outermost
// first: request logging, panic recovery, CORS, metrics.
func (s *Server) routes() http.Handler {
	var search http.Handler = http.HandlerFunc(s.handleSearch)
	if s.cfg.RateLimit > 0 {
		rl, stop := newRateLimiter(s.cfg.RateLimit, s.cfg.RateBurst)
		s.stopRL = stop
		search = rl.middleware(search)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.Handle("POST /search", search)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/ready", s.handleReady)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.cfg.MetricsGatherer, promhttp.HandlerOpts{}))

	var h http.Handler = mux
	h = s.metrics.instrument(h)
	h = corsMiddleware(s.cfg.CORSOrigins, h)
	h = recoverer(h)
	h = requestLogger(s.log, h)
	return h
}

// Handler returns the fully wrapped HTTP handler. Used by tests and by
// callers that manage their own listener.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	defer s.stopRL()

	errCh := make(chan error, 1)

	go func() {
		s.log.Info("faqrag server listening", slog.String("addr", "http://"+s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: listen error: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		s.log.Info("faqrag server stopped")
		return nil
	}
}

// handleSearch handles POST /search. An unknown search type is answered
// with 200 and {"error": "Invalid search type"}; any backend failure is
// logged and answered with a plain-text 500.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req searchRequest
	if err := decodeSingleJSON(r.Body, &req); err != nil {
		s.metrics.searchRequestsTotal.WithLabelValues(modeLabelUnknown, outcomeBadRequest).Inc()
		http.Error(w, "invalid request body: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if missing := req.missingFields(); len(missing) > 0 {
		s.metrics.searchRequestsTotal.WithLabelValues(modeLabelUnknown, outcomeBadRequest).Inc()
		http.Error(w, "missing required field(s): "+strings.Join(missing, ", "), http.StatusUnprocessableEntity)
		return
	}

	mode := modeLabel(*req.SearchType)
	start := time.Now()
	text, err := s.answerer.Answer(r.Context(), qa.Request{
		Question:   *req.Question,
		SearchType: *req.SearchType,
	})

	switch {
	case errors.Is(err, rag.ErrInvalidMode):
		s.metrics.searchRequestsTotal.WithLabelValues(mode, outcomeInvalidMode).Inc()
		log.Info("invalid search type", slog.String("search_type", *req.SearchType))
		writeJSON(w, log, http.StatusOK, errorResponse{Error: invalidSearchType})
	case err != nil:
		s.metrics.searchRequestsTotal.WithLabelValues(mode, outcomeError).Inc()
		s.metrics.searchDurationSeconds.WithLabelValues(mode, outcomeError).Observe(time.Since(start).Seconds())
		log.Error("search failed", slog.String("mode", mode), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	default:
		s.metrics.searchRequestsTotal.WithLabelValues(mode, outcomeOK).Inc()
		s.metrics.searchDurationSeconds.WithLabelValues(mode, outcomeOK).Observe(time.Since(start).Seconds())
		writeJSON(w, log, http.StatusOK, answerResponse{Answer: text})
	}
}

// decodeSingleJSON decodes exactly one JSON value from body into v. Anything
// but whitespace after the value is an error.
func decodeSingleJSON(body io.Reader, v any) error {
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON value")
	}
	return nil
}

// missingFields names the required JSON fields absent from the body.
func (r *searchRequest) missingFields() []string {
	var missing []string
	if r.Question == nil {
		missing = append(missing, "question")
	}
	if r.SearchType == nil {
		missing = append(missing, "search_type")
	}
	return missing
}

// handleIndex handles GET / by serving the configured landing page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, s.cfg.IndexFile)
}

// handleHealth handles GET /api/health for liveness checks.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, logging.FromContext(r.Context()), http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, log *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("response encode error", slog.Any("error", err))
	}
}
