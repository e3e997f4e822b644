package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/54b3r/faqrag-go/internal/qa"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response. It is
	// the only bound on a /search request; the pipeline adds none.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [logging.New] is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// IndexFile is the landing page served at GET / (default: index.html).
	IndexFile string
	// CORSOrigins lists the allowed cross-origin callers. "*" or an empty
	// list allows any origin.
	CORSOrigins []string
	// RateLimit is the sustained request rate allowed per IP on /search
	// (requests/second). Zero disables rate limiting.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// Metrics receives HTTP and pipeline measurements. If nil, New creates
	// one on a private registry.
	Metrics *Metrics
	// MetricsGatherer is served at GET /metrics. If nil, the gatherer behind
	// Metrics is used.
	MetricsGatherer prometheus.Gatherer
}

// answerer is the interface handleSearch calls to answer one question.
// *qa.Pipeline satisfies it; tests inject a fake.
type answerer interface {
	Answer(ctx context.Context, req qa.Request) (string, error)
}

// Server is the HTTP server that exposes the FAQ answering pipeline.
type Server struct {
	// answerer runs the retrieval and generation pipeline.
	answerer answerer
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /api/ready.
	pingers []Pinger
	// metrics holds the Prometheus collectors for this server instance.
	metrics *Metrics
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// searchRequest is the JSON body for POST /search. Pointer fields let the
// handler tell a missing field from an empty string.
type searchRequest struct {
	// Question is the free-text user question.
	Question *string `json:"question"`
	// SearchType is the retrieval mode tag.
	SearchType *string `json:"search_type"`
}

// answerResponse is the JSON body returned on a successful search.
type answerResponse struct {
	Answer string `json:"answer"`
}

// errorResponse is the JSON body returned for an unknown search type.
type errorResponse struct {
	Error string `json:"error"`
}
