// Package server: metrics.go registers all Prometheus metrics for the HTTP
// server and the answering pipeline and exposes the helpers that feed them.
package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/54b3r/faqrag-go/internal/rag"
)

// Metric label values shared across registrations.
const (
	// labelHandler is the "handler" label value used to partition metrics by
	// the logical endpoint name rather than the raw URL path.
	labelHandler = "handler"

	outcomeOK          = "ok"
	outcomeError       = "error"
	outcomeInvalidMode = "invalid_mode"
	outcomeBadRequest  = "bad_request"

	// modeLabelUnknown is used when the request never named a valid mode.
	modeLabelUnknown = "unknown"
)

// Metrics holds all Prometheus collectors owned by the service. It also
// satisfies qa.Observer so the pipeline can report per-stage timings.
// A single instance is shared by the server and the pipeline; tests create
// one per isolated registry.
type Metrics struct {
	// searchRequestsTotal counts /search requests by mode and outcome.
	searchRequestsTotal *prometheus.CounterVec

	// searchDurationSeconds records end-to-end /search latency.
	searchDurationSeconds *prometheus.HistogramVec

	// retrievalDurationSeconds records Qdrant query latency by mode.
	retrievalDurationSeconds *prometheus.HistogramVec

	// retrievedPassages records how many passages each retrieval returned.
	retrievedPassages *prometheus.HistogramVec

	// generationDurationSeconds records chat completion latency by outcome.
	generationDurationSeconds *prometheus.HistogramVec

	// promptTokens records the estimated prompt size of each completion call.
	promptTokens prometheus.Histogram

	// httpRequestsTotal counts all HTTP requests handled by the mux,
	// partitioned by method, route pattern, and status code.
	httpRequestsTotal *prometheus.CounterVec

	// httpDurationSeconds records the latency of all HTTP requests.
	httpDurationSeconds *prometheus.HistogramVec
}

// NewMetrics registers all collectors against reg and returns them.
// promauto.With(reg) keeps each registry hermetic so unit tests never touch
// prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		searchRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "faqrag",
			Subsystem: "search",
			Name:      "requests_total",
			Help:      "Total number of /search requests, partitioned by mode and outcome.",
		}, []string{"mode", "outcome"}),

		searchDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "faqrag",
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of /search requests from receipt to response.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"mode", "outcome"}),

		retrievalDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "faqrag",
			Subsystem: "retrieval",
			Name:      "duration_seconds",
			Help:      "Latency of Qdrant retrieval queries, partitioned by mode.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"mode"}),

		retrievedPassages: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "faqrag",
			Subsystem: "retrieval",
			Name:      "passages",
			Help:      "Number of passages returned per retrieval, partitioned by mode.",
			Buckets:   []float64{0, 1, 3, 5, 10, 20},
		}, []string{"mode"}),

		generationDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "faqrag",
			Subsystem: "generation",
			Name:      "duration_seconds",
			Help:      "Latency of chat completion calls, partitioned by outcome.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"outcome"}),

		promptTokens: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "faqrag",
			Subsystem: "generation",
			Name:      "prompt_tokens",
			Help:      "Estimated prompt tokens per completion call (4 chars per token).",
			Buckets:   []float64{250, 500, 1000, 2000, 4000, 8000},
		}),

		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "faqrag",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled by the server, partitioned by method, handler, and status code.",
		}, []string{"method", labelHandler, "code"}),

		httpDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "faqrag",
			Subsystem: "http",
			Name:      "duration_seconds",
			Help:      "Latency of HTTP requests handled by the server.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", labelHandler}),
	}
}

// ObserveRetrieval implements qa.Observer.
func (m *Metrics) ObserveRetrieval(mode rag.Mode, elapsed time.Duration, passages int) {
	m.retrievalDurationSeconds.WithLabelValues(mode.String()).Observe(elapsed.Seconds())
	m.retrievedPassages.WithLabelValues(mode.String()).Observe(float64(passages))
}

// ObserveGeneration implements qa.Observer.
func (m *Metrics) ObserveGeneration(elapsed time.Duration, err error) {
	outcome := outcomeOK
	if err != nil {
		outcome = outcomeError
	}
	m.generationDurationSeconds.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// ObservePromptTokens records one prompt size estimate. It matches the
// signature expected by answer.WithPromptObserver.
func (m *Metrics) ObservePromptTokens(tokens int) {
	m.promptTokens.Observe(float64(tokens))
}

// instrument records request count and latency for every request. The
// handler label is the matched mux pattern so unmatched paths collapse into
// a single "unmatched" series.
func (m *Metrics) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rw, r)

		handler := r.Pattern
		if handler == "" {
			handler = "unmatched"
		}
		m.httpRequestsTotal.WithLabelValues(r.Method, handler, strconv.Itoa(rw.status)).Inc()
		m.httpDurationSeconds.WithLabelValues(r.Method, handler).Observe(time.Since(start).Seconds())
	})
}

// modeLabel bounds label cardinality: only valid modes become label values.
func modeLabel(tag string) string {
	if m, err := rag.ParseMode(tag); err == nil {
		return m.String()
	}
	return modeLabelUnknown
}
