package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/54b3r/faqrag-go/internal/qa"
	"github.com/54b3r/faqrag-go/internal/rag"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// fakeAnswerer records requests and returns a canned answer or error. An
// unknown search type yields rag.ErrInvalidMode unless err is set.
type fakeAnswerer struct {
	mu     sync.Mutex
	answer string
	err    error
	panic  bool
	calls  []qa.Request
}

func (f *fakeAnswerer) Answer(_ context.Context, req qa.Request) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if f.panic {
		panic("boom")
	}
	if f.err != nil {
		return "", f.err
	}
	if _, err := rag.ParseMode(req.SearchType); err != nil {
		return "", err
	}
	return f.answer, nil
}

// newTestServer builds a Server with a discarding logger, an isolated
// metrics registry and no pingers.
func newTestServer(t *testing.T, a answerer, mutate ...func(*Config)) (*Server, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	cfg := &Config{
		Logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics:         NewMetrics(reg),
		MetricsGatherer: reg,
	}
	for _, m := range mutate {
		m(cfg)
	}
	s, err := New(a, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.stopRL)
	return s, reg
}

func postSearch(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// ---------------------------------------------------------------------------
// New
// ---------------------------------------------------------------------------

func TestNew_NilAnswerer(t *testing.T) {
	t.Parallel()
	if _, err := New(nil, nil); err == nil {
		t.Fatal("expected error for nil answerer")
	}
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, &fakeAnswerer{})
	if s.httpServer.Addr != "127.0.0.1:8080" {
		t.Errorf("Addr = %q", s.httpServer.Addr)
	}
	if s.cfg.IndexFile != "index.html" || s.cfg.RateBurst != defaultRateBurst {
		t.Errorf("cfg = %+v", s.cfg)
	}
}

// ---------------------------------------------------------------------------
// POST /search
// ---------------------------------------------------------------------------

func TestHandleSearch_Success(t *testing.T) {
	t.Parallel()
	a := &fakeAnswerer{answer: "The course starts on January 15."}
	s, _ := newTestServer(t, a)

	w := postSearch(t, s.Handler(), `{"question":"When does the course start?","search_type":"semantic"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body) != 1 || body["answer"] != "The course starts on January 15." {
		t.Errorf("body = %v", body)
	}
	if len(a.calls) != 1 || a.calls[0].Question != "When does the course start?" || a.calls[0].SearchType != "semantic" {
		t.Errorf("calls = %+v", a.calls)
	}
}

func TestHandleSearch_InvalidSearchType(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, &fakeAnswerer{answer: "unused"})

	w := postSearch(t, s.Handler(), `{"question":"anything","search_type":"keyword"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body) != 1 || body["error"] != "Invalid search type" {
		t.Errorf("body = %v", body)
	}
}

func TestHandleSearch_BackendFailureIsPlain500(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, &fakeAnswerer{err: fmt.Errorf("qa: retrieve: %w", errors.New("qdrant down"))})

	w := postSearch(t, s.Handler(), `{"question":"q","search_type":"hybrid"}`)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); strings.HasPrefix(ct, "application/json") {
		t.Errorf("500 must not be JSON, Content-Type = %q", ct)
	}
	if strings.Contains(w.Body.String(), "qdrant down") {
		t.Errorf("internal error leaked to client: %q", w.Body.String())
	}
}

func TestHandleSearch_MalformedPayloadIs500(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, &fakeAnswerer{err: fmt.Errorf("qa: retrieve: %w", rag.ErrMalformedPayload)})

	w := postSearch(t, s.Handler(), `{"question":"q","search_type":"sparse"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
}

func TestHandleSearch_UnprocessableBodies(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"not json":            `question=hi`,
		"empty body":          ``,
		"missing question":    `{"search_type":"semantic"}`,
		"missing search_type": `{"question":"hi"}`,
		"null question":       `{"question":null,"search_type":"semantic"}`,
		"wrong type":          `{"question":42,"search_type":"semantic"}`,
		"trailing garbage":    `{"question":"q","search_type":"semantic"} trailing-garbage`,
		"two objects":         `{"question":"q","search_type":"semantic"}{"question":"r"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			a := &fakeAnswerer{answer: "x"}
			s, _ := newTestServer(t, a)

			w := postSearch(t, s.Handler(), body)
			if w.Code != http.StatusUnprocessableEntity {
				t.Errorf("status = %d, want 422 (body %q)", w.Code, w.Body.String())
			}
			if len(a.calls) != 0 {
				t.Errorf("answerer called for invalid body")
			}
		})
	}
}

func TestHandleSearch_TrailingWhitespaceAccepted(t *testing.T) {
	t.Parallel()
	a := &fakeAnswerer{answer: "x"}
	s, _ := newTestServer(t, a)

	w := postSearch(t, s.Handler(), "{\"question\":\"q\",\"search_type\":\"semantic\"}\n\t ")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %q)", w.Code, w.Body.String())
	}
}

func TestHandleSearch_EmptyStringsAccepted(t *testing.T) {
	t.Parallel()
	a := &fakeAnswerer{answer: "x"}
	s, _ := newTestServer(t, a)

	// An empty question is passed through; an empty mode is an invalid mode.
	w := postSearch(t, s.Handler(), `{"question":"","search_type":""}`)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Invalid search type") {
		t.Errorf("status = %d body = %s", w.Code, w.Body.String())
	}
}

func TestHandleSearch_WrongMethod(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, &fakeAnswerer{})

	req := httptest.NewRequest(http.MethodGet, "/search", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}

// ---------------------------------------------------------------------------
// GET /
// ---------------------------------------------------------------------------

func TestHandleIndex_ServesFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "index.html")
	if err := os.WriteFile(path, []byte("<html>faq</html>"), 0o600); err != nil {
		t.Fatal(err)
	}
	s, _ := newTestServer(t, &fakeAnswerer{}, func(c *Config) { c.IndexFile = path })

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("<html>faq</html>")) {
		t.Errorf("body = %q", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestHandleIndex_MissingFile(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, &fakeAnswerer{}, func(c *Config) {
		c.IndexFile = filepath.Join(t.TempDir(), "absent.html")
	})

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestUnknownPath404(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, &fakeAnswerer{})

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

// ---------------------------------------------------------------------------
// Rate limiting wiring
// ---------------------------------------------------------------------------

func TestSearch_RateLimitedWhenEnabled(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, &fakeAnswerer{answer: "a"}, func(c *Config) {
		c.RateLimit = 0.001
		c.RateBurst = 1
	})

	body := `{"question":"q","search_type":"semantic"}`
	if w := postSearch(t, s.Handler(), body); w.Code != http.StatusOK {
		t.Fatalf("first request: %d", w.Code)
	}
	if w := postSearch(t, s.Handler(), body); w.Code != http.StatusTooManyRequests {
		t.Errorf("second request: %d, want 429", w.Code)
	}

	// Health is never rate limited.
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("health: %d", w.Code)
	}
}

func TestSearch_NotRateLimitedByDefault(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, &fakeAnswerer{answer: "a"})

	for i := range 50 {
		if w := postSearch(t, s.Handler(), `{"question":"q","search_type":"sparse"}`); w.Code != http.StatusOK {
			t.Fatalf("request %d: %d", i, w.Code)
		}
	}
}
