package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultArkBaseURL    = "https://ark.cn-beijing.volces.com/api/v3"
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	geminiModelsURL      = "https://generativelanguage.googleapis.com/v1beta/models"
)

// HealthChecker probes a backend without spending completion tokens.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HTTPHealthCheck issues a GET against a model-listing endpoint and treats
// any 2xx response as healthy.
type HTTPHealthCheck struct {
	// URL is the endpoint to GET.
	URL string

	// Header is added to the request (credentials, typically).
	Header http.Header

	// Client defaults to a client with a 10s timeout.
	Client *http.Client
}

// HealthCheck implements HealthChecker.
func (h *HTTPHealthCheck) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	for k, vs := range h.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	client := h.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", redactURL(h.URL), err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("GET %s: unexpected status %d", redactURL(h.URL), resp.StatusCode)
	}
	return nil
}

// HealthCheck returns the zero-token probe for the selected backend.
func (c *Config) HealthCheck() HealthChecker {
	switch c.Backend {
	case BackendGroq:
		base := c.Groq.BaseURL
		if base == "" {
			base = defaultGroqBaseURL
		}
		return bearerCheck(base, c.Groq.APIKey)
	case BackendOpenAI:
		base := c.OpenAI.BaseURL
		if base == "" {
			base = defaultOpenAIBaseURL
		}
		return bearerCheck(base, c.OpenAI.APIKey)
	case BackendOllama:
		return &HTTPHealthCheck{URL: joinURL(c.Ollama.Host, "api/tags")}
	case BackendGemini:
		h := http.Header{}
		h.Set("x-goog-api-key", c.Gemini.APIKey)
		return &HTTPHealthCheck{URL: geminiModelsURL, Header: h}
	case BackendArk:
		base := c.Ark.BaseURL
		if base == "" {
			base = defaultArkBaseURL
		}
		return bearerCheck(base, c.Ark.APIKey)
	default:
		return nil
	}
}

func bearerCheck(baseURL, apiKey string) *HTTPHealthCheck {
	h := http.Header{}
	if apiKey != "" {
		h.Set("Authorization", "Bearer "+apiKey)
	}
	return &HTTPHealthCheck{URL: joinURL(baseURL, "models"), Header: h}
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + path
}

// redactURL strips the query string so keys passed as parameters never reach
// error messages.
func redactURL(u string) string {
	if i := strings.IndexByte(u, '?'); i >= 0 {
		return u[:i]
	}
	return u
}
