package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/54b3r/faqrag-go/internal/provider"
)

// LLMPinger probes the chat model backend through the provider's zero-token
// health check (a model-listing GET). It never sends a completion request.
type LLMPinger struct {
	// check is the backend-specific HTTP probe.
	check provider.HealthChecker
	// name identifies the backend in readiness responses (e.g. "groq").
	name string
}

// NewLLMPinger constructs an LLMPinger for the given health check and backend name.
func NewLLMPinger(check provider.HealthChecker, name string) *LLMPinger {
	return &LLMPinger{check: check, name: name}
}

// Name returns the backend label used in readiness responses.
func (p *LLMPinger) Name() string { return p.name }

// Ping runs the health check.
func (p *LLMPinger) Ping(ctx context.Context) error {
	if p.check == nil {
		return errors.New("no health check configured")
	}
	if err := p.check.HealthCheck(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// qdrantHealthChecker is the subset of *qdrant.Client used for readiness.
type qdrantHealthChecker interface {
	HealthCheck(ctx context.Context) (*qdrant.HealthCheckReply, error)
}

// QdrantPinger probes a Qdrant instance using its native HealthCheck RPC.
// It satisfies the Pinger interface and is used by GET /api/ready.
type QdrantPinger struct {
	// client is the Qdrant gRPC client to probe.
	client qdrantHealthChecker
}

// NewQdrantPinger constructs a QdrantPinger for the given Qdrant client.
func NewQdrantPinger(client *qdrant.Client) *QdrantPinger {
	return &QdrantPinger{client: client}
}

// Name returns the dependency label used in readiness responses.
func (p *QdrantPinger) Name() string { return "qdrant" }

// Ping calls the Qdrant HealthCheck RPC.
func (p *QdrantPinger) Ping(ctx context.Context) error {
	if _, err := p.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}
