package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/qdrant/go-client/qdrant"

	"github.com/54b3r/faqrag-go/internal/answer"
	"github.com/54b3r/faqrag-go/internal/provider"
	"github.com/54b3r/faqrag-go/internal/qa"
	"github.com/54b3r/faqrag-go/internal/rag"
	"github.com/54b3r/faqrag-go/internal/server"
	"github.com/54b3r/faqrag-go/internal/tracing"
)

// pipelineDeps holds the pipeline and the shared handles behind it. close
// releases the Qdrant connection and flushes pending traces.
type pipelineDeps struct {
	pipeline *qa.Pipeline
	qdrant   *qdrant.Client
	provider *provider.Config
	close    func()
}

// buildPipeline wires Qdrant, the chat model, optional Langfuse tracing and
// the answer generator into a qa.Pipeline. metrics may be nil.
func buildPipeline(ctx context.Context, log *slog.Logger, metrics *server.Metrics) (*pipelineDeps, error) {
	qcfg := rag.ConfigFromEnv()
	client, err := rag.NewQdrantClient(&qcfg)
	if err != nil {
		return nil, err
	}
	searcher, err := rag.NewQdrantSearcher(client, qcfg)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	log.Info("qdrant client ready",
		slog.String("host", qcfg.Host),
		slog.Int("port", qcfg.Port),
		slog.String("semantic", qcfg.SemanticCollection),
		slog.String("sparse", qcfg.SparseCollection),
		slog.String("hybrid", qcfg.HybridCollection),
	)

	chatModel, providerCfg, err := provider.NewFromEnv(ctx)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to initialise model provider: %w", err)
	}
	log.Info("provider initialised",
		slog.String("provider", string(providerCfg.Backend)),
		slog.String("model", providerCfg.ModelName()),
	)

	var opts []answer.Option
	handler, flush, ok := tracing.Setup(tracing.ConfigFromEnv())
	if ok {
		opts = append(opts, answer.WithCallbacks(handler))
		log.Info("langfuse tracing enabled")
	} else {
		log.Info("langfuse tracing disabled", slog.String("reason", "LANGFUSE_PUBLIC_KEY or LANGFUSE_SECRET_KEY not set"))
	}

	p := &qa.Pipeline{
		Searcher: searcher,
		Limit:    envInt("SEARCH_LIMIT", rag.DefaultLimit),
	}
	if metrics != nil {
		opts = append(opts, answer.WithPromptObserver(metrics.ObservePromptTokens))
		p.Observer = metrics
	}

	gen, err := answer.NewGenerator(chatModel, answer.ConfigFromEnv(), opts...)
	if err != nil {
		flush()
		_ = client.Close()
		return nil, err
	}
	p.Generator = gen

	return &pipelineDeps{
		pipeline: p,
		qdrant:   client,
		provider: providerCfg,
		close: func() {
			flush()
			if err := client.Close(); err != nil {
				log.Warn("qdrant: close failed", slog.Any("error", err))
			}
		},
	}, nil
}

// envOr returns the named env var, or fallback if unset or empty.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envInt returns the named env var as an int, or fallback if unset or invalid.
func envInt(key string, fallback int) int {
	if i, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return i
	}
	return fallback
}

// envFloat returns the named env var as a float64, or fallback if unset or invalid.
func envFloat(key string, fallback float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return f
	}
	return fallback
}

// splitList splits a comma-separated list, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
