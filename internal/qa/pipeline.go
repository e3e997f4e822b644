// Package qa runs one question through the FAQ answering pipeline: parse the
// search mode, retrieve passages with exactly that mode, format them into a
// context block and ask the generator for a grounded answer.
package qa

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/54b3r/faqrag-go/internal/answer"
	"github.com/54b3r/faqrag-go/internal/logging"
	"github.com/54b3r/faqrag-go/internal/rag"
)

// Request is the inbound question. Both fields are required at the transport
// layer; the pipeline itself does not validate their content.
type Request struct {
	// Question is the free-text user question, used verbatim.
	Question string `json:"question"`

	// SearchType is the raw mode tag: semantic, sparse or hybrid.
	SearchType string `json:"search_type"`
}

// Generator produces a completion from a question and a context block.
// *answer.Generator satisfies it.
type Generator interface {
	Generate(ctx context.Context, question, contextBlock string) (string, error)
}

// Observer receives per-stage measurements. Implementations must be safe for
// concurrent use.
type Observer interface {
	// ObserveRetrieval is called after a successful retrieval.
	ObserveRetrieval(mode rag.Mode, elapsed time.Duration, passages int)

	// ObserveGeneration is called after every generation attempt.
	ObserveGeneration(elapsed time.Duration, err error)
}

// Pipeline wires a Searcher to a Generator. It keeps no state between
// requests and is safe for concurrent use.
type Pipeline struct {
	// Searcher runs the retrieval queries.
	Searcher rag.Searcher

	// Generator produces the answer.
	Generator Generator

	// Limit is the requested passage count. Non-positive means rag.DefaultLimit.
	Limit int

	// Observer is optional.
	Observer Observer
}

// Answer runs req through the pipeline. An unknown search type returns an
// error wrapping rag.ErrInvalidMode before any backend is called. Retrieval
// and generation errors are returned wrapped and are never retried.
func (p *Pipeline) Answer(ctx context.Context, req Request) (string, error) {
	log := logging.FromContext(ctx)

	mode, err := rag.ParseMode(req.SearchType)
	if err != nil {
		return "", err
	}

	limit := p.Limit
	if limit <= 0 {
		limit = rag.DefaultLimit
	}

	start := time.Now()
	passages, err := rag.Search(ctx, p.Searcher, mode, req.Question, limit)
	if err != nil {
		return "", fmt.Errorf("qa: retrieve: %w", err)
	}
	if p.Observer != nil {
		p.Observer.ObserveRetrieval(mode, time.Since(start), len(passages))
	}
	log.Debug("passages retrieved",
		slog.String("mode", mode.String()),
		slog.Int("limit", limit),
		slog.Int("passages", len(passages)),
		slog.Duration("elapsed", time.Since(start)),
	)

	contextBlock := answer.FormatContext(passages)

	start = time.Now()
	text, err := p.Generator.Generate(ctx, req.Question, contextBlock)
	if p.Observer != nil {
		p.Observer.ObserveGeneration(time.Since(start), err)
	}
	if err != nil {
		return "", fmt.Errorf("qa: generate: %w", err)
	}
	log.Debug("answer generated",
		slog.Int("answer_chars", len(text)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return text, nil
}
