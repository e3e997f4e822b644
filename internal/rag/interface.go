// Package rag is the retrieval side of the FAQ answering pipeline. It defines
// the Passage type, the closed set of search modes, and the Searcher
// interface with one method per Qdrant query shape (dense, sparse, fused).
// Embedding, BM25 scoring and rank fusion all happen inside Qdrant; this
// package only shapes the queries and decodes the returned payloads.
package rag

import (
	"context"
	"errors"
	"fmt"
)

// DefaultLimit is the number of passages requested when the caller passes a
// non-positive limit.
const DefaultLimit = 3

var (
	// ErrInvalidMode is returned by ParseMode for any tag other than
	// "semantic", "sparse" or "hybrid".
	ErrInvalidMode = errors.New("rag: invalid search mode")

	// ErrMalformedPayload is returned when a retrieved point lacks one of the
	// course, section or text payload fields.
	ErrMalformedPayload = errors.New("rag: malformed point payload")
)

// Mode selects which retrieval query shape runs for a request.
type Mode string

const (
	// ModeSemantic runs a dense-embedding similarity query.
	ModeSemantic Mode = "semantic"
	// ModeSparse runs a BM25 lexical query.
	ModeSparse Mode = "sparse"
	// ModeHybrid runs dense and BM25 prefetches fused with RRF.
	ModeHybrid Mode = "hybrid"
)

// ParseMode maps a raw search_type tag onto a Mode using exact string
// equality. Case and surrounding whitespace are significant.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeSemantic, ModeSparse, ModeHybrid:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// String implements fmt.Stringer.
func (m Mode) String() string { return string(m) }

// Passage is one retrieved FAQ entry. Passages are request-scoped and are
// kept in the order the backend ranked them.
type Passage struct {
	// Course is the course the FAQ entry belongs to.
	Course string
	// Section is the FAQ section heading.
	Section string
	// Text is the FAQ answer body.
	Text string
	// Score is the similarity or fusion score assigned by the backend.
	Score float32
}

// Searcher issues the three supported query shapes against the vector
// backend. Implementations must be safe to call from multiple goroutines.
type Searcher interface {
	// SemanticSearch returns up to limit passages ranked by dense similarity.
	SemanticSearch(ctx context.Context, query string, limit int) ([]Passage, error)

	// SparseSearch returns up to limit passages ranked by BM25 score.
	SparseSearch(ctx context.Context, query string, limit int) ([]Passage, error)

	// HybridSearch prefetches 5*limit dense and 5*limit BM25 candidates and
	// returns the backend's RRF ranking. The result is not capped at limit.
	HybridSearch(ctx context.Context, query string, limit int) ([]Passage, error)
}
