package rag

import (
	"context"
	"fmt"
)

// Search runs exactly one query shape on s, chosen by mode. Passages from
// different modes are never combined here.
func Search(ctx context.Context, s Searcher, mode Mode, query string, limit int) ([]Passage, error) {
	if s == nil {
		return nil, fmt.Errorf("rag: searcher must not be nil")
	}

	switch mode {
	case ModeSemantic:
		return s.SemanticSearch(ctx, query, limit)
	case ModeSparse:
		return s.SparseSearch(ctx, query, limit)
	case ModeHybrid:
		return s.HybridSearch(ctx, query, limit)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
}

// resolveLimit applies DefaultLimit to non-positive values.
func resolveLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}
