package rag

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/qdrant/go-client/qdrant"
)

// hybridPrefetchFactor multiplies the requested limit for each prefetch arm of
// a hybrid query.
const hybridPrefetchFactor = 5

// PointQuerier is the subset of the Qdrant client used for retrieval.
// *qdrant.Client satisfies it.
type PointQuerier interface {
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
}

// QdrantSearcher implements Searcher against three pre-built Qdrant
// collections. Query text is sent as a Document so Qdrant performs the
// embedding and BM25 encoding server side.
type QdrantSearcher struct {
	// client issues the Query RPCs.
	client PointQuerier

	// cfg holds collection names, model identifiers and vector names.
	cfg QdrantConfig
}

// NewQdrantClient dials the Qdrant gRPC endpoint described by cfg.
func NewQdrantClient(cfg *QdrantConfig) (*qdrant.Client, error) {
	if cfg.Host == "" {
		cfg.Host = defaultQdrantHost
	}
	if cfg.Port == 0 {
		cfg.Port = defaultQdrantPort
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: failed to create client: %w", err)
	}
	return client, nil
}

// NewQdrantSearcher returns a Searcher that queries through client. Empty
// fields in cfg are filled with their defaults.
func NewQdrantSearcher(client PointQuerier, cfg QdrantConfig) (*QdrantSearcher, error) {
	if client == nil {
		return nil, fmt.Errorf("qdrant: client must not be nil")
	}
	cfg.applyDefaults()
	return &QdrantSearcher{client: client, cfg: cfg}, nil
}

// SemanticSearch implements Searcher.
func (s *QdrantSearcher) SemanticSearch(ctx context.Context, query string, limit int) ([]Passage, error) {
	req := &qdrant.QueryPoints{
		CollectionName: s.cfg.SemanticCollection,
		Query:          s.document(query, s.cfg.DenseModel),
		Limit:          qdrant.PtrOf(uint64(resolveLimit(limit))),
		WithPayload:    qdrant.NewWithPayload(true),
	}
	return s.run(ctx, ModeSemantic, req)
}

// SparseSearch implements Searcher.
func (s *QdrantSearcher) SparseSearch(ctx context.Context, query string, limit int) ([]Passage, error) {
	req := &qdrant.QueryPoints{
		CollectionName: s.cfg.SparseCollection,
		Query:          s.document(query, s.cfg.SparseModel),
		Using:          qdrant.PtrOf(s.cfg.SparseVectorName),
		Limit:          qdrant.PtrOf(uint64(resolveLimit(limit))),
		WithPayload:    qdrant.NewWithPayload(true),
	}
	return s.run(ctx, ModeSparse, req)
}

// HybridSearch implements Searcher. The outer fusion query carries no limit,
// so the result length is whatever the backend returns for the fused set.
func (s *QdrantSearcher) HybridSearch(ctx context.Context, query string, limit int) ([]Passage, error) {
	candidates := qdrant.PtrOf(uint64(hybridPrefetchFactor * resolveLimit(limit)))
	req := &qdrant.QueryPoints{
		CollectionName: s.cfg.HybridCollection,
		Prefetch: []*qdrant.PrefetchQuery{
			{
				Query: s.document(query, s.cfg.DenseModel),
				Using: qdrant.PtrOf(s.cfg.HybridDenseVectorName),
				Limit: candidates,
			},
			{
				Query: s.document(query, s.cfg.SparseModel),
				Using: qdrant.PtrOf(s.cfg.HybridSparseVectorName),
				Limit: candidates,
			},
		},
		Query:       qdrant.NewQueryFusion(qdrant.Fusion_RRF),
		WithPayload: qdrant.NewWithPayload(true),
	}
	return s.run(ctx, ModeHybrid, req)
}

// document builds a nearest query whose vector Qdrant infers from text.
func (s *QdrantSearcher) document(text, model string) *qdrant.Query {
	return qdrant.NewQueryNearest(qdrant.NewVectorInputDocument(&qdrant.Document{
		Text:  text,
		Model: model,
	}))
}

func (s *QdrantSearcher) run(ctx context.Context, mode Mode, req *qdrant.QueryPoints) ([]Passage, error) {
	points, err := s.client.Query(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("qdrant: %s query on %q failed: %w", mode, req.GetCollectionName(), err)
	}
	return toPassages(points)
}

// toPassages decodes scored points in backend order. A point missing any of
// the required payload fields fails the whole conversion.
func toPassages(points []*qdrant.ScoredPoint) ([]Passage, error) {
	passages := make([]Passage, 0, len(points))
	for i, p := range points {
		payload := p.GetPayload()
		var fields [3]string
		for j, key := range payloadFields {
			v, ok := payload[key]
			if !ok {
				return nil, fmt.Errorf("%w: point %d (id %s) has no %q field",
					ErrMalformedPayload, i, pointID(p.GetId()), key)
			}
			text, ok := renderScalar(v)
			if !ok {
				return nil, fmt.Errorf("%w: point %d (id %s) has non-scalar %q field",
					ErrMalformedPayload, i, pointID(p.GetId()), key)
			}
			fields[j] = text
		}
		passages = append(passages, Passage{
			Course:  fields[0],
			Section: fields[1],
			Text:    fields[2],
			Score:   p.GetScore(),
		})
	}
	return passages, nil
}

// payloadFields lists the required payload keys in Passage field order.
var payloadFields = [3]string{"course", "section", "text"}

// renderScalar formats a string, integer, double or bool payload value as
// text. Booleans render as True/False and whole doubles keep a ".0" suffix.
// Lists, structs and nulls are rejected.
func renderScalar(v *qdrant.Value) (string, bool) {
	switch k := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return k.StringValue, true
	case *qdrant.Value_IntegerValue:
		return strconv.FormatInt(k.IntegerValue, 10), true
	case *qdrant.Value_DoubleValue:
		return formatDouble(k.DoubleValue), true
	case *qdrant.Value_BoolValue:
		if k.BoolValue {
			return "True", true
		}
		return "False", true
	default:
		return "", false
	}
}

func formatDouble(d float64) string {
	switch {
	case math.IsNaN(d):
		return "nan"
	case math.IsInf(d, 1):
		return "inf"
	case math.IsInf(d, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(d, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func pointID(id *qdrant.PointId) string {
	if id == nil {
		return "<none>"
	}
	if u := id.GetUuid(); u != "" {
		return u
	}
	return fmt.Sprintf("%d", id.GetNum())
}
