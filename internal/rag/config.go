package rag

import (
	"os"
	"strconv"
	"strings"
)

const (
	defaultQdrantHost = "localhost"
	defaultQdrantPort = 6334
)

// QdrantConfig holds connection parameters and the collection layout the
// searcher expects. The three collections are built offline; this package
// never creates or mutates them.
type QdrantConfig struct {
	// Host is the Qdrant server hostname (default: localhost).
	Host string

	// Port is the Qdrant gRPC port (default: 6334).
	Port int

	// APIKey is the optional Qdrant API key for authenticated clusters.
	APIKey string

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool

	// SemanticCollection holds unnamed dense vectors (default: course_faq).
	SemanticCollection string

	// SparseCollection holds a named BM25 sparse vector (default: course_faq_sparse).
	SparseCollection string

	// HybridCollection holds both named vectors (default: course_faq_hybrid).
	HybridCollection string

	// DenseModel is the embedding model Qdrant runs on query text.
	DenseModel string

	// SparseModel is the sparse encoder Qdrant runs on query text.
	SparseModel string

	// SparseVectorName is the sparse vector name in SparseCollection.
	SparseVectorName string

	// HybridDenseVectorName is the dense vector name in HybridCollection.
	HybridDenseVectorName string

	// HybridSparseVectorName is the sparse vector name in HybridCollection.
	HybridSparseVectorName string
}

// ConfigFromEnv resolves a QdrantConfig from environment variables.
//
//	QDRANT_HOST (default: localhost), QDRANT_PORT (default: 6334),
//	QDRANT_API_KEY, QDRANT_TLS (true/false)
//	FAQ_SEMANTIC_COLLECTION, FAQ_SPARSE_COLLECTION, FAQ_HYBRID_COLLECTION
//	EMBEDDING_MODEL (default: BAAI/bge-small-en), SPARSE_MODEL (default: Qdrant/bm25)
//	SPARSE_VECTOR_NAME, HYBRID_DENSE_VECTOR_NAME, HYBRID_SPARSE_VECTOR_NAME
func ConfigFromEnv() QdrantConfig {
	cfg := QdrantConfig{
		Host:                   getEnvOrDefault("QDRANT_HOST", defaultQdrantHost),
		Port:                   getEnvInt("QDRANT_PORT", defaultQdrantPort),
		APIKey:                 os.Getenv("QDRANT_API_KEY"),
		UseTLS:                 strings.EqualFold(os.Getenv("QDRANT_TLS"), "true"),
		SemanticCollection:     os.Getenv("FAQ_SEMANTIC_COLLECTION"),
		SparseCollection:       os.Getenv("FAQ_SPARSE_COLLECTION"),
		HybridCollection:       os.Getenv("FAQ_HYBRID_COLLECTION"),
		DenseModel:             os.Getenv("EMBEDDING_MODEL"),
		SparseModel:            os.Getenv("SPARSE_MODEL"),
		SparseVectorName:       os.Getenv("SPARSE_VECTOR_NAME"),
		HybridDenseVectorName:  os.Getenv("HYBRID_DENSE_VECTOR_NAME"),
		HybridSparseVectorName: os.Getenv("HYBRID_SPARSE_VECTOR_NAME"),
	}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills every empty field with the layout the index builder
// produces.
func (c *QdrantConfig) applyDefaults() {
	setDefault(&c.Host, defaultQdrantHost)
	if c.Port == 0 {
		c.Port = defaultQdrantPort
	}
	setDefault(&c.SemanticCollection, "course_faq")
	setDefault(&c.SparseCollection, "course_faq_sparse")
	setDefault(&c.HybridCollection, "course_faq_hybrid")
	setDefault(&c.DenseModel, "BAAI/bge-small-en")
	setDefault(&c.SparseModel, "Qdrant/bm25")
	setDefault(&c.SparseVectorName, "bm25")
	setDefault(&c.HybridDenseVectorName, "bge_small")
	setDefault(&c.HybridSparseVectorName, "bm25")
}

func setDefault(field *string, fallback string) {
	if *field == "" {
		*field = fallback
	}
}

// getEnvOrDefault returns the value of the named environment variable, or
// fallback if the variable is unset or empty.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the integer value of the named environment variable, or
// fallback if the variable is unset, empty, or not parseable.
func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
