// Package config provides YAML-based configuration for faqrag.
// Configuration is loaded with a layered precedence: defaults → YAML file → env vars.
// Environment variables always win; each package still resolves its own typed
// settings from the environment (rag.ConfigFromEnv, provider.ConfigFromEnv,
// answer.ConfigFromEnv), so the YAML file is only a convenient way to set them.
//
// File search order:
//  1. --config CLI flag (explicit path)
//  2. FAQRAG_CONFIG environment variable
//  3. ~/.faqrag/config.yaml
//  4. ./faqrag.yaml
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level YAML configuration structure.
type Config struct {
	// Model configures the LLM chat model provider and sampling.
	Model ModelConfig `yaml:"model"`

	// Qdrant configures the vector store connection and collection layout.
	Qdrant QdrantConfig `yaml:"qdrant"`

	// Search configures retrieval.
	Search SearchConfig `yaml:"search"`

	// Server configures the HTTP server.
	Server ServerConfig `yaml:"server"`

	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging"`

	// Tracing configures Langfuse tracing integration.
	Tracing TracingConfig `yaml:"tracing"`
}

// ModelConfig holds LLM chat model settings.
type ModelConfig struct {
	// Provider selects the backend: groq, openai, ollama, gemini, ark.
	Provider string `yaml:"provider"`
	// MaxTokens caps the completion length.
	MaxTokens int `yaml:"max_tokens"`
	// Temperature is the sampling temperature. A pointer so an explicit 0
	// in the file is applied rather than read as unset.
	Temperature *float32 `yaml:"temperature"`
	// TopP is the nucleus sampling mass. A pointer for the same reason.
	TopP *float32 `yaml:"top_p"`

	Groq   EndpointConfig `yaml:"groq"`
	OpenAI EndpointConfig `yaml:"openai"`
	Ark    EndpointConfig `yaml:"ark"`
	Ollama OllamaConfig   `yaml:"ollama"`
	Gemini GeminiConfig   `yaml:"gemini"`
}

// EndpointConfig holds settings for an API-key based provider.
type EndpointConfig struct {
	// APIKey is the provider credential. Prefer the provider's env var.
	APIKey string `yaml:"api_key"`
	// Model is the model identifier.
	Model string `yaml:"model"`
	// BaseURL overrides the provider's default endpoint.
	BaseURL string `yaml:"base_url"`
}

// OllamaConfig holds Ollama provider settings.
type OllamaConfig struct {
	// Host is the Ollama API endpoint.
	Host string `yaml:"host"`
	// Model is the Ollama model name.
	Model string `yaml:"model"`
}

// GeminiConfig holds Google Gemini provider settings.
type GeminiConfig struct {
	// APIKey is the Google API key. Prefer env var GOOGLE_API_KEY.
	APIKey string `yaml:"api_key"`
	// Model is the Gemini model name.
	Model string `yaml:"model"`
}

// QdrantConfig holds Qdrant vector store settings.
type QdrantConfig struct {
	Host string `yaml:"host"`
	// Port is the Qdrant gRPC port.
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"`
	TLS    bool   `yaml:"tls"`

	// Collections names the three pre-built FAQ collections.
	Collections struct {
		Semantic string `yaml:"semantic"`
		Sparse   string `yaml:"sparse"`
		Hybrid   string `yaml:"hybrid"`
	} `yaml:"collections"`

	// Models names the inference models Qdrant applies to query text.
	Models struct {
		Dense  string `yaml:"dense"`
		Sparse string `yaml:"sparse"`
	} `yaml:"models"`

	// Vectors names the vector fields inside the collections.
	Vectors struct {
		Sparse       string `yaml:"sparse"`
		HybridDense  string `yaml:"hybrid_dense"`
		HybridSparse string `yaml:"hybrid_sparse"`
	} `yaml:"vectors"`
}

// SearchConfig holds retrieval settings.
type SearchConfig struct {
	// Limit is the number of passages requested per query.
	Limit int `yaml:"limit"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// IndexFile is the landing page served at GET /.
	IndexFile string `yaml:"index_file"`
	// CORSOrigins lists allowed origins; empty allows any.
	CORSOrigins []string `yaml:"cors_origins"`
	// RateLimit is requests/second per IP on /search; 0 disables.
	RateLimit float64 `yaml:"rate_limit"`
	// RateBurst is the per-IP burst.
	RateBurst int `yaml:"rate_burst"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is the log output format: json, text.
	Format string `yaml:"format"`
}

// TracingConfig holds Langfuse tracing settings.
type TracingConfig struct {
	PublicKey string `yaml:"public_key"`
	SecretKey string `yaml:"secret_key"`
	Host      string `yaml:"host"`
}

// envMapping maps YAML config fields to their corresponding env var names.
// Only non-empty YAML values are applied; env vars always take precedence.
var envMapping = []struct {
	envKey string
	value  func(*Config) string
}{
	{"MODEL_PROVIDER", func(c *Config) string { return c.Model.Provider }},
	{"MODEL_MAX_TOKENS", func(c *Config) string { return intStr(c.Model.MaxTokens) }},
	{"MODEL_TEMPERATURE", func(c *Config) string { return float32PtrStr(c.Model.Temperature) }},
	{"MODEL_TOP_P", func(c *Config) string { return float32PtrStr(c.Model.TopP) }},
	{"GROQ_API_KEY", func(c *Config) string { return c.Model.Groq.APIKey }},
	{"GROQ_MODEL", func(c *Config) string { return c.Model.Groq.Model }},
	{"GROQ_BASE_URL", func(c *Config) string { return c.Model.Groq.BaseURL }},
	{"OPENAI_API_KEY", func(c *Config) string { return c.Model.OpenAI.APIKey }},
	{"OPENAI_MODEL", func(c *Config) string { return c.Model.OpenAI.Model }},
	{"OPENAI_BASE_URL", func(c *Config) string { return c.Model.OpenAI.BaseURL }},
	{"ARK_API_KEY", func(c *Config) string { return c.Model.Ark.APIKey }},
	{"ARK_MODEL", func(c *Config) string { return c.Model.Ark.Model }},
	{"ARK_BASE_URL", func(c *Config) string { return c.Model.Ark.BaseURL }},
	{"OLLAMA_HOST", func(c *Config) string { return c.Model.Ollama.Host }},
	{"OLLAMA_MODEL", func(c *Config) string { return c.Model.Ollama.Model }},
	{"GOOGLE_API_KEY", func(c *Config) string { return c.Model.Gemini.APIKey }},
	{"GEMINI_MODEL", func(c *Config) string { return c.Model.Gemini.Model }},
	{"QDRANT_HOST", func(c *Config) string { return c.Qdrant.Host }},
	{"QDRANT_PORT", func(c *Config) string { return intStr(c.Qdrant.Port) }},
	{"QDRANT_API_KEY", func(c *Config) string { return c.Qdrant.APIKey }},
	{"QDRANT_TLS", func(c *Config) string { return boolStr(c.Qdrant.TLS) }},
	{"FAQ_SEMANTIC_COLLECTION", func(c *Config) string { return c.Qdrant.Collections.Semantic }},
	{"FAQ_SPARSE_COLLECTION", func(c *Config) string { return c.Qdrant.Collections.Sparse }},
	{"FAQ_HYBRID_COLLECTION", func(c *Config) string { return c.Qdrant.Collections.Hybrid }},
	{"EMBEDDING_MODEL", func(c *Config) string { return c.Qdrant.Models.Dense }},
	{"SPARSE_MODEL", func(c *Config) string { return c.Qdrant.Models.Sparse }},
	{"SPARSE_VECTOR_NAME", func(c *Config) string { return c.Qdrant.Vectors.Sparse }},
	{"HYBRID_DENSE_VECTOR_NAME", func(c *Config) string { return c.Qdrant.Vectors.HybridDense }},
	{"HYBRID_SPARSE_VECTOR_NAME", func(c *Config) string { return c.Qdrant.Vectors.HybridSparse }},
	{"SEARCH_LIMIT", func(c *Config) string { return intStr(c.Search.Limit) }},
	{"FAQRAG_HOST", func(c *Config) string { return c.Server.Host }},
	{"FAQRAG_PORT", func(c *Config) string { return intStr(c.Server.Port) }},
	{"FAQRAG_INDEX_FILE", func(c *Config) string { return c.Server.IndexFile }},
	{"FAQRAG_CORS_ORIGINS", func(c *Config) string { return strings.Join(c.Server.CORSOrigins, ",") }},
	{"FAQRAG_RATE_LIMIT", func(c *Config) string { return float64Str(c.Server.RateLimit) }},
	{"FAQRAG_RATE_BURST", func(c *Config) string { return intStr(c.Server.RateBurst) }},
	{"LOG_LEVEL", func(c *Config) string { return c.Logging.Level }},
	{"LOG_FORMAT", func(c *Config) string { return c.Logging.Format }},
	{"LANGFUSE_PUBLIC_KEY", func(c *Config) string { return c.Tracing.PublicKey }},
	{"LANGFUSE_SECRET_KEY", func(c *Config) string { return c.Tracing.SecretKey }},
	{"LANGFUSE_HOST", func(c *Config) string { return c.Tracing.Host }},
}

// Load reads a YAML config file and applies non-empty values as environment
// variables. Existing env vars are never overwritten (env always wins).
// Returns the path that was loaded, or empty string if no file was found.
func Load(explicitPath string, log *slog.Logger) (string, error) {
	path := resolveConfigPath(explicitPath)
	if path == "" {
		log.Debug("config: no YAML config file found, using env vars only")
		return "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return "", fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	applied := 0
	for _, m := range envMapping {
		yamlVal := m.value(&cfg)
		if yamlVal == "" {
			continue
		}
		if os.Getenv(m.envKey) != "" {
			continue
		}
		if err := os.Setenv(m.envKey, yamlVal); err != nil {
			return "", fmt.Errorf("config: failed to set %s: %w", m.envKey, err)
		}
		applied++
	}

	log.Info("config: loaded YAML config",
		slog.String("path", path),
		slog.Int("keys_applied", applied),
	)

	return path, nil
}

// resolveConfigPath returns the first config file path that exists. An
// explicit path that does not exist yields "" rather than falling through.
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}

	if envPath := os.Getenv("FAQRAG_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		p := filepath.Join(home, ".faqrag", "config.yaml")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if _, err := os.Stat("faqrag.yaml"); err == nil {
		return "faqrag.yaml"
	}

	return ""
}

// intStr converts an int to string, returning "" for zero values.
func intStr(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

// float32Str converts a float32 to string, returning "" for zero values.
func float32Str(v float32) string {
	if v == 0 {
		return ""
	}
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", v), "0"), ".")
}

// float32PtrStr renders a set float32, including zero, and returns "" for nil.
func float32PtrStr(v *float32) string {
	if v == nil {
		return ""
	}
	if *v == 0 {
		return "0"
	}
	return float32Str(*v)
}

// float64Str is float32Str for float64 values.
func float64Str(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// boolStr converts a bool to string, returning "" for false.
func boolStr(v bool) string {
	if !v {
		return ""
	}
	return "true"
}
