package provider

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/cloudwego/eino/components/model"
)

const (
	defaultGroqBaseURL = "https://api.groq.com/openai/v1"
	defaultGroqModel   = "llama-3.3-70b-versatile"
	defaultOllamaHost  = "http://localhost:11434"
	defaultMaxTokens   = 1024
)

// ConfigFromEnv resolves a Config from environment variables.
// MODEL_PROVIDER selects the backend; each provider reads its own native
// credential variables.
//
//	MODEL_PROVIDER = groq | openai | ollama | gemini | ark (default: groq)
//
//	Groq:   GROQ_API_KEY, GROQ_MODEL (default: llama-3.3-70b-versatile),
//	        GROQ_BASE_URL (default: https://api.groq.com/openai/v1)
//	OpenAI: OPENAI_API_KEY, OPENAI_MODEL (default: gpt-4o-mini), OPENAI_BASE_URL
//	Ollama: OLLAMA_HOST (default: http://localhost:11434), OLLAMA_MODEL (default: llama3),
//	        MODEL_MAX_TOKENS (default: 1024) as num_predict
//	Gemini: GOOGLE_API_KEY, GEMINI_MODEL (default: gemini-1.5-pro)
//	Ark:    ARK_API_KEY, ARK_MODEL, ARK_BASE_URL
func ConfigFromEnv() *Config {
	return &Config{
		Backend: Backend(getEnvOrDefault("MODEL_PROVIDER", string(BackendGroq))),
		Groq: ProviderGroq{
			APIKey:  os.Getenv("GROQ_API_KEY"),
			Model:   getEnvOrDefault("GROQ_MODEL", defaultGroqModel),
			BaseURL: getEnvOrDefault("GROQ_BASE_URL", defaultGroqBaseURL),
		},
		OpenAI: ProviderOpenAI{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			Model:   getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
		},
		Ollama: ProviderOllama{
			Host:       getEnvOrDefault("OLLAMA_HOST", defaultOllamaHost),
			Model:      getEnvOrDefault("OLLAMA_MODEL", "llama3"),
			NumPredict: getEnvInt("MODEL_MAX_TOKENS", defaultMaxTokens),
		},
		Gemini: ProviderGemini{
			APIKey: os.Getenv("GOOGLE_API_KEY"),
			Model:  getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-pro"),
		},
		Ark: ProviderArk{
			APIKey:  os.Getenv("ARK_API_KEY"),
			Model:   os.Getenv("ARK_MODEL"),
			BaseURL: os.Getenv("ARK_BASE_URL"),
		},
	}
}

// NewFromEnv is ConfigFromEnv followed by New. The resolved Config is
// returned so callers can build a matching health check.
func NewFromEnv(ctx context.Context) (model.BaseChatModel, *Config, error) {
	cfg := ConfigFromEnv()
	m, err := New(ctx, cfg)
	if err != nil {
		return nil, cfg, err
	}
	return m, cfg, nil
}

// New constructs a chat model from an explicit Config. It validates the
// config first so callers get a clear error at startup rather than on the
// first request.
func New(ctx context.Context, cfg *Config) (model.BaseChatModel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case BackendGroq:
		return newGroq(ctx, cfg)
	case BackendOpenAI:
		return newOpenAI(ctx, cfg)
	case BackendOllama:
		return newOllama(ctx, cfg)
	case BackendGemini:
		return newGemini(ctx, cfg)
	case BackendArk:
		return newArk(ctx, cfg)
	default:
		return nil, fmt.Errorf("provider: unknown backend %q", cfg.Backend)
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

// getEnvInt returns the named environment variable as an int, or fallback if
// it is unset or not a positive integer.
func getEnvInt(key string, fallback int) int {
	if i, err := strconv.Atoi(os.Getenv(key)); err == nil && i > 0 {
		return i
	}
	return fallback
}
