// Package provider selects and constructs the chat model backend that answers
// FAQ questions. Every backend is an eino chat model; the answer generator
// only depends on model.BaseChatModel and never sees which one is in use.
// Supported backends: Groq (default), OpenAI, Ollama, Google Gemini, Volcengine Ark.
package provider

import (
	"fmt"
)

// Backend enumerates the supported LLM inference providers.
type Backend string

const (
	// BackendGroq selects Groq's OpenAI-compatible API.
	BackendGroq Backend = "groq"
	// BackendOpenAI selects the OpenAI API or any compatible endpoint.
	BackendOpenAI Backend = "openai"
	// BackendOllama selects a locally running Ollama instance.
	BackendOllama Backend = "ollama"
	// BackendGemini selects Google Gemini via AI Studio.
	BackendGemini Backend = "gemini"
	// BackendArk selects the Volcengine Ark model runtime.
	BackendArk Backend = "ark"
)

// ProviderGroq holds Groq settings.
type ProviderGroq struct {
	// APIKey is read from GROQ_API_KEY.
	APIKey string
	// Model is the Groq model ID (default: llama-3.3-70b-versatile).
	Model string
	// BaseURL is the OpenAI-compatible endpoint (default: https://api.groq.com/openai/v1).
	BaseURL string
}

// ProviderOpenAI holds OpenAI settings.
type ProviderOpenAI struct {
	APIKey string
	Model  string
	// BaseURL overrides the default api.openai.com endpoint. Optional.
	BaseURL string
}

// ProviderOllama holds Ollama settings.
type ProviderOllama struct {
	// Host is the Ollama server URL (default: http://localhost:11434).
	Host  string
	Model string
	// NumPredict caps generated tokens. Ollama ignores the per-call
	// max-tokens option, so the cap is set on the model itself. Read from
	// MODEL_MAX_TOKENS (default: 1024); zero leaves Ollama's own default.
	NumPredict int
}

// ProviderGemini holds Google Gemini settings.
type ProviderGemini struct {
	APIKey string
	Model  string
}

// ProviderArk holds Volcengine Ark settings.
type ProviderArk struct {
	APIKey string
	// Model is the Ark endpoint ID or model name.
	Model string
	// BaseURL overrides the default regional endpoint. Optional.
	BaseURL string
}

// Config holds the provider selection and the per-backend settings resolved
// from environment variables or supplied by the caller. Only the block
// matching Backend is used.
type Config struct {
	// Backend identifies which inference provider to use.
	Backend Backend

	Groq   ProviderGroq
	OpenAI ProviderOpenAI
	Ollama ProviderOllama
	Gemini ProviderGemini
	Ark    ProviderArk
}

// Validate checks that the selected backend has every required field set.
// Errors name the environment variable to fix.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendGroq:
		return require(c.Backend, "GROQ_API_KEY", c.Groq.APIKey, "GROQ_MODEL", c.Groq.Model)
	case BackendOpenAI:
		return require(c.Backend, "OPENAI_API_KEY", c.OpenAI.APIKey, "OPENAI_MODEL", c.OpenAI.Model)
	case BackendOllama:
		return require(c.Backend, "OLLAMA_HOST", c.Ollama.Host, "OLLAMA_MODEL", c.Ollama.Model)
	case BackendGemini:
		return require(c.Backend, "GOOGLE_API_KEY", c.Gemini.APIKey, "GEMINI_MODEL", c.Gemini.Model)
	case BackendArk:
		return require(c.Backend, "ARK_API_KEY", c.Ark.APIKey, "ARK_MODEL", c.Ark.Model)
	default:
		return fmt.Errorf("provider: unknown backend %q (valid: groq, openai, ollama, gemini, ark)", c.Backend)
	}
}

// ModelName returns the model identifier of the selected backend.
func (c *Config) ModelName() string {
	switch c.Backend {
	case BackendGroq:
		return c.Groq.Model
	case BackendOpenAI:
		return c.OpenAI.Model
	case BackendOllama:
		return c.Ollama.Model
	case BackendGemini:
		return c.Gemini.Model
	case BackendArk:
		return c.Ark.Model
	default:
		return ""
	}
}

// require takes alternating env-var names and values and reports the first
// empty value.
func require(b Backend, pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			return fmt.Errorf("provider: %s is required for %s backend", pairs[i], b)
		}
	}
	return nil
}
