package answer

import (
	"os"
	"strconv"

	"github.com/54b3r/faqrag-go/internal/budget"
)

// Config holds the per-call generation parameters.
type Config struct {
	// MaxTokens caps the completion length (default: 1024).
	MaxTokens int

	// Temperature is the sampling temperature (default: 1).
	Temperature float32

	// TopP is the nucleus sampling mass (default: 1).
	TopP float32

	// MaxContextTokens is the estimated prompt size above which a warning is
	// logged. The prompt is sent regardless.
	MaxContextTokens int
}

// DefaultConfig returns the generation parameters used when nothing is set.
func DefaultConfig() Config {
	return Config{
		MaxTokens:        1024,
		Temperature:      1,
		TopP:             1,
		MaxContextTokens: budget.DefaultMaxContextTokens,
	}
}

// ConfigFromEnv reads MODEL_MAX_TOKENS, MODEL_TEMPERATURE, MODEL_TOP_P and
// MODEL_MAX_CONTEXT_TOKENS, falling back to DefaultConfig for unset or
// unparseable values.
func ConfigFromEnv() Config {
	def := DefaultConfig()
	return Config{
		MaxTokens:        getEnvInt("MODEL_MAX_TOKENS", def.MaxTokens),
		Temperature:      getEnvFloat32("MODEL_TEMPERATURE", def.Temperature),
		TopP:             getEnvFloat32("MODEL_TOP_P", def.TopP),
		MaxContextTokens: getEnvInt("MODEL_MAX_CONTEXT_TOKENS", def.MaxContextTokens),
	}
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat32(key string, fallback float32) float32 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			return float32(f)
		}
	}
	return fallback
}
