package provider

import (
	"context"
	"fmt"

	einoark "github.com/cloudwego/eino-ext/components/model/ark"
	einogemini "github.com/cloudwego/eino-ext/components/model/gemini"
	einoollama "github.com/cloudwego/eino-ext/components/model/ollama"
	einoopenai "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	ollamaapi "github.com/eino-contrib/ollama/api"
	"google.golang.org/genai"
)

// Sampling parameters (temperature, top_p, max tokens) are passed per call by
// the answer generator. The one exception is Ollama's max tokens: its chat
// model drops the per-call value, so newOllama sets num_predict instead.

// newGroq constructs a chat model against Groq's OpenAI-compatible endpoint.
func newGroq(ctx context.Context, cfg *Config) (model.BaseChatModel, error) {
	baseURL := cfg.Groq.BaseURL
	if baseURL == "" {
		baseURL = defaultGroqBaseURL
	}
	m, err := einoopenai.NewChatModel(ctx, &einoopenai.ChatModelConfig{
		APIKey:  cfg.Groq.APIKey,
		BaseURL: baseURL,
		Model:   cfg.Groq.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("provider: groq: %w", err)
	}
	return m, nil
}

// newOpenAI constructs a chat model backed by the OpenAI API.
func newOpenAI(ctx context.Context, cfg *Config) (model.BaseChatModel, error) {
	m, err := einoopenai.NewChatModel(ctx, &einoopenai.ChatModelConfig{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("provider: openai: %w", err)
	}
	return m, nil
}

// newOllama constructs a chat model backed by a local Ollama instance.
func newOllama(ctx context.Context, cfg *Config) (model.BaseChatModel, error) {
	m, err := einoollama.NewChatModel(ctx, ollamaChatModelConfig(cfg.Ollama))
	if err != nil {
		return nil, fmt.Errorf("provider: ollama: %w", err)
	}
	return m, nil
}

// ollamaChatModelConfig maps ProviderOllama onto the eino-ext config.
func ollamaChatModelConfig(p ProviderOllama) *einoollama.ChatModelConfig {
	c := &einoollama.ChatModelConfig{
		BaseURL: p.Host,
		Model:   p.Model,
	}
	if p.NumPredict > 0 {
		c.Options = &ollamaapi.Options{NumPredict: p.NumPredict}
	}
	return c
}

// newGemini constructs a chat model backed by Google Gemini (AI Studio).
func newGemini(ctx context.Context, cfg *Config) (model.BaseChatModel, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.Gemini.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("provider: failed to create Gemini client: %w", err)
	}
	m, err := einogemini.NewChatModel(ctx, &einogemini.Config{
		Client: client,
		Model:  cfg.Gemini.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("provider: gemini: %w", err)
	}
	return m, nil
}

// newArk constructs a chat model backed by the Volcengine Ark runtime.
func newArk(ctx context.Context, cfg *Config) (model.BaseChatModel, error) {
	m, err := einoark.NewChatModel(ctx, &einoark.ChatModelConfig{
		APIKey:  cfg.Ark.APIKey,
		BaseURL: cfg.Ark.BaseURL,
		Model:   cfg.Ark.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("provider: ark: %w", err)
	}
	return m, nil
}
