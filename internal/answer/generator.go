package answer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/54b3r/faqrag-go/internal/budget"
	"github.com/54b3r/faqrag-go/internal/logging"
)

// ErrEmptyCompletion is returned when the chat model reports success but
// yields no message.
var ErrEmptyCompletion = errors.New("answer: empty completion")

// Generator sends rendered prompts to a chat model. It holds no per-request
// state and is safe for concurrent use.
type Generator struct {
	// model is the shared chat model handle built by the provider package.
	model model.BaseChatModel

	// cfg holds the per-call generation options.
	cfg Config

	// handlers are eino callback handlers (e.g. Langfuse) attached to every call.
	handlers []callbacks.Handler

	// onPrompt, when set, receives the estimated prompt token count.
	onPrompt func(tokens int)
}

// Option customises a Generator.
type Option func(*Generator)

// WithCallbacks attaches eino callback handlers to every Generate call.
// Nil handlers are ignored.
func WithCallbacks(handlers ...callbacks.Handler) Option {
	return func(g *Generator) {
		for _, h := range handlers {
			if h != nil {
				g.handlers = append(g.handlers, h)
			}
		}
	}
}

// WithPromptObserver registers fn to receive the estimated prompt token count
// of every call before it is sent.
func WithPromptObserver(fn func(tokens int)) Option {
	return func(g *Generator) { g.onPrompt = fn }
}

// NewGenerator wraps m. Callers normally start from DefaultConfig or
// ConfigFromEnv; a zero MaxTokens or MaxContextTokens takes its default, while
// a zero Temperature or TopP is sent as given.
func NewGenerator(m model.BaseChatModel, cfg Config, opts ...Option) (*Generator, error) {
	if m == nil {
		return nil, fmt.Errorf("answer: chat model must not be nil")
	}
	def := DefaultConfig()
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.MaxContextTokens <= 0 {
		cfg.MaxContextTokens = def.MaxContextTokens
	}
	g := &Generator{model: m, cfg: cfg}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Generate renders the prompt for question and contextBlock, sends it as one
// user message with a single non-streaming call, and returns the completion
// text. Backend errors are returned wrapped; nothing is retried.
func (g *Generator) Generate(ctx context.Context, question, contextBlock string) (string, error) {
	log := logging.FromContext(ctx)

	msgs := []*schema.Message{schema.UserMessage(BuildPrompt(question, contextBlock))}

	tokens := budget.EstimateMessages(msgs)
	if g.onPrompt != nil {
		g.onPrompt(tokens)
	}
	if budget.Exceeds(tokens, g.cfg.MaxContextTokens) {
		log.Warn("prompt exceeds context budget",
			slog.Int("estimated_tokens", tokens),
			slog.Int("budget", g.cfg.MaxContextTokens),
		)
	} else {
		log.Debug("prompt built", slog.Int("estimated_tokens", tokens))
	}

	if len(g.handlers) > 0 {
		ctx = callbacks.InitCallbacks(ctx, &callbacks.RunInfo{
			Name:      "faq_answer",
			Component: components.ComponentOfChatModel,
		}, g.handlers...)
	}

	resp, err := g.model.Generate(ctx, msgs,
		model.WithTemperature(g.cfg.Temperature),
		model.WithTopP(g.cfg.TopP),
		model.WithMaxTokens(g.cfg.MaxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("answer: generate: %w", err)
	}
	if resp == nil {
		return "", ErrEmptyCompletion
	}
	return resp.Content, nil
}
