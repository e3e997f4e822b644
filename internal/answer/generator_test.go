package answer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// fakeChatModel captures the messages and options of each call.
type fakeChatModel struct {
	resp     *schema.Message
	err      error
	calls    int
	streamed int
	msgs     []*schema.Message
	opts     *model.Options
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.calls++
	f.msgs = input
	f.opts = model.GetCommonOptions(&model.Options{}, opts...)
	return f.resp, f.err
}

func (f *fakeChatModel) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	f.streamed++
	return nil, errors.New("stream not supported by fake")
}

func newTestGenerator(t *testing.T, m *fakeChatModel, opts ...Option) *Generator {
	t.Helper()
	g, err := NewGenerator(m, DefaultConfig(), opts...)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	return g
}

// ---------------------------------------------------------------------------
// Generate
// ---------------------------------------------------------------------------

func TestGenerate_SingleUserMessage(t *testing.T) {
	t.Parallel()
	m := &fakeChatModel{resp: schema.AssistantMessage("Jan 15.", nil)}
	g := newTestGenerator(t, m)

	got, err := g.Generate(context.Background(), "When?", "Course: X\n")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "Jan 15." {
		t.Errorf("answer = %q, want %q", got, "Jan 15.")
	}
	if m.calls != 1 || m.streamed != 0 {
		t.Errorf("calls = %d streamed = %d, want 1/0", m.calls, m.streamed)
	}
	if len(m.msgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(m.msgs))
	}
	if m.msgs[0].Role != schema.User {
		t.Errorf("role = %q, want user", m.msgs[0].Role)
	}
	if m.msgs[0].Content != BuildPrompt("When?", "Course: X\n") {
		t.Errorf("content is not the rendered prompt: %q", m.msgs[0].Content)
	}
}

func TestGenerate_SamplingOptions(t *testing.T) {
	t.Parallel()
	m := &fakeChatModel{resp: schema.AssistantMessage("ok", nil)}
	g := newTestGenerator(t, m)

	if _, err := g.Generate(context.Background(), "q", ""); err != nil {
		t.Fatal(err)
	}
	o := m.opts
	if o.Temperature == nil || *o.Temperature != 1 {
		t.Errorf("temperature = %v, want 1", o.Temperature)
	}
	if o.TopP == nil || *o.TopP != 1 {
		t.Errorf("top_p = %v, want 1", o.TopP)
	}
	if o.MaxTokens == nil || *o.MaxTokens != 1024 {
		t.Errorf("max_tokens = %v, want 1024", o.MaxTokens)
	}
}

func TestGenerate_EmptyContextStillCallsModel(t *testing.T) {
	t.Parallel()
	m := &fakeChatModel{resp: schema.AssistantMessage(RefusalMessage, nil)}
	g := newTestGenerator(t, m)

	got, err := g.Generate(context.Background(), "What is the weather on Mars?", "")
	if err != nil {
		t.Fatal(err)
	}
	if got != RefusalMessage {
		t.Errorf("answer = %q", got)
	}
	if !strings.Contains(m.msgs[0].Content, "CONTEXT:\n\n\nQUESTION:") {
		t.Errorf("empty context block not rendered as expected: %q", m.msgs[0].Content)
	}
}

func TestGenerate_BackendError(t *testing.T) {
	t.Parallel()
	boom := errors.New("429 rate limited")
	g := newTestGenerator(t, &fakeChatModel{err: boom})

	if _, err := g.Generate(context.Background(), "q", "c"); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
}

func TestGenerate_NilCompletion(t *testing.T) {
	t.Parallel()
	g := newTestGenerator(t, &fakeChatModel{})

	if _, err := g.Generate(context.Background(), "q", "c"); !errors.Is(err, ErrEmptyCompletion) {
		t.Fatalf("err = %v, want ErrEmptyCompletion", err)
	}
}

func TestGenerate_PromptObserver(t *testing.T) {
	t.Parallel()
	var seen int
	m := &fakeChatModel{resp: schema.AssistantMessage("ok", nil)}
	g := newTestGenerator(t, m, WithPromptObserver(func(n int) { seen = n }))

	if _, err := g.Generate(context.Background(), "q", strings.Repeat("x", 400)); err != nil {
		t.Fatal(err)
	}
	// 400 context chars alone are 100 tokens.
	if seen <= 100 {
		t.Errorf("observed tokens = %d, want > 100", seen)
	}
}

func TestNewGenerator_Defaults(t *testing.T) {
	t.Parallel()
	if _, err := NewGenerator(nil, DefaultConfig()); err == nil {
		t.Fatal("expected error for nil model")
	}

	m := &fakeChatModel{resp: schema.AssistantMessage("ok", nil)}
	g, err := NewGenerator(m, Config{Temperature: 0.5, TopP: 0.9}, WithCallbacks(nil))
	if err != nil {
		t.Fatal(err)
	}
	if len(g.handlers) != 0 {
		t.Errorf("nil handler was kept")
	}
	if _, err := g.Generate(context.Background(), "q", "c"); err != nil {
		t.Fatal(err)
	}
	if *m.opts.MaxTokens != 1024 || *m.opts.Temperature != 0.5 || *m.opts.TopP != 0.9 {
		t.Errorf("options = %d/%v/%v", *m.opts.MaxTokens, *m.opts.Temperature, *m.opts.TopP)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("MODEL_MAX_TOKENS", "256")
	t.Setenv("MODEL_TEMPERATURE", "0.3")
	t.Setenv("MODEL_TOP_P", "not-a-number")
	t.Setenv("MODEL_MAX_CONTEXT_TOKENS", "")

	cfg := ConfigFromEnv()
	if cfg.MaxTokens != 256 || cfg.Temperature != 0.3 || cfg.TopP != 1 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.MaxContextTokens != DefaultConfig().MaxContextTokens {
		t.Errorf("MaxContextTokens = %d", cfg.MaxContextTokens)
	}
}
