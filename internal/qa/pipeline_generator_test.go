package qa

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/54b3r/faqrag-go/internal/answer"
	"github.com/54b3r/faqrag-go/internal/rag"
)

// capturingChatModel records the messages of each Generate call.
type capturingChatModel struct {
	reply string
	err   error
	msgs  [][]*schema.Message
}

func (c *capturingChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	c.msgs = append(c.msgs, input)
	if c.err != nil {
		return nil, c.err
	}
	return schema.AssistantMessage(c.reply, nil), nil
}

func (c *capturingChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported")
}

func TestAnswer_PromptReachesChatModel(t *testing.T) {
	t.Parallel()
	cm := &capturingChatModel{reply: "The course starts on January 15."}
	gen, err := answer.NewGenerator(cm, answer.DefaultConfig())
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	p := &Pipeline{
		Searcher: &fakeSearcher{passages: []rag.Passage{
			{Course: "X", Section: "Intro", Text: "The course starts Jan 15."},
		}},
		Generator: gen,
	}

	got, err := p.Answer(context.Background(), Request{
		Question:   "When does the course start?",
		SearchType: "semantic",
	})
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if got != "The course starts on January 15." {
		t.Errorf("answer = %q", got)
	}

	if len(cm.msgs) != 1 || len(cm.msgs[0]) != 1 {
		t.Fatalf("chat model calls = %d, want one call with one message", len(cm.msgs))
	}
	msg := cm.msgs[0][0]
	if msg.Role != schema.User {
		t.Errorf("role = %q, want user", msg.Role)
	}
	for _, want := range []string{
		"Course: X",
		"Section: Intro",
		"Text: The course starts Jan 15.",
		"QUESTION:\nWhen does the course start?",
	} {
		if !strings.Contains(msg.Content, want) {
			t.Errorf("prompt missing %q:\n%s", want, msg.Content)
		}
	}
}

func TestAnswer_ChatModelErrorPropagates(t *testing.T) {
	t.Parallel()
	boom := errors.New("groq: 503")
	gen, err := answer.NewGenerator(&capturingChatModel{err: boom}, answer.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	p := &Pipeline{Searcher: &fakeSearcher{}, Generator: gen}

	if _, err := p.Answer(context.Background(), Request{Question: "q", SearchType: "hybrid"}); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
}
