package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/54b3r/faqrag-go/internal/answer"
	"github.com/54b3r/faqrag-go/internal/qa"
	"github.com/54b3r/faqrag-go/internal/rag"
)

// staticSearcher returns the same passages for every mode.
type staticSearcher struct{ passages []rag.Passage }

func (s staticSearcher) SemanticSearch(context.Context, string, int) ([]rag.Passage, error) {
	return s.passages, nil
}

func (s staticSearcher) SparseSearch(context.Context, string, int) ([]rag.Passage, error) {
	return s.passages, nil
}

func (s staticSearcher) HybridSearch(context.Context, string, int) ([]rag.Passage, error) {
	return s.passages, nil
}

// failingChatModel fails every completion.
type failingChatModel struct{ err error }

func (f failingChatModel) Generate(context.Context, []*schema.Message, ...model.Option) (*schema.Message, error) {
	return nil, f.err
}

func (f failingChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, f.err
}

func TestHandleSearch_ChatModelFailureIsPlain500(t *testing.T) {
	t.Parallel()
	gen, err := answer.NewGenerator(failingChatModel{err: errors.New("upstream 503: rate limited")}, answer.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	p := &qa.Pipeline{
		Searcher: staticSearcher{passages: []rag.Passage{
			{Course: "X", Section: "Intro", Text: "The course starts Jan 15."},
		}},
		Generator: gen,
	}
	s, _ := newTestServer(t, p)

	w := postSearch(t, s.Handler(), `{"question":"When does the course start?","search_type":"semantic"}`)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q, want text/plain", ct)
	}
	if strings.Contains(w.Body.String(), "rate limited") {
		t.Errorf("backend error leaked to client: %q", w.Body.String())
	}
}
