package service

import (
	"context"
	"errors"
	"testing"

	"github.com/movelearn/tutor/pkg/llm"
	"github.com/movelearn/tutor/pkg/types"
)

type recordingLLM struct {
	req *llm.ChatRequest
	err error
}

func (r *recordingLLM) Chat(_ context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	r.req = req
	if r.err != nil {
		return nil, r.err
	}
	return &llm.ChatResponse{Content: "answer", Usage: types.Usage{TotalTokens: 7}}, nil
}

func TestAskSendsSystemPrompt(t *testing.T) {
	rec := &recordingLLM{}
	svc := NewAssistantService(rec, nil)

	ans, err := svc.Ask(context.Background(), "  hint please ")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if ans.Content != "answer" || ans.TokenUsed != 7 {
		t.Fatalf("unexpected answer: %+v", ans)
	}
	msgs := rec.req.Messages
	if len(msgs) != 2 || msgs[0].Role != types.RoleSystem || msgs[0].Content != SystemPrompt {
		t.Fatalf("system prompt missing: %+v", msgs)
	}
	if msgs[1].Role != types.RoleUser || msgs[1].Content != "hint please" {
		t.Fatalf("unexpected user message: %+v", msgs[1])
	}
}

func TestAnalyzeErrorQuotesOnce(t *testing.T) {
	rec := &recordingLLM{}
	svc := NewAssistantService(rec, nil)

	if _, err := svc.AnalyzeError(context.Background(), "q", "E01"); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if got := rec.req.Messages[1].Content; got != "q"+errorFollowUp+"E01" {
		t.Fatalf("unexpected question: %q", got)
	}

	if _, err := svc.AnalyzeError(context.Background(), "q with E01", "E01"); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if got := rec.req.Messages[1].Content; got != "q with E01" {
		t.Fatalf("error quoted twice: %q", got)
	}
}

func TestEmptyQuestion(t *testing.T) {
	svc := NewAssistantService(&recordingLLM{}, nil)
	if _, err := svc.Ask(context.Background(), " "); !errors.Is(err, ErrEmptyQuestion) {
		t.Fatalf("expected ErrEmptyQuestion, got %v", err)
	}
	if _, err := svc.StartSession(context.Background(), ""); !errors.Is(err, ErrEmptyQuestion) {
		t.Fatalf("expected ErrEmptyQuestion, got %v", err)
	}
}

func TestGatewayErrorWrapped(t *testing.T) {
	cause := errors.New("upstream down")
	svc := NewAssistantService(&recordingLLM{err: cause}, nil)
	if _, err := svc.Ask(context.Background(), "q"); !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}
