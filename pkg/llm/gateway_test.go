package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/movelearn/tutor/pkg/config"
	"github.com/movelearn/tutor/pkg/types"
)

type stubProvider struct {
	last *ProviderRequest
	err  error
}

func (*stubProvider) ID() string { return "stub" }

func (s *stubProvider) Call(ctx context.Context, req *ProviderRequest) (*ProviderResponse, error) {
	s.last = req
	if s.err != nil {
		return nil, s.err
	}
	return &ProviderResponse{Model: req.Model, Content: "ok", Usage: types.Usage{TotalTokens: 1}}, nil
}

func (s *stubProvider) CallStream(ctx context.Context, req *ProviderRequest) (<-chan StreamChunk, error) {
	s.last = req
	ch := make(chan StreamChunk, 1)
	ch <- StreamChunk{Content: "ok"}
	close(ch)
	return ch, nil
}

func TestGatewayChat(t *testing.T) {
	p := &stubProvider{}
	gw := NewGateway(p, config.ProviderOptions{MaxTokens: 256})
	resp, err := gw.Chat(context.Background(), &ChatRequest{Model: "m", Messages: []types.Message{{Content: "hi"}}})
	if err != nil {
		t.Fatalf("chat error: %v", err)
	}
	if resp.Model != "m" || resp.Content != "ok" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Usage.TotalTokens != 1 {
		t.Fatalf("expected usage to propagate")
	}
	if p.last.Temperature != 0.7 || p.last.MaxTokens != 256 {
		t.Fatalf("options not applied: %+v", p.last)
	}
}

func TestGatewayDefaultsModel(t *testing.T) {
	p := &stubProvider{}
	gw := NewGateway(p, config.ProviderOptions{Model: "deepseek-chat", Temperature: 0.2})

	ch, err := gw.StreamChat(context.Background(), &ChatRequest{})
	if err != nil {
		t.Fatalf("stream error: %v", err)
	}
	for range ch {
	}
	if p.last.Model != "deepseek-chat" || p.last.Temperature != 0.2 {
		t.Fatalf("unexpected request: %+v", p.last)
	}
}

func TestGatewayWrapsErrors(t *testing.T) {
	boom := errors.New("boom")
	gw := NewGateway(&stubProvider{err: boom}, config.ProviderOptions{})
	_, err := gw.Chat(context.Background(), &ChatRequest{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}
}
