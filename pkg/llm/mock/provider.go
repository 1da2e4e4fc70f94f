package mock

import (
	"context"
	"fmt"
	"time"

	"github.com/movelearn/tutor/pkg/llm"
)

// Provider answers without calling any model. Used in tests and when no
// provider is configured in dev mode.
type Provider struct {
	ResponseContent string
}

func New(response string) *Provider {
	return &Provider{
		ResponseContent: response,
	}
}

func (p *Provider) ID() string {
	return "mock"
}

func (p *Provider) Call(ctx context.Context, req *llm.ProviderRequest) (*llm.ProviderResponse, error) {
	return &llm.ProviderResponse{
		ID:      fmt.Sprintf("mock-%d", time.Now().UnixNano()),
		Model:   "mock-model",
		Content: p.content(req),
	}, nil
}

func (p *Provider) CallStream(ctx context.Context, req *llm.ProviderRequest) (<-chan llm.StreamChunk, error) {
	ch := make(chan llm.StreamChunk, 1)
	ch <- llm.StreamChunk{Content: p.content(req)}
	close(ch)
	return ch, nil
}

func (p *Provider) content(req *llm.ProviderRequest) string {
	if p.ResponseContent != "" {
		return p.ResponseContent
	}
	if len(req.Messages) == 0 {
		return "Mock response"
	}
	lastMsg := req.Messages[len(req.Messages)-1]
	return fmt.Sprintf("Mock response to: %s", lastMsg.Content)
}
