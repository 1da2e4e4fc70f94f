package llm

import (
	"context"
	"fmt"

	"github.com/movelearn/tutor/pkg/config"
)

// Gateway applies the configured model options to every provider call.
type Gateway struct {
	provider Provider
	options  config.ProviderOptions
}

func NewGateway(provider Provider, opts config.ProviderOptions) *Gateway {
	if opts.Temperature == 0 {
		opts.Temperature = 0.7 // Default if not set
	}
	return &Gateway{
		provider: provider,
		options:  opts,
	}
}

// ProviderID names the backing provider.
func (g *Gateway) ProviderID() string {
	return g.provider.ID()
}

func (g *Gateway) providerRequest(req *ChatRequest) *ProviderRequest {
	model := req.Model
	if model == "" {
		model = g.options.Model
	}
	return &ProviderRequest{
		Model:       model,
		Messages:    req.Messages,
		MaxTokens:   g.options.MaxTokens,
		Temperature: g.options.Temperature,
	}
}

func (g *Gateway) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	resp, err := g.provider.Call(ctx, g.providerRequest(req))
	if err != nil {
		return nil, fmt.Errorf("%s chat: %w", g.provider.ID(), err)
	}

	return &ChatResponse{
		Model:   resp.Model,
		Content: resp.Content,
		Usage:   resp.Usage,
	}, nil
}

func (g *Gateway) StreamChat(ctx context.Context, req *ChatRequest) (<-chan StreamChunk, error) {
	return g.provider.CallStream(ctx, g.providerRequest(req))
}
