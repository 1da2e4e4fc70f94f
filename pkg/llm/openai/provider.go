package openai

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"

	"github.com/movelearn/tutor/pkg/llm"
	"github.com/movelearn/tutor/pkg/types"
)

// Provider talks to OpenAI and OpenAI-compatible APIs such as DeepSeek.
type Provider struct {
	client *openai.Client
	config Config
}

type Config struct {
	// ID overrides the provider id, e.g. "deepseek".
	ID      string
	APIKey  string
	BaseURL string
}

func New(cfg Config) *Provider {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &Provider{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
	}
}

func (p *Provider) ID() string {
	if p.config.ID != "" {
		return p.config.ID
	}
	return "openai"
}

func (p *Provider) Call(ctx context.Context, req *llm.ProviderRequest) (*llm.ProviderResponse, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    convertMessages(req.Messages),
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned")
	}

	return &llm.ProviderResponse{
		ID:      resp.ID,
		Model:   resp.Model,
		Content: resp.Choices[0].Message.Content,
		Usage:   convertUsage(resp.Usage),
	}, nil
}

func (p *Provider) CallStream(ctx context.Context, req *llm.ProviderRequest) (<-chan llm.StreamChunk, error) {
	stream, err := p.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    convertMessages(req.Messages),
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
		Stream:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("create stream: %w", err)
	}

	ch := make(chan llm.StreamChunk)
	go func() {
		defer close(ch)
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				select {
				case ch <- llm.StreamChunk{Err: err}:
				case <-ctx.Done():
				}
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			if content := resp.Choices[0].Delta.Content; content != "" {
				select {
				case ch <- llm.StreamChunk{Content: content}:
				case <-ctx.Done():
					return
				}
			}
			if resp.Choices[0].FinishReason != "" {
				return
			}
		}
	}()

	return ch, nil
}

// Helpers

func convertMessages(msgs []types.Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		// go-openai omits empty content, which DeepSeek rejects.
		content := m.Content
		if content == "" {
			content = " "
		}
		result = append(result, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: content,
		})
	}
	return result
}

func convertUsage(u openai.Usage) types.Usage {
	return types.Usage{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
	}
}
