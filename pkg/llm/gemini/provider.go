package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/movelearn/tutor/pkg/llm"
	"github.com/movelearn/tutor/pkg/types"
)

// Config contains Gemini-specific configuration.
type Config struct {
	APIKey    string
	ProjectID string
	Location  string
	Model     string
}

type Provider struct {
	client *genai.Client
	config Config
}

func New(ctx context.Context, cfg Config) (*Provider, error) {
	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}

	if cfg.ProjectID != "" && cfg.Location != "" {
		clientConfig.Backend = genai.BackendVertexAI
		clientConfig.Project = cfg.ProjectID
		clientConfig.Location = cfg.Location
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Provider{
		client: client,
		config: cfg,
	}, nil
}

func (p *Provider) ID() string {
	return "gemini"
}

func (p *Provider) Call(ctx context.Context, req *llm.ProviderRequest) (*llm.ProviderResponse, error) {
	modelName, contents, conf := p.prepareCall(req)

	resp, err := p.client.Models.GenerateContent(ctx, modelName, contents, conf)
	if err != nil {
		return nil, err
	}

	return convertResponse(resp, modelName)
}

func (p *Provider) CallStream(ctx context.Context, req *llm.ProviderRequest) (<-chan llm.StreamChunk, error) {
	modelName, contents, conf := p.prepareCall(req)

	stream := p.client.Models.GenerateContentStream(ctx, modelName, contents, conf)

	ch := make(chan llm.StreamChunk)
	go func() {
		defer close(ch)
		for chunk, err := range stream {
			out := llm.StreamChunk{Err: err}
			if err == nil {
				out.Content = chunk.Text()
				if out.Content == "" {
					continue
				}
			}
			select {
			case ch <- out:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	return ch, nil
}

func (p *Provider) prepareCall(req *llm.ProviderRequest) (string, []*genai.Content, *genai.GenerateContentConfig) {
	// System prompts travel as the system instruction.
	var systemInstruction *genai.Content
	var contents []*genai.Content

	for _, m := range req.Messages {
		if m.Role == types.RoleSystem {
			systemInstruction = &genai.Content{
				Parts: []*genai.Part{{Text: m.Content}},
			}
			continue
		}
		contents = append(contents, convertMessage(m))
	}

	conf := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens:   int32(req.MaxTokens),
		SystemInstruction: systemInstruction,
	}

	modelName := req.Model
	if modelName == "" {
		modelName = p.config.Model
	}
	if modelName == "" {
		modelName = "gemini-2.0-flash"
	}

	return modelName, contents, conf
}

// Helpers

func convertMessage(m types.Message) *genai.Content {
	role := string(genai.RoleUser)
	if m.Role == types.RoleAssistant {
		role = string(genai.RoleModel)
	}
	return &genai.Content{
		Role:  role,
		Parts: []*genai.Part{{Text: m.Content}},
	}
}

func convertResponse(resp *genai.GenerateContentResponse, model string) (*llm.ProviderResponse, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no candidates returned")
	}

	var content string
	for _, part := range resp.Candidates[0].Content.Parts {
		content += part.Text
	}

	out := &llm.ProviderResponse{
		Model:   model,
		Content: content,
	}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = types.Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	return out, nil
}
