package llm

import (
	"context"

	"github.com/movelearn/tutor/pkg/types"
)

// Provider defines the interface for an LLM provider (e.g., OpenAI, Gemini)
type Provider interface {
	// ID returns the unique identifier of the provider
	ID() string

	// Call executes a synchronous chat request
	Call(ctx context.Context, req *ProviderRequest) (*ProviderResponse, error)

	// CallStream executes a streaming chat request returning text chunks
	CallStream(ctx context.Context, req *ProviderRequest) (<-chan StreamChunk, error)
}

type StreamChunk struct {
	Content string
	// Err is set on the last chunk when the stream failed.
	Err error
}

type ChatRequest struct {
	Model    string
	Messages []types.Message
}

type ChatResponse struct {
	Model   string
	Content string
	Usage   types.Usage
}

type ProviderRequest struct {
	Model       string
	Messages    []types.Message
	MaxTokens   int
	Temperature float64
}

type ProviderResponse struct {
	ID      string
	Model   string
	Content string
	Usage   types.Usage
}
