package factory

import (
	"context"
	"fmt"

	"github.com/movelearn/tutor/pkg/config"
	"github.com/movelearn/tutor/pkg/llm"
	"github.com/movelearn/tutor/pkg/llm/gemini"
	"github.com/movelearn/tutor/pkg/llm/mock"
	"github.com/movelearn/tutor/pkg/llm/openai"
)

// NewProvider creates the LLM provider selected by cfg and returns it with
// its id and resolved options.
func NewProvider(ctx context.Context, cfg *config.Config) (llm.Provider, config.ProviderOptions, error) {
	providerID, opts, err := cfg.GetActiveProvider()
	if err != nil {
		return nil, config.ProviderOptions{}, err
	}

	switch providerID {
	case "gemini":
		p, err := gemini.New(ctx, gemini.Config{
			APIKey:    opts.APIKey,
			ProjectID: opts.ProjectID,
			Location:  opts.Location,
			Model:     opts.Model,
		})
		if err != nil {
			return nil, opts, err
		}
		return p, opts, nil
	case "openai", "deepseek":
		return openai.New(openai.Config{
			ID:      providerID,
			APIKey:  opts.APIKey,
			BaseURL: opts.BaseURL,
		}), opts, nil
	case "mock":
		return mock.New(""), opts, nil
	default:
		return nil, opts, fmt.Errorf("unknown provider: %s", providerID)
	}
}
