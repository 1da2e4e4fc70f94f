package client

import (
	"context"
	"net/http"
)

// AssistantController calls the AI assistant API. Bind it to the AI
// executor, which has a much longer timeout.
type AssistantController struct {
	exec Executor
}

// CreateSession asks a free-form question in a new chat session.
func (c *AssistantController) CreateSession(ctx context.Context, question string) (*Response[AssistantAnswer], error) {
	return Do[AssistantAnswer](ctx, c.exec, Request{
		URI:    "/api/ai-agent/session",
		Method: http.MethodPost,
		Body:   AssistantQuestionRequest{Question: question},
	})
}

// Question asks for a hint on the current checkpoint.
func (c *AssistantController) Question(ctx context.Context, question string) (*Response[AssistantAnswer], error) {
	return Do[AssistantAnswer](ctx, c.exec, Request{
		URI:    "/api/ai-agent/assistant-question",
		Method: http.MethodPost,
		Body:   AssistantQuestionRequest{Question: question},
	})
}

// Error asks for an analysis of a failed submission.
func (c *AssistantController) Error(ctx context.Context, question, errMsg string) (*Response[AssistantAnswer], error) {
	return Do[AssistantAnswer](ctx, c.exec, Request{
		URI:    "/api/ai-agent/assistant-error",
		Method: http.MethodPost,
		Body:   AssistantErrorRequest{Question: question, ErrorMsg: errMsg},
	})
}
