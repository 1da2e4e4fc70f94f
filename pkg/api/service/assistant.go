package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/movelearn/tutor/pkg/llm"
	"github.com/movelearn/tutor/pkg/types"
)

var ErrEmptyQuestion = errors.New("question is empty")

// SystemPrompt frames every assistant call.
const SystemPrompt = `你是一名耐心的 Move 语言编程导师，负责辅导学习 Sui/Aptos Move 智能合约的学生。
回答要求：
- 使用简体中文，语气友好、鼓励。
- 优先引导学生思考，不要直接给出选择题答案或完整的练习代码。
- 涉及代码时使用 ` + "```move" + ` 代码块，并解释关键概念（能力 ability、所有权、资源、模块、泛型等）。
- 分析编译错误时，先指出出错的位置和原因，再给出修改思路。
- 回答简洁，重点突出。`

const errorFollowUp = "\n\n【补充错误信息】\n"

// LLM is the gateway capability the service needs.
type LLM interface {
	Chat(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error)
}

// Answer is the result of one assistant call.
type Answer struct {
	Content   string
	SessionID string
	TokenUsed int
}

// AssistantService answers tutoring questions through the LLM gateway.
type AssistantService struct {
	llm LLM
	log *slog.Logger
}

func NewAssistantService(gateway LLM, log *slog.Logger) *AssistantService {
	if log == nil {
		log = slog.Default()
	}
	return &AssistantService{llm: gateway, log: log}
}

// StartSession answers a free-form question under a new session id.
func (s *AssistantService) StartSession(ctx context.Context, question string) (*Answer, error) {
	ans, err := s.Ask(ctx, question)
	if err != nil {
		return nil, err
	}
	ans.SessionID = types.GenerateSessionID()
	return ans, nil
}

// Ask answers a hint or free-form question.
func (s *AssistantService) Ask(ctx context.Context, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	return s.complete(ctx, question)
}

// AnalyzeError answers an error-analysis question. errMsg is appended when
// the question does not already quote it.
func (s *AssistantService) AnalyzeError(ctx context.Context, question, errMsg string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	errMsg = strings.TrimSpace(errMsg)
	if errMsg != "" && !strings.Contains(question, errMsg) {
		question += errorFollowUp + errMsg
	}
	return s.complete(ctx, question)
}

func (s *AssistantService) complete(ctx context.Context, question string) (*Answer, error) {
	resp, err := s.llm.Chat(ctx, &llm.ChatRequest{
		Messages: []types.Message{
			{Role: types.RoleSystem, Content: SystemPrompt},
			{Role: types.RoleUser, Content: question},
		},
	})
	if err != nil {
		s.log.Error("assistant call failed", "error", err)
		return nil, fmt.Errorf("assistant: %w", err)
	}
	s.log.Debug("assistant answered", "model", resp.Model, "tokens", resp.Usage.TotalTokens)
	return &Answer{Content: resp.Content, TokenUsed: resp.Usage.TotalTokens}, nil
}
