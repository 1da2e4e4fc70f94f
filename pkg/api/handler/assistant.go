package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/movelearn/tutor/pkg/api/dto"
	"github.com/movelearn/tutor/pkg/api/service"
)

const (
	msgOK          = "success"
	msgBadRequest  = "问题内容不能为空"
	msgUnavailable = "AI助手暂时不可用，请稍后再试"
)

// Assistant is the service behind the assistant endpoints.
type Assistant interface {
	StartSession(ctx context.Context, question string) (*service.Answer, error)
	Ask(ctx context.Context, question string) (*service.Answer, error)
	AnalyzeError(ctx context.Context, question, errMsg string) (*service.Answer, error)
}

// AssistantHandler handles the AI assistant endpoints.
type AssistantHandler struct {
	svc Assistant
}

// NewAssistantHandler creates a new AssistantHandler.
func NewAssistantHandler(svc Assistant) *AssistantHandler {
	return &AssistantHandler{svc: svc}
}

// Session godoc
// @Summary      Ask in a new session
// @Description  Answers a free-form question and opens a chat session
// @Tags         assistant
// @Accept       json
// @Produce      json
// @Param        request body dto.QuestionRequest true "Question"
// @Success      200 {object} dto.AnswerResponse
// @Failure      400 {object} dto.Envelope
// @Failure      429 {object} dto.Envelope
// @Failure      500 {object} dto.Envelope
// @Router       /api/ai-agent/session [post]
func (h *AssistantHandler) Session(c *gin.Context) {
	var req dto.QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Fail(http.StatusBadRequest, msgBadRequest))
		return
	}
	ans, err := h.svc.StartSession(c.Request.Context(), req.Question)
	respond(c, ans, err)
}

// Question godoc
// @Summary      Checkpoint hint
// @Description  Answers a hint request built from the current checkpoint
// @Tags         assistant
// @Accept       json
// @Produce      json
// @Param        request body dto.QuestionRequest true "Question"
// @Success      200 {object} dto.AnswerResponse
// @Failure      400 {object} dto.Envelope
// @Failure      429 {object} dto.Envelope
// @Failure      500 {object} dto.Envelope
// @Router       /api/ai-agent/assistant-question [post]
func (h *AssistantHandler) Question(c *gin.Context) {
	var req dto.QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Fail(http.StatusBadRequest, msgBadRequest))
		return
	}
	ans, err := h.svc.Ask(c.Request.Context(), req.Question)
	respond(c, ans, err)
}

// Error godoc
// @Summary      Error analysis
// @Description  Explains why a submission failed
// @Tags         assistant
// @Accept       json
// @Produce      json
// @Param        request body dto.ErrorAnalysisRequest true "Question and error"
// @Success      200 {object} dto.AnswerResponse
// @Failure      400 {object} dto.Envelope
// @Failure      429 {object} dto.Envelope
// @Failure      500 {object} dto.Envelope
// @Router       /api/ai-agent/assistant-error [post]
func (h *AssistantHandler) Error(c *gin.Context) {
	var req dto.ErrorAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Fail(http.StatusBadRequest, msgBadRequest))
		return
	}
	ans, err := h.svc.AnalyzeError(c.Request.Context(), req.Question, req.ErrorMsg)
	respond(c, ans, err)
}

func respond(c *gin.Context, ans *service.Answer, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyQuestion):
		c.JSON(http.StatusBadRequest, dto.Fail(http.StatusBadRequest, msgBadRequest))
	case err != nil:
		c.JSON(http.StatusInternalServerError, dto.Fail(http.StatusInternalServerError, msgUnavailable))
	default:
		c.JSON(http.StatusOK, dto.Envelope{
			Success: true,
			Code:    http.StatusOK,
			Message: msgOK,
			Data: dto.AnswerData{
				Content:   ans.Content,
				SessionID: ans.SessionID,
				TokenUsed: ans.TokenUsed,
			},
		})
	}
}
