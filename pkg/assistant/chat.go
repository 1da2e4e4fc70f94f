package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/movelearn/tutor/pkg/client"
	"github.com/movelearn/tutor/pkg/prompt"
	"github.com/movelearn/tutor/pkg/types"
)

var (
	ErrBusy         = errors.New("assistant request already in progress")
	ErrEmptyMessage = errors.New("message is empty")
	ErrNoAnswer     = errors.New("assistant returned no answer")
	ErrRejected     = errors.New("assistant request rejected")
)

const (
	// WelcomeMessage opens every transcript.
	WelcomeMessage = "你好！我是你的AI学习助手。有什么问题我可以帮助你解答吗？"
	// Placeholder stands in for the answer while a request is pending.
	Placeholder = "..."

	hintRequestLabel  = "获取学习提示"
	errorRequestLabel = "分析错误"
	cancelledText     = "请求已取消"
	serverBusyText    = "🔧 服务器正在处理中，请稍后重试\n\n💡 如果问题持续存在，请刷新页面后重试"
	slowRequestText   = "⏱️ 请求处理时间较长，请稍后重试\n\n💡 您也可以尝试提出更简洁的问题"
	requestFailedText = "❌ 请求失败 (%d)\n\n💡 请检查网络连接后重试"
	retryingText      = "第%d次尝试失败，正在重试..."
)

// RateLimitText formats the daily quota notice shown in place of an answer.
func RateLimitText(message string) string {
	if message == "" {
		message = client.DefaultRateLimitMessage
	}
	return "⏰ " + message + "\n\n💡 温馨提示：\n• 每日使用次数在午夜会重置\n• 您可以继续浏览课程内容和完成练习\n• 明天就可以继续使用AI助手了"
}

// AssistantAPI is the remote assistant. client.AssistantController
// implements it.
type AssistantAPI interface {
	CreateSession(ctx context.Context, question string) (*client.Response[client.AssistantAnswer], error)
	Question(ctx context.Context, question string) (*client.Response[client.AssistantAnswer], error)
	Error(ctx context.Context, question, errMsg string) (*client.Response[client.AssistantAnswer], error)
}

// Transcript persists chat messages.
type Transcript interface {
	AppendMessage(ctx context.Context, transcript string, msg types.ChatMessage) error
	Messages(ctx context.Context, transcript string) ([]types.ChatMessage, error)
}

// ChatOptions configures a Chat. API is required.
type ChatOptions struct {
	API     AssistantAPI
	Prompts *prompt.Builder
	// Transcript is optional; without it the chat lives in memory.
	Transcript     Transcript
	TranscriptName string
	HintQuestion   string
	// HintRetries defaults to 2; a negative value disables retries.
	HintRetries    int
	HintRetryDelay time.Duration
	Logger         *slog.Logger
}

// flowText holds the fallback answers of one request kind.
type flowText struct {
	rejected string
	empty    string
	failed   string
}

var (
	sendText = flowText{
		rejected: "发送失败，请重试",
		empty:    "AI助手暂时无法回应，请稍后重试",
		failed:   "抱歉，AI助手暂时无法回应",
	}
	hintText = flowText{
		rejected: "抱歉，获取提示时遇到问题，请稍后再试。",
		empty:    "抱歉，获取提示时没有收到有效响应。",
		failed:   "抱歉，获取提示时发生了问题，请稍后再试。",
	}
	analyzeText = flowText{
		rejected: "抱歉，分析错误时遇到问题，请稍后再试。",
		empty:    "抱歉，分析错误时没有收到有效响应。",
		failed:   "抱歉，分析错误时发生了问题，请稍后再试。",
	}
)

// Chat is one chat surface. It runs at most one assistant request at a time.
type Chat struct {
	api        AssistantAPI
	prompts    *prompt.Builder
	transcript Transcript
	name       string
	hintQ      string
	retries    int
	retryDelay time.Duration
	log        *slog.Logger

	inflight *semaphore.Weighted

	mu       sync.Mutex
	messages []types.ChatMessage
	cancel   context.CancelFunc
}

// NewChat creates a chat holding only the welcome message.
func NewChat(opts ChatOptions) *Chat {
	if opts.Prompts == nil {
		opts.Prompts = prompt.NewBuilder(nil, prompt.Options{Logger: opts.Logger})
	}
	if opts.TranscriptName == "" {
		opts.TranscriptName = "chat"
	}
	if opts.HintQuestion == "" {
		opts.HintQuestion = "我正在学习Move语言，可以给我一些学习提示或建议吗？"
	}
	switch {
	case opts.HintRetries == 0:
		opts.HintRetries = 2
	case opts.HintRetries < 0:
		opts.HintRetries = 0
	}
	if opts.HintRetryDelay <= 0 {
		opts.HintRetryDelay = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Chat{
		api:        opts.API,
		prompts:    opts.Prompts,
		transcript: opts.Transcript,
		name:       opts.TranscriptName,
		hintQ:      opts.HintQuestion,
		retries:    opts.HintRetries,
		retryDelay: opts.HintRetryDelay,
		log:        opts.Logger,
		inflight:   semaphore.NewWeighted(1),
		messages:   []types.ChatMessage{welcome()},
	}
}

func welcome() types.ChatMessage {
	return types.ChatMessage{
		ID:        "welcome",
		Role:      types.RoleAssistant,
		Content:   WelcomeMessage,
		Timestamp: time.Now(),
	}
}

// Load replaces the in-memory transcript with the persisted one.
func (c *Chat) Load(ctx context.Context) error {
	if c.transcript == nil {
		return nil
	}
	saved, err := c.transcript.Messages(ctx, c.name)
	if err != nil {
		return fmt.Errorf("load transcript: %w", err)
	}
	c.mu.Lock()
	c.messages = append([]types.ChatMessage{welcome()}, saved...)
	c.mu.Unlock()
	return nil
}

// Messages returns a copy of the transcript.
func (c *Chat) Messages() []types.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]types.ChatMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// Busy reports whether a request is pending.
func (c *Chat) Busy() bool {
	if !c.inflight.TryAcquire(1) {
		return true
	}
	c.inflight.Release(1)
	return false
}

// Stop cancels the pending request, if any.
func (c *Chat) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
}

// Send asks a free-form question. The returned message is the answer or
// the text shown in its place when the request failed.
func (c *Chat) Send(ctx context.Context, text string) (types.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return types.ChatMessage{}, ErrEmptyMessage
	}
	return c.run(ctx, text, sendText, func(ctx context.Context, _ string) (*client.Response[client.AssistantAnswer], error) {
		return c.api.CreateSession(ctx, text)
	})
}

// Hint asks for guidance on the active checkpoint. 500 and 503 responses
// are retried.
func (c *Chat) Hint(ctx context.Context) (types.ChatMessage, error) {
	question := c.prompts.Hint(c.hintQ)
	return c.run(ctx, hintRequestLabel, hintText, func(ctx context.Context, placeholderID string) (*client.Response[client.AssistantAnswer], error) {
		for attempt := 0; ; attempt++ {
			resp, err := c.api.Question(ctx, question)
			if err == nil || !client.IsTransient(err) || attempt >= c.retries {
				return resp, err
			}
			c.log.Warn("hint request failed, retrying", "attempt", attempt+1, "error", err)
			c.setContent(placeholderID, fmt.Sprintf(retryingText, attempt+1))

			timer := time.NewTimer(c.retryDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}
	})
}

// AnalyzeError asks for an analysis of a failed submission.
func (c *Chat) AnalyzeError(ctx context.Context, info types.ErrorInfo) (types.ChatMessage, error) {
	kind := string(info.CheckpointType)
	if kind == "" {
		kind = "课程"
	}
	base := fmt.Sprintf("我在学习%s时遇到了问题，请帮我分析一下错误原因。", kind)
	question := c.prompts.ErrorAnalysis(info.Message, base)
	return c.run(ctx, errorRequestLabel, analyzeText, func(ctx context.Context, _ string) (*client.Response[client.AssistantAnswer], error) {
		return c.api.Error(ctx, question, info.Message)
	})
}

type requestFunc func(ctx context.Context, placeholderID string) (*client.Response[client.AssistantAnswer], error)

// run appends the user message and a placeholder, performs call and swaps
// the placeholder for the outcome.
func (c *Chat) run(ctx context.Context, label string, text flowText, call requestFunc) (types.ChatMessage, error) {
	if !c.inflight.TryAcquire(1) {
		return types.ChatMessage{}, ErrBusy
	}
	defer c.inflight.Release(1)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.cancel = nil
		c.mu.Unlock()
	}()

	user := types.NewChatMessage(types.RoleUser, label)
	placeholder := types.NewChatMessage(types.RoleAssistant, Placeholder)
	c.mu.Lock()
	c.messages = append(c.messages, user, placeholder)
	c.mu.Unlock()
	c.persist(ctx, user)

	resp, err := call(ctx, placeholder.ID)
	content, err := c.outcome(resp, err, text)
	if err != nil {
		c.log.Warn("assistant request failed", "request", label, "error", err)
	}

	reply := types.NewChatMessage(types.RoleAssistant, content)
	c.mu.Lock()
	replaced := false
	for i := range c.messages {
		if c.messages[i].ID == placeholder.ID {
			c.messages[i] = reply
			replaced = true
			break
		}
	}
	if !replaced {
		c.messages = append(c.messages, reply)
	}
	c.mu.Unlock()
	c.persist(context.WithoutCancel(ctx), reply)

	return reply, err
}

// outcome maps a response or error to the text shown to the learner.
func (c *Chat) outcome(resp *client.Response[client.AssistantAnswer], err error, text flowText) (string, error) {
	if err != nil {
		return describeError(err, text), err
	}
	if resp == nil {
		return text.empty, ErrNoAnswer
	}
	if !resp.Success {
		if client.IsRateLimitResponse(resp) {
			return RateLimitText(resp.Message), &client.RateLimitError{Message: orDefault(resp.Message, client.DefaultRateLimitMessage)}
		}
		return orDefault(resp.Message, text.rejected), fmt.Errorf("%w: %s", ErrRejected, resp.Message)
	}
	if strings.TrimSpace(resp.Data.Content) == "" {
		return text.empty, ErrNoAnswer
	}
	return resp.Data.Content, nil
}

func describeError(err error, text flowText) string {
	var se *client.StatusError
	switch {
	case client.IsRateLimit(err):
		var rl *client.RateLimitError
		if errors.As(err, &rl) {
			return RateLimitText(rl.Message)
		}
		return RateLimitText(err.Error())
	case errors.Is(err, context.Canceled):
		return cancelledText
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, syscall.ECONNRESET):
		return slowRequestText
	case errors.As(err, &se) && se.Code == 500:
		return serverBusyText
	case errors.As(err, &se) && se.Code >= 400:
		return fmt.Sprintf(requestFailedText, se.Code)
	}
	return text.failed
}

func (c *Chat) setContent(id, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.messages {
		if c.messages[i].ID == id {
			c.messages[i].Content = content
			return
		}
	}
}

func (c *Chat) persist(ctx context.Context, msg types.ChatMessage) {
	if c.transcript == nil {
		return
	}
	if err := c.transcript.AppendMessage(ctx, c.name, msg); err != nil {
		c.log.Warn("failed to persist chat message", "id", msg.ID, "error", err)
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
