package assistant

import (
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/movelearn/tutor/pkg/types"
)

// DefaultGreeting is shown for events without a message or template.
const DefaultGreeting = "你好！我是你的学习助手！"

var eventTemplates = map[types.AssistantEventType][]string{
	types.EventPageEnter: {
		"你又来学习啦！",
		"欢迎回来！准备好新的挑战了吗？",
		"学习新知识的时间到了！",
		"今天也要加油学习哦！",
	},
	types.EventCheckpointCompleted: {
		"太棒了！检查点完成得很不错！",
		"做得好！继续保持这个节奏！",
		"很棒的解答！你正在稳步前进！",
		"完美！你的学习能力真强！",
	},
	types.EventChapterCompleted: {
		"恭喜完成这一章！",
		"章节完成！你真是学习高手！",
		"又攻克了一个难关！继续前进！",
		"这一章掌握得很好！准备迎接新挑战！",
	},
	types.EventAnalyzeError: {
		"检测到错误，点击分析错误按钮获取详细分析",
		"有错误需要分析，我来帮你找出问题所在！",
		"遇到问题了？让我帮你分析一下错误原因",
	},
}

// NotifierState is what the floating assistant currently shows.
type NotifierState struct {
	Visible   bool
	Displayed string
	Typing    bool
	// HasNew is set once a message finished typing.
	HasNew    bool
	ErrorInfo *types.ErrorInfo
}

// NotifierOptions configures a Notifier.
type NotifierOptions struct {
	TypingSpeed time.Duration
	// OnChange is called after every state change, from the typing goroutine.
	OnChange func(NotifierState)
	Logger   *slog.Logger
}

// Notifier is the floating assistant: it listens on the bus and types out a
// message for every event.
type Notifier struct {
	typer    *Typewriter
	onChange func(NotifierState)
	pick     func(n int) int
	log      *slog.Logger
	unsub    func()

	mu    sync.Mutex
	state NotifierState
}

// NewNotifier subscribes a notifier to bus.
func NewNotifier(bus *Bus, opts NotifierOptions) *Notifier {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	n := &Notifier{
		typer:    NewTypewriter(opts.TypingSpeed),
		onChange: opts.OnChange,
		pick:     rand.IntN,
		log:      opts.Logger,
	}
	n.unsub = bus.OnEvent(n.handle)
	return n
}

// MessageFor returns the event message, or a template for its kind.
func (n *Notifier) MessageFor(ev types.AssistantEvent) string {
	return eventText(ev, n.pick)
}

// EventText is MessageFor for hosts that print events without a notifier.
func EventText(ev types.AssistantEvent) string {
	return eventText(ev, rand.IntN)
}

func eventText(ev types.AssistantEvent, pick func(n int) int) string {
	if msg := strings.TrimSpace(ev.Message); msg != "" {
		return msg
	}
	templates, ok := eventTemplates[ev.Type]
	if !ok {
		return DefaultGreeting
	}
	return templates[pick(len(templates))]
}

func (n *Notifier) handle(ev types.AssistantEvent) {
	// Cancel the message being typed before touching state.
	n.typer.Stop()

	msg := n.MessageFor(ev)
	n.update(func(s *NotifierState) {
		if ev.Type == types.EventAnalyzeError && ev.ErrorInfo != nil {
			info := *ev.ErrorInfo
			s.ErrorInfo = &info
		}
		s.Visible = true
		s.HasNew = false
		s.Typing = true
		s.Displayed = ""
	})
	n.log.Debug("assistant notification", "type", ev.Type, "message", msg)

	n.typer.Type(msg, func(text string, done bool) {
		n.update(func(s *NotifierState) {
			s.Displayed = text
			if done {
				s.Typing = false
				s.HasNew = true
			}
		})
	})
}

func (n *Notifier) update(fn func(*NotifierState)) {
	n.mu.Lock()
	fn(&n.state)
	st := n.state
	n.mu.Unlock()
	if n.onChange != nil {
		n.onChange(st)
	}
}

// State returns the current notifier state.
func (n *Notifier) State() NotifierState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// TakeErrorInfo returns the pending error and clears it.
func (n *Notifier) TakeErrorInfo() *types.ErrorInfo {
	n.mu.Lock()
	defer n.mu.Unlock()
	info := n.state.ErrorInfo
	n.state.ErrorInfo = nil
	return info
}

// Hide dismisses the current message.
func (n *Notifier) Hide() {
	n.typer.Stop()
	n.update(func(s *NotifierState) {
		s.Visible = false
		s.Typing = false
	})
}

// Close unsubscribes from the bus and cancels typing.
func (n *Notifier) Close() {
	n.unsub()
	n.typer.Stop()
}
