package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/movelearn/tutor/pkg/assistant"
	"github.com/movelearn/tutor/pkg/types"
)

// chatTranscript is the transcript name shared with assistant.Chat.
const chatTranscript = "chat"

const chatHelp = "/hint 获取提示  /analyze <错误信息> 分析错误  /stop 取消请求  /exit 退出"

// Custom Messages
type replyMsg struct {
	msg types.ChatMessage
	err error
}

type notifierMsg assistant.NotifierState

type chatModel struct {
	ctx      context.Context
	chat     *assistant.Chat
	notifier *assistant.Notifier
	changes  <-chan struct{}
	hasView  bool

	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	waiting bool
	bubble  assistant.NotifierState
	status  string
}

func newChatModel(ctx context.Context, chat *assistant.Chat, notifier *assistant.Notifier, changes <-chan struct{}, hasView bool) chatModel {
	ta := textarea.New()
	ta.Placeholder = "输入问题... (/hint 获取提示, /exit 退出)"
	ta.Focus()
	ta.Prompt = "┃ "
	ta.CharLimit = 0
	ta.SetHeight(3)
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(false) // Enter sends message

	vp := viewport.New(80, 20)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorPrimary)

	m := chatModel{
		ctx:      ctx,
		chat:     chat,
		notifier: notifier,
		changes:  changes,
		hasView:  hasView,
		viewport: vp,
		textarea: ta,
		spinner:  sp,
		renderer: newRenderer(76),
	}
	m.updateViewport()
	return m
}

func (m chatModel) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		waitForNotifier(m.changes, m.notifier),
	)
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		spCmd tea.Cmd
	)

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)
	m.spinner, spCmd = m.spinner.Update(msg)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			m.chat.Stop()
			return m, tea.Quit
		case tea.KeyEsc:
			if m.waiting {
				m.chat.Stop()
				return m, nil
			}
			m.notifier.Hide()
			return m, nil
		case tea.KeyEnter:
			input := strings.TrimSpace(m.textarea.Value())
			m.textarea.Reset()
			return m.submit(input)
		}

	case spinner.TickMsg:
		// Hint retries rewrite the placeholder while waiting.
		if m.waiting {
			m.updateViewport()
		}

	case replyMsg:
		m.waiting = false
		m.status = ""
		if msg.err != nil && msg.msg.Content == "" {
			m.status = fmt.Sprintf("Error: %v", msg.err)
		}
		m.updateViewport()
		return m, nil

	case notifierMsg:
		m.bubble = assistant.NotifierState(msg)
		return m, waitForNotifier(m.changes, m.notifier)

	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.textarea.SetWidth(msg.Width)
		m.viewport.Height = msg.Height - m.textarea.Height() - 5
		m.renderer = newRenderer(msg.Width - 4)
		m.updateViewport()
	}

	return m, tea.Batch(tiCmd, vpCmd, spCmd)
}

// submit dispatches one line of input.
func (m chatModel) submit(input string) (tea.Model, tea.Cmd) {
	if input == "" {
		return m, nil
	}
	switch {
	case input == "/exit" || input == "/quit":
		m.chat.Stop()
		return m, tea.Quit
	case input == "/stop":
		m.chat.Stop()
		return m, nil
	case input == "/help":
		m.status = chatHelp
		return m, nil
	}
	if m.waiting {
		m.status = "请等待当前回答完成，或输入 /stop 取消"
		return m, nil
	}

	var call func(ctx context.Context) (types.ChatMessage, error)
	switch {
	case input == "/hint":
		if !m.hasView {
			m.status = "未加载题目快照，将请求通用学习提示"
		}
		call = m.chat.Hint
	case strings.HasPrefix(input, "/analyze"):
		errMsg := strings.TrimSpace(strings.TrimPrefix(input, "/analyze"))
		info := types.ErrorInfo{Message: errMsg}
		if pending := m.notifier.TakeErrorInfo(); pending != nil && errMsg == "" {
			info = *pending
		}
		if info.Message == "" {
			m.status = "用法: /analyze <错误信息>"
			return m, nil
		}
		call = func(ctx context.Context) (types.ChatMessage, error) {
			return m.chat.AnalyzeError(ctx, info)
		}
	default:
		call = func(ctx context.Context) (types.ChatMessage, error) {
			return m.chat.Send(ctx, input)
		}
	}

	m.waiting = true
	ctx := m.ctx
	cmd := func() tea.Msg {
		reply, err := call(ctx)
		return replyMsg{msg: reply, err: err}
	}
	// The user line and placeholder are visible once the request starts.
	return m, tea.Batch(cmd, m.spinner.Tick)
}

func (m chatModel) View() string {
	var s strings.Builder

	s.WriteString(m.viewport.View())
	s.WriteString("\n")

	if m.bubble.Visible && m.bubble.Displayed != "" {
		s.WriteString(styleBubble.Render("💬 " + m.bubble.Displayed))
		s.WriteString("\n")
	}

	switch {
	case m.waiting:
		s.WriteString(m.spinner.View() + " 思考中...\n")
	case m.status != "":
		s.WriteString(styleSystemMsg.Render(m.status) + "\n")
	default:
		s.WriteString("\n")
	}

	s.WriteString(m.textarea.View())
	return s.String()
}

func (m *chatModel) updateViewport() {
	msgs := m.chat.Messages()
	rendered := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		rendered = append(rendered, renderMessage(m.renderer, msg))
	}
	m.viewport.SetContent(strings.Join(rendered, "\n\n"))
	m.viewport.GotoBottom()
}

// waitForNotifier blocks until the floating assistant changed and reports
// its latest state. Signals coalesce, so intermediate typing frames may be
// skipped but the final one never is.
func waitForNotifier(changes <-chan struct{}, n *assistant.Notifier) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return notifierMsg(n.State())
	}
}

func newChatCmd(a *app) *cobra.Command {
	var snapshot string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the AI assistant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			src, err := loadSource(snapshot, a.log)
			if err != nil {
				return err
			}
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			api, err := a.assistantAPI(st)
			if err != nil {
				return err
			}
			chat := a.newChat(st, api, src, "")
			if err := chat.Load(ctx); err != nil {
				a.log.Warn("failed to load chat history", "error", err)
			}

			changes := make(chan struct{}, 1)
			defer close(changes)
			bus := assistant.NewBus(a.log)
			notifier := assistant.NewNotifier(bus, assistant.NotifierOptions{
				TypingSpeed: a.cfg.Assistant.TypingSpeed,
				OnChange: func(assistant.NotifierState) {
					select {
					case changes <- struct{}{}:
					default:
					}
				},
				Logger: a.log,
			})
			defer notifier.Close()
			assistant.NewAnnouncer(bus).WelcomeToPage("AI学习助手")

			p := tea.NewProgram(newChatModel(ctx, chat, notifier, changes, src != nil), tea.WithAltScreen(), tea.WithContext(ctx))
			_, err = p.Run()
			return err
		},
	}
	cmd.Flags().StringVar(&snapshot, "snapshot", "", "View snapshot used for /hint and /analyze")
	return cmd
}
