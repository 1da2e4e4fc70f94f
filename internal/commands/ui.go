package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/movelearn/tutor/pkg/types"
)

var (
	colorPrimary   = lipgloss.Color("#FF6B35")
	colorSecondary = lipgloss.Color("#7C3AED")
	colorSuccess   = lipgloss.Color("#10B981")
	colorError     = lipgloss.Color("#EF4444")
	colorMuted     = lipgloss.Color("#6B7280")

	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	styleVersion = lipgloss.NewStyle().
			Foreground(colorSecondary)

	styleSubtitle = lipgloss.NewStyle().
			Foreground(colorMuted)

	styleUserLabel = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6"))

	styleAssistantLabel = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorPrimary)

	styleSystemMsg = lipgloss.NewStyle().
			Foreground(colorMuted).
			Italic(true)

	styleSuccess = lipgloss.NewStyle().
			Foreground(colorSuccess)

	styleError = lipgloss.NewStyle().
			Foreground(colorError)

	styleBubble = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSecondary).
			Padding(0, 1)
)

func newRenderer(width int) *glamour.TermRenderer {
	if width < 20 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return r
}

// renderMarkdown falls back to the raw text when rendering fails.
func renderMarkdown(r *glamour.TermRenderer, text string) string {
	if r == nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

func renderMessage(r *glamour.TermRenderer, msg types.ChatMessage) string {
	switch msg.Role {
	case types.RoleUser:
		return styleUserLabel.Render("👤 You:") + "\n" + msg.Content
	case types.RoleAssistant:
		return styleAssistantLabel.Render("🤖 Assistant:") + "\n" + renderMarkdown(r, msg.Content)
	default:
		return styleSystemMsg.Render(msg.Content)
	}
}

// printAnswer writes an assistant reply. The reply already carries the text
// shown for failed requests, so err only surfaces when there is nothing to
// show.
func printAnswer(w io.Writer, msg types.ChatMessage, err error) error {
	if msg.Content == "" {
		return err
	}
	fmt.Fprintln(w, renderMessage(newRenderer(80), msg))
	return nil
}
