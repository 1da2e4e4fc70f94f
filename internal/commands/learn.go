package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/movelearn/tutor/pkg/assistant"
	"github.com/movelearn/tutor/pkg/chapter"
	"github.com/movelearn/tutor/pkg/checkpoint"
	"github.com/movelearn/tutor/pkg/client"
	"github.com/movelearn/tutor/pkg/types"
)

var errInputClosed = errors.New("input closed")

const learnHelp = "输入答案提交；/hint 获取提示，/analyze 分析上次错误，/quit 退出。代码题以单独一行 . 结束。"

// focusView exposes only the checkpoint being answered, so assistant
// requests describe it rather than the first one of the chapter.
type focusView struct {
	session *chapter.Session
	id      string
}

func (f *focusView) Checkpoints() []checkpoint.CheckpointView {
	for _, v := range f.session.Checkpoints() {
		if v.ID == f.id {
			return []checkpoint.CheckpointView{v}
		}
	}
	return nil
}

// learner walks a chapter's checkpoints on a line-oriented terminal.
type learner struct {
	session *chapter.Session
	chat    *assistant.Chat
	focus   *focusView
	in      *bufio.Scanner
	out     io.Writer

	lastError *types.ErrorInfo
}

func newLearnCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "learn <chapter-id>",
		Short: "Work through the checkpoints of a chapter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			platform, err := a.platform(st)
			if err != nil {
				return err
			}
			ai, err := a.assistantAPI(st)
			if err != nil {
				return err
			}

			resp, err := platform.Chapter.ByID(ctx, args[0])
			if err != nil {
				return fmt.Errorf("load chapter: %w", err)
			}
			if !resp.Success {
				return fmt.Errorf("load chapter: %s", resp.Message)
			}

			out := cmd.OutOrStdout()
			l := &learner{
				in:  bufio.NewScanner(cmd.InOrStdin()),
				out: out,
			}

			bus := assistant.NewBus(a.log)
			unsubscribe := bus.OnEvent(l.onEvent)
			defer unsubscribe()

			l.session = chapter.NewSession(resp.Data, chapter.Options{
				Grader:   platform.Checkpoint,
				Progress: platform.Progress,
				Events:   bus,
				Logger:   a.log,
			})
			l.focus = &focusView{session: l.session}
			l.chat = a.newChat(st, ai, checkpoint.NewExtractor(l.focus, nil, a.log), "")

			assistant.NewAnnouncer(bus).WelcomeToPage(resp.Data.Title)
			return l.run(ctx)
		},
	}
}

func (l *learner) onEvent(ev types.AssistantEvent) {
	if ev.ErrorInfo != nil {
		info := *ev.ErrorInfo
		l.lastError = &info
	}
	fmt.Fprintln(l.out, styleBubble.Render("💬 "+assistant.EventText(ev)))
}

func (l *learner) run(ctx context.Context) error {
	ch := l.session.Chapter()
	fmt.Fprintln(l.out, styleTitle.Render(ch.Title))
	if ch.Description != "" {
		fmt.Fprintln(l.out, styleSubtitle.Render(ch.Description))
	}

	l.session.Refresh(ctx)
	if l.session.ChapterPassed() {
		fmt.Fprintln(l.out, styleSuccess.Render("本章检查点已全部通过"))
	} else if len(ch.Checkpoints) > 0 {
		fmt.Fprintln(l.out, styleSystemMsg.Render(learnHelp))
		for i, cp := range ch.Checkpoints {
			if err := l.work(ctx, i+1, cp); err != nil {
				if errors.Is(err, errInputClosed) {
					fmt.Fprintln(l.out, "\n已退出，进度未保存")
					return nil
				}
				return err
			}
		}
	}

	route, err := l.session.Advance(ctx)
	if route != "" {
		fmt.Fprintf(l.out, "下一步: %s\n", route)
	}
	if err != nil {
		// The learner may move on even when progress could not be saved.
		fmt.Fprintln(l.out, styleError.Render("学习进度保存失败: "+err.Error()))
	}
	return nil
}

// work loops on one checkpoint until it passes.
func (l *learner) work(ctx context.Context, n int, cp client.Checkpoint) error {
	l.focus.id = cp.ID
	l.lastError = nil
	l.printCheckpoint(n, cp)

	for {
		answer, err := l.read(cp)
		if err != nil {
			return err
		}
		switch answer {
		case "/quit", "/exit":
			return errInputClosed
		case "/hint":
			reply, err := l.chat.Hint(ctx)
			if err := printAnswer(l.out, reply, err); err != nil {
				return err
			}
			continue
		case "/analyze":
			if l.lastError == nil {
				fmt.Fprintln(l.out, styleSystemMsg.Render("还没有需要分析的错误"))
				continue
			}
			reply, err := l.chat.AnalyzeError(ctx, *l.lastError)
			if err := printAnswer(l.out, reply, err); err != nil {
				return err
			}
			continue
		}

		res, err := l.session.Submit(ctx, cp.ID, answer)
		switch {
		case errors.Is(err, chapter.ErrEmptyAnswer):
			fmt.Fprintln(l.out, styleSystemMsg.Render("答案不能为空"))
			continue
		case err != nil:
			fmt.Fprintln(l.out, styleError.Render(res.Notice))
			continue
		}
		if res.State.Passed {
			fmt.Fprintln(l.out, styleSuccess.Render("✅ "+res.Notice))
			return nil
		}
		fmt.Fprintln(l.out, styleError.Render("❌ "+res.Notice))
		if out := chapter.CleanCompileOutput(res.State.Output); out != "" {
			fmt.Fprintln(l.out, out)
		}
	}
}

func (l *learner) printCheckpoint(n int, cp client.Checkpoint) {
	question := ""
	if cp.Options != nil {
		question = cp.Options.Question
	}
	fmt.Fprintf(l.out, "\n%s %s\n", styleAssistantLabel.Render(fmt.Sprintf("检查点 %d [%s]", n, cp.Type)), question)
	switch cp.Type {
	case types.CheckpointChoice:
		if cp.Options != nil {
			for _, key := range slices.Sorted(maps.Keys(cp.Options.Options)) {
				fmt.Fprintf(l.out, "  %s. %s\n", key, cp.Options.Options[key])
			}
		}
	case types.CheckpointCode:
		if cp.BaseCode != "" {
			fmt.Fprintf(l.out, "初始代码:\n%s\n", cp.BaseCode)
		}
	}
}

// read returns one answer. Code answers span lines up to a lone "."; an
// empty code answer resubmits the current one.
func (l *learner) read(cp client.Checkpoint) (string, error) {
	fmt.Fprint(l.out, "> ")
	if cp.Type != types.CheckpointCode {
		if !l.in.Scan() {
			return "", l.scanErr()
		}
		return strings.TrimSpace(l.in.Text()), nil
	}

	var lines []string
	for l.in.Scan() {
		line := l.in.Text()
		if len(lines) == 0 && strings.HasPrefix(strings.TrimSpace(line), "/") {
			return strings.TrimSpace(line), nil
		}
		if strings.TrimSpace(line) == "." {
			if len(lines) == 0 {
				return l.session.Answer(cp.ID), nil
			}
			code := strings.Join(lines, "\n") + "\n"
			if err := l.session.SetAnswer(cp.ID, code); err != nil {
				return "", err
			}
			return code, nil
		}
		lines = append(lines, line)
	}
	return "", l.scanErr()
}

func (l *learner) scanErr() error {
	if err := l.in.Err(); err != nil {
		return err
	}
	return errInputClosed
}
