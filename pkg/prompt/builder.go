// Package prompt composes the tutoring requests sent to the AI assistant
// from the active checkpoint.
package prompt

import (
	"log/slog"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/movelearn/tutor/pkg/types"
)

// Default base questions.
const (
	DefaultHintQuestion        = "请你给我一些学习提示或建议吗？"
	DefaultChoiceErrorQuestion = "我的选择题答错了，请帮我分析一下。"
	DefaultCodeErrorQuestion   = "我的代码编译失败了，请帮我分析一下。"
	DefaultErrorQuestion       = "我遇到了错误，请帮我分析一下。"
)

const (
	contextHeader     = "\n\n【当前题目信息】\n"
	choiceTypeLine    = "题目类型：选择题\n"
	codeTypeLine      = "题目类型：代码练习\n"
	hintChoiceClosing = "\n请针对这道选择题给我一些解题提示，但不要直接告诉我答案。"
	hintCodeClosing   = "\n请针对这个代码练习给我一些编程提示和建议。"
	choiceErrClosing  = "\n请分析我为什么选错了，这个选项为什么不正确，正确的思路应该是什么？不要直接告诉我答案，而是引导我思考。"
	codeErrClosing    = "\n请分析我的代码哪里有问题，编译错误是什么意思，如何修复？请提供具体的修改建议。"
	genericErrClosing = "\n\n请分析错误原因并提供具体的解决建议。"
	codeUnavailable   = "\n【代码获取失败】\n无法获取到当前代码内容。\n"
)

// ContextSource supplies the checkpoint state a request is built from.
// checkpoint.Extractor implements it.
type ContextSource interface {
	Extract() *types.CheckpointContext
	EditorCode() string
	SelectedOption() string
}

// Options tunes a Builder.
type Options struct {
	// IncludeDiff adds the learner's changes to the starting code in code
	// error analyses.
	IncludeDiff bool
	Logger      *slog.Logger
}

// Builder turns the active checkpoint into request text.
type Builder struct {
	src         ContextSource
	includeDiff bool
	log         *slog.Logger
}

// NewBuilder creates a builder reading from src. src may be nil, in which
// case every request degrades to its base question.
func NewBuilder(src ContextSource, opts Options) *Builder {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Builder{src: src, includeDiff: opts.IncludeDiff, log: log}
}

func (b *Builder) context() *types.CheckpointContext {
	if b.src == nil {
		return nil
	}
	return b.src.Extract()
}

// Hint asks for guidance on the active checkpoint without revealing the answer.
func (b *Builder) Hint(custom string) string {
	base := orDefault(custom, DefaultHintQuestion)
	ctx := b.context()
	if ctx == nil {
		return base
	}

	var sb strings.Builder
	sb.WriteString(base)
	sb.WriteString(contextHeader)

	switch ctx.Type {
	case types.CheckpointChoice:
		sb.WriteString(choiceTypeLine)
		if ctx.Question != "" {
			sb.WriteString("题目：" + ctx.Question + "\n")
		}
		writeOptions(&sb, ctx.Options)
		sb.WriteString(hintChoiceClosing)
	case types.CheckpointCode:
		sb.WriteString(codeTypeLine)
		if ctx.Question != "" {
			sb.WriteString("题目要求：" + ctx.Question + "\n")
		}
		if ctx.Code != "" {
			sb.WriteString("我当前的代码：\n```move\n" + ctx.Code + "\n```\n")
		}
		sb.WriteString(hintCodeClosing)
	}
	return sb.String()
}

// ChoiceErrorAnalysis asks why the selected option is wrong.
func (b *Builder) ChoiceErrorAnalysis(custom string) string {
	return b.choiceErrorAnalysis(b.context(), custom)
}

func (b *Builder) choiceErrorAnalysis(ctx *types.CheckpointContext, custom string) string {
	var sb strings.Builder
	sb.WriteString(orDefault(custom, DefaultChoiceErrorQuestion))
	sb.WriteString(contextHeader)
	sb.WriteString(choiceTypeLine)

	if ctx != nil {
		if ctx.Question != "" {
			sb.WriteString("题目：" + ctx.Question + "\n")
		}
		writeOptions(&sb, ctx.Options)
	}

	if b.src != nil {
		if choice := b.src.SelectedOption(); choice != "" {
			sb.WriteString("\n【我的选择】\n我选择了：" + choice + "\n")
		}
	}

	sb.WriteString("\n【结果】\n答案不正确\n")
	sb.WriteString(choiceErrClosing)
	return sb.String()
}

// CodeErrorAnalysis asks for a fix of the current code given the compiler
// output, which is embedded verbatim.
func (b *Builder) CodeErrorAnalysis(output, custom string) string {
	return b.codeErrorAnalysis(b.context(), output, custom)
}

func (b *Builder) codeErrorAnalysis(ctx *types.CheckpointContext, output, custom string) string {
	var sb strings.Builder
	sb.WriteString(orDefault(custom, DefaultCodeErrorQuestion))
	sb.WriteString(contextHeader)
	sb.WriteString(codeTypeLine)

	if ctx != nil && ctx.Question != "" {
		sb.WriteString("题目要求：" + ctx.Question + "\n")
	}

	var code string
	if b.src != nil {
		code = b.src.EditorCode()
	}
	switch {
	case code != "":
		sb.WriteString("\n【我的完整代码】\n```move\n" + code + "\n```\n")
	case ctx != nil && ctx.Code != "":
		code = ctx.Code
		b.log.Warn("editor unavailable, using extracted code which may be incomplete")
		sb.WriteString("\n【我的代码】\n```move\n" + code + "\n```\n")
	default:
		sb.WriteString(codeUnavailable)
	}

	if b.includeDiff && ctx != nil && ctx.BaseCode != "" && code != "" {
		if patch := Patch(ctx.BaseCode, code); patch != "" {
			sb.WriteString("\n【相对初始代码的改动】\n```diff\n" + patch + "```\n")
		}
	}

	sb.WriteString("\n【编译输出】\n```\n" + output + "\n```\n")
	sb.WriteString(codeErrClosing)
	return sb.String()
}

// ErrorAnalysis picks the analysis matching the active checkpoint type. For
// code checkpoints errMsg is treated as compiler output.
func (b *Builder) ErrorAnalysis(errMsg, custom string) string {
	ctx := b.context()
	if ctx != nil {
		switch ctx.Type {
		case types.CheckpointChoice:
			return b.choiceErrorAnalysis(ctx, custom)
		case types.CheckpointCode:
			return b.codeErrorAnalysis(ctx, errMsg, custom)
		}
	}
	return orDefault(custom, DefaultErrorQuestion) + "\n\n【错误信息】\n" + errMsg + genericErrClosing
}

// Patch lists the lines changed from base to current, "-" for removed and
// "+" for added, with "@@" between separate hunks. It returns "" when the
// texts are equal.
func Patch(base, current string) string {
	if base == current {
		return ""
	}
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(base, current)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	pendingGap := false
	for _, d := range diffs {
		if d.Type == diffmatchpatch.DiffEqual {
			pendingGap = sb.Len() > 0
			continue
		}
		if pendingGap {
			sb.WriteString("@@\n")
			pendingGap = false
		}
		prefix := "+"
		if d.Type == diffmatchpatch.DiffDelete {
			prefix = "-"
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(prefix + strings.TrimSuffix(line, "\n") + "\n")
		}
	}
	return sb.String()
}

func writeOptions(sb *strings.Builder, opts *types.OptionSet) {
	if opts.Len() == 0 {
		return
	}
	sb.WriteString("选项：\n")
	for _, o := range opts.Entries() {
		sb.WriteString("  " + o.Key + ". " + o.Text + "\n")
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
