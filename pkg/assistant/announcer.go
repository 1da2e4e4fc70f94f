package assistant

import (
	"fmt"
	"math/rand/v2"

	"github.com/movelearn/tutor/pkg/types"
)

// Publisher is the sending side of the bus.
type Publisher interface {
	Publish(types.AssistantEvent)
}

// Announcer publishes the stock assistant messages.
type Announcer struct {
	pub  Publisher
	pick func(n int) int
}

// NewAnnouncer creates an announcer that picks templates at random.
func NewAnnouncer(pub Publisher) *Announcer {
	return &Announcer{pub: pub, pick: rand.IntN}
}

func (a *Announcer) choose(options []string) string {
	return options[a.pick(len(options))]
}

func (a *Announcer) publish(kind types.AssistantEventType, msg string) {
	a.pub.Publish(types.NewAssistantEvent(kind, msg))
}

// WelcomeToPage greets the learner on a page. An empty page name uses a
// generic wording.
func (a *Announcer) WelcomeToPage(page string) {
	pageText, location := page, page
	if page == "" {
		pageText, location = "这个页面", "这里"
	}
	a.publish(types.EventPageEnter, a.choose([]string{
		fmt.Sprintf("欢迎来到%s！", pageText),
		"你又来学习啦！",
		fmt.Sprintf("在%s开始新的学习旅程吧！", location),
		"准备好接受新的挑战了吗？",
	}))
}

// CongratulateSuccess praises a passed checkpoint.
func (a *Announcer) CongratulateSuccess(achievement string) {
	text := achievement
	if text == "" {
		text = "任务"
	}
	steady := "很棒的表现！你正在稳步前进！"
	if achievement != "" {
		steady = fmt.Sprintf("很棒的表现！在%s上你正在稳步前进！", achievement)
	}
	a.publish(types.EventCheckpointCompleted, a.choose([]string{
		fmt.Sprintf("太棒了！%s完成得很不错！", text),
		"做得好！继续保持这个节奏！",
		steady,
		"完美！你的学习能力真强！",
	}))
}

// EncourageOnError cheers the learner up after a failure.
func (a *Announcer) EncourageOnError(errorType string) {
	if errorType == "" {
		errorType = "错误"
	}
	a.publish(types.EventAnalyzeError, a.choose([]string{
		fmt.Sprintf("别担心，%s很正常！再试试看？", errorType),
		"每个错误都是学习的机会！",
		"调试是成长的必经之路，加油！",
		"遇到困难是好事，说明你正在学习新东西！",
	}))
}

// ProvideHint shows hint, or a generic hint when empty.
func (a *Announcer) ProvideHint(hint string) {
	if hint == "" {
		hint = a.choose([]string{
			"需要帮助吗？我可以为你解答学习中的问题！",
			"遇到困难可以尝试从不同角度思考！",
			"仔细阅读提示信息，答案就在其中！",
			"不要着急，一步一步来！",
		})
	}
	a.publish(types.EventCustom, "💡 "+hint)
}

// CelebrateCompletion marks a finished chapter.
func (a *Announcer) CelebrateCompletion(task string) {
	if task == "" {
		task = "任务"
	}
	a.publish(types.EventChapterCompleted, a.choose([]string{
		fmt.Sprintf("恭喜完成%s！", task),
		fmt.Sprintf("%s完成！你真是学习高手！", task),
		"又攻克了一个难关！继续前进！",
		fmt.Sprintf("%s掌握得很好！准备迎接新挑战！", task),
	}))
}

func (a *Announcer) MotivateToLearn() {
	a.publish(types.EventCustom, "🌟 "+a.choose([]string{
		"学习贵在坚持，每一小步都是进步！",
		"你的努力不会白费，知识的积累终将开花结果！",
		"保持好奇心，世界等待你去探索！",
		"今天的学习，是明天成功的基础！",
		"相信自己，你有无限的学习潜力！",
	}))
}

func (a *Announcer) Custom(message string) {
	a.publish(types.EventCustom, message)
}

// AnalyzeError asks the notifier to offer an analysis of info.
func (a *Announcer) AnalyzeError(message string, info types.ErrorInfo) {
	ev := types.NewAssistantEvent(types.EventAnalyzeError, message)
	ev.ErrorInfo = &info
	a.pub.Publish(ev)
}
