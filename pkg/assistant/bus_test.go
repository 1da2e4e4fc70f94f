package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movelearn/tutor/pkg/types"
)

func TestBusDeliversInOrder(t *testing.T) {
	bus := NewBus(nil)
	var got []string
	bus.OnEvent(func(ev types.AssistantEvent) { got = append(got, "a:"+ev.Message) })
	bus.OnEvent(func(ev types.AssistantEvent) { got = append(got, "b:"+ev.Message) })

	bus.Publish(types.NewAssistantEvent(types.EventCustom, "1"))
	bus.Publish(types.NewAssistantEvent(types.EventCustom, "2"))

	assert.Equal(t, []string{"a:1", "b:1", "a:2", "b:2"}, got)
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus(nil)
	calls := 0
	unsub := bus.OnEvent(func(types.AssistantEvent) { calls++ })

	bus.Publish(types.AssistantEvent{Type: types.EventCustom})
	unsub()
	unsub()
	bus.Publish(types.AssistantEvent{Type: types.EventCustom})

	assert.Equal(t, 1, calls)
}

func TestBusUnsubscribeDuringDelivery(t *testing.T) {
	bus := NewBus(nil)
	var second int
	var unsubSecond func()
	bus.OnEvent(func(types.AssistantEvent) { unsubSecond() })
	unsubSecond = bus.OnEvent(func(types.AssistantEvent) { second++ })

	bus.Publish(types.AssistantEvent{Type: types.EventCustom})
	assert.Zero(t, second)

	var self int
	var unsubSelf func()
	unsubSelf = bus.OnEvent(func(types.AssistantEvent) {
		self++
		unsubSelf()
	})
	bus.Publish(types.AssistantEvent{Type: types.EventCustom})
	bus.Publish(types.AssistantEvent{Type: types.EventCustom})
	assert.Equal(t, 1, self)
}

func TestBusAssignsID(t *testing.T) {
	bus := NewBus(nil)
	var id string
	bus.OnEvent(func(ev types.AssistantEvent) { id = ev.ID })
	bus.Publish(types.AssistantEvent{Type: types.EventPageEnter})
	require.NotEmpty(t, id)
	assert.Contains(t, id, "evt_")
}

type capture struct{ events []types.AssistantEvent }

func (c *capture) Publish(ev types.AssistantEvent) { c.events = append(c.events, ev) }

func (c *capture) last() types.AssistantEvent { return c.events[len(c.events)-1] }

func TestAnnouncerTemplates(t *testing.T) {
	pub := &capture{}
	a := NewAnnouncer(pub)
	a.pick = func(int) int { return 0 }

	a.WelcomeToPage("")
	assert.Equal(t, types.EventPageEnter, pub.last().Type)
	assert.Equal(t, "欢迎来到这个页面！", pub.last().Message)

	a.WelcomeToPage("课程列表")
	assert.Equal(t, "欢迎来到课程列表！", pub.last().Message)

	a.CongratulateSuccess("")
	assert.Equal(t, types.EventCheckpointCompleted, pub.last().Type)
	assert.Equal(t, "太棒了！任务完成得很不错！", pub.last().Message)

	a.pick = func(int) int { return 2 }
	a.CongratulateSuccess("检查点")
	assert.Equal(t, "很棒的表现！在检查点上你正在稳步前进！", pub.last().Message)

	a.EncourageOnError("")
	assert.Equal(t, types.EventAnalyzeError, pub.last().Type)
	assert.Nil(t, pub.last().ErrorInfo)

	a.ProvideHint("看看文档")
	assert.Equal(t, "💡 看看文档", pub.last().Message)

	a.pick = func(int) int { return 3 }
	a.CelebrateCompletion("第一章")
	assert.Equal(t, types.EventChapterCompleted, pub.last().Type)
	assert.Equal(t, "第一章掌握得很好！准备迎接新挑战！", pub.last().Message)

	a.MotivateToLearn()
	assert.Equal(t, "🌟 今天的学习，是明天成功的基础！", pub.last().Message)

	a.Custom("hello")
	assert.Equal(t, types.EventCustom, pub.last().Type)
	assert.Equal(t, "hello", pub.last().Message)

	a.AnalyzeError("", types.ErrorInfo{Message: "boom", CheckpointType: types.CheckpointCode})
	require.NotNil(t, pub.last().ErrorInfo)
	assert.Equal(t, "boom", pub.last().ErrorInfo.Message)
}
