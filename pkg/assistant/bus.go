// Package assistant implements the tutoring chat, the assistant event
// channel and the floating notifier that reacts to it.
package assistant

import (
	"log/slog"
	"sync"

	"github.com/movelearn/tutor/pkg/types"
)

// Handler receives published events.
type Handler func(types.AssistantEvent)

// Bus delivers assistant events to subscribers. Delivery is synchronous on
// the publisher's goroutine, in subscription order.
type Bus struct {
	mu       sync.Mutex
	next     uint64
	handlers []subscription
	log      *slog.Logger
}

type subscription struct {
	id uint64
	fn Handler
}

// NewBus creates an empty bus.
func NewBus(log *slog.Logger) *Bus {
	if log == nil {
		log = slog.Default()
	}
	return &Bus{log: log}
}

// OnEvent subscribes h and returns a function that removes it. The returned
// function may be called more than once, including from inside a handler.
func (b *Bus) OnEvent(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	b.next++
	id := b.next
	b.handlers = append(b.handlers, subscription{id: id, fn: h})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.handlers {
			if s.id == id {
				b.handlers = append(b.handlers[:i:i], b.handlers[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers ev to every current subscriber. A handler removed while
// the event is being delivered does not receive it.
func (b *Bus) Publish(ev types.AssistantEvent) {
	if ev.ID == "" {
		ev.ID = types.GenerateEventID()
	}
	b.mu.Lock()
	subs := make([]subscription, len(b.handlers))
	copy(subs, b.handlers)
	b.mu.Unlock()

	b.log.Debug("assistant event", "type", ev.Type, "id", ev.ID, "subscribers", len(subs))
	for _, s := range subs {
		if !b.subscribed(s.id) {
			continue
		}
		s.fn(ev)
	}
}

func (b *Bus) subscribed(id uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.handlers {
		if s.id == id {
			return true
		}
	}
	return false
}
