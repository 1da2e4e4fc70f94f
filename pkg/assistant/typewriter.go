package assistant

import (
	"context"
	"sync"
	"time"
)

// Typewriter reveals a message one character at a time. Starting a new
// message cancels the one being typed.
type Typewriter struct {
	speed time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewTypewriter creates a typewriter that adds one character per speed.
func NewTypewriter(speed time.Duration) *Typewriter {
	if speed <= 0 {
		speed = 50 * time.Millisecond
	}
	return &Typewriter{speed: speed}
}

// Type starts revealing msg. emit receives every prefix and, last, the full
// message with done set. emit runs on the typing goroutine and must not call
// back into the typewriter.
func (t *Typewriter) Type(msg string, emit func(text string, done bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	t.cancel, t.done = cancel, done

	go func() {
		defer close(done)
		runes := []rune(msg)
		timer := time.NewTimer(0)
		defer timer.Stop()
		for i := range runes {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
			emit(string(runes[:i+1]), false)
			timer.Reset(t.speed)
		}
		select {
		case <-ctx.Done():
			return
		default:
		}
		emit(msg, true)
	}()
}

// Stop cancels typing and waits for the typing goroutine to exit.
func (t *Typewriter) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *Typewriter) stopLocked() {
	if t.cancel == nil {
		return
	}
	t.cancel()
	<-t.done
	t.cancel, t.done = nil, nil
}
