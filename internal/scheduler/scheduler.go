// Package scheduler runs callbacks on a single UI task.
//
// Every piece of preview state (dispatcher slots, popup frames, session
// bookkeeping) is owned by that task. Background work hands results back with
// Post, and timers fire through the same queue, so callbacks never race.
package scheduler

import (
	"sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Timer is a cancellable pending callback.
type Timer interface {
	// Stop prevents the callback from running. It reports whether the
	// callback was still pending. Calling Stop from the UI task guarantees the
	// callback will not run afterwards.
	Stop() bool
}

// Scheduler posts work onto the UI task.
type Scheduler interface {
	// Post queues fn to run on the UI task. Safe from any goroutine.
	Post(fn func())
	// AfterFunc runs fn on the UI task once d has elapsed.
	AfterFunc(d time.Duration, fn func()) Timer
}

// TaskMsg carries a queued callback into the bubbletea update loop.
type TaskMsg struct {
	run func()
}

// Run executes the callback. Call it from Update.
func (m TaskMsg) Run() {
	if m.run != nil {
		m.run()
	}
}

// Loop feeds callbacks into a bubbletea program. The model's Update must run
// every TaskMsg and re-arm Next. The queue is unbounded so Post never blocks,
// including when the UI task posts to itself.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	notify chan struct{}
	done   chan struct{}
	once   sync.Once
}

// NewLoop creates a loop with room for size callbacks before the queue grows.
func NewLoop(size int) *Loop {
	return &Loop{
		queue:  make([]func(), 0, max(size, 1)),
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Post queues fn. After Close it is a no-op.
func (l *Loop) Post(fn func()) {
	select {
	case <-l.done:
		return
	default:
	}
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	select {
	case l.notify <- struct{}{}:
	default:
	}
}

func (l *Loop) pop() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, true
}

// AfterFunc schedules fn via a wall-clock timer.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	t := &loopTimer{}
	t.timer = time.AfterFunc(d, func() {
		l.Post(func() {
			if t.stopped.CompareAndSwap(false, true) {
				fn()
			}
		})
	})
	return t
}

// Next returns a command that yields the next queued callback.
func (l *Loop) Next() tea.Cmd {
	return func() tea.Msg {
		for {
			select {
			case <-l.done:
				return nil
			default:
			}
			if fn, ok := l.pop(); ok {
				return TaskMsg{run: fn}
			}
			select {
			case <-l.notify:
			case <-l.done:
				return nil
			}
		}
	}
}

// Close stops delivering callbacks.
func (l *Loop) Close() {
	l.once.Do(func() { close(l.done) })
}

type loopTimer struct {
	timer   *time.Timer
	stopped atomic.Bool
}

func (t *loopTimer) Stop() bool {
	t.timer.Stop()
	return t.stopped.CompareAndSwap(false, true)
}
