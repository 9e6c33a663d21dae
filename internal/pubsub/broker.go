package pubsub

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

const defaultBufferSize = 64

// subscription is one subscriber channel. A latest subscription replaces its
// oldest queued event instead of missing the new one, which suits snapshot
// payloads where only the newest value matters.
type subscription[T any] struct {
	ch     chan Event[T]
	latest bool
}

// Broker fans events out to subscribers without ever blocking Publish.
// Plain subscribers with a full buffer miss the event and the miss is
// counted; latest subscribers evict their oldest event.
type Broker[T any] struct {
	mu     sync.Mutex
	subs   map[*subscription[T]]struct{}
	done   chan struct{}
	buffer int

	dropped atomic.Uint64
}

// NewBroker creates a broker whose subscribers buffer 64 events.
func NewBroker[T any]() *Broker[T] {
	return NewBrokerWithBuffer[T](defaultBufferSize)
}

// NewBrokerWithBuffer creates a broker with a per-subscriber buffer of size.
func NewBrokerWithBuffer[T any](size int) *Broker[T] {
	return &Broker[T]{
		subs:   make(map[*subscription[T]]struct{}),
		done:   make(chan struct{}),
		buffer: max(size, 1),
	}
}

// Subscribe returns a channel of every event published from now on. It is
// closed when ctx ends or the broker closes.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	return b.subscribe(ctx, false)
}

// SubscribeLatest is Subscribe for snapshot streams: when the reader falls
// behind, older events give way to newer ones.
func (b *Broker[T]) SubscribeLatest(ctx context.Context) <-chan Event[T] {
	return b.subscribe(ctx, true)
}

func (b *Broker[T]) subscribe(ctx context.Context, latest bool) <-chan Event[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.isClosed() {
		ch := make(chan Event[T])
		close(ch)
		return ch
	}

	sub := &subscription[T]{ch: make(chan Event[T], b.buffer), latest: latest}
	b.subs[sub] = struct{}{}

	go func() {
		select {
		case <-ctx.Done():
			b.unsubscribe(sub)
		case <-b.done:
		}
	}()
	return sub.ch
}

func (b *Broker[T]) unsubscribe(sub *subscription[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[sub]; !ok {
		return
	}
	delete(b.subs, sub)
	close(sub.ch)
}

// Publish stamps payload and offers it to every subscriber.
func (b *Broker[T]) Publish(eventType EventType, payload T) {
	event := Event[T]{Type: eventType, Payload: payload, Timestamp: time.Now()}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.isClosed() {
		return
	}
	for sub := range b.subs {
		b.deliver(sub, event)
	}
}

// deliver runs under b.mu, so nothing else sends on sub.ch concurrently.
func (b *Broker[T]) deliver(sub *subscription[T], event Event[T]) {
	select {
	case sub.ch <- event:
		return
	default:
	}
	if !sub.latest {
		b.dropped.Add(1)
		return
	}
	select {
	case <-sub.ch:
	default:
	}
	select {
	case sub.ch <- event:
	default:
		b.dropped.Add(1)
	}
}

// Close closes every subscriber channel. Later publishes are ignored and
// later subscriptions get a closed channel.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.isClosed() {
		return
	}
	close(b.done)
	for sub := range b.subs {
		close(sub.ch)
	}
	clear(b.subs)
}

// SubscriberCount returns the number of open subscriptions.
func (b *Broker[T]) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Dropped reports how many deliveries were skipped because a subscriber
// buffer was full.
func (b *Broker[T]) Dropped() uint64 {
	return b.dropped.Load()
}

func (b *Broker[T]) isClosed() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}
