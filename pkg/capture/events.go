package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/xaionaro-go/observability"
)

type EventType int

const (
	EventStarted = EventType(iota)
	EventStopped
	EventError
)

func (t EventType) String() string {
	switch t {
	case EventStarted:
		return "started"
	case EventStopped:
		return "stopped"
	case EventError:
		return "error"
	default:
		return fmt.Sprintf("unknown_event_%d", int(t))
	}
}

type Event struct {
	Type         EventType
	Time         time.Time
	OutputPath   string
	BytesWritten uint64

	// Message is a human-readable description; for EventError it is the
	// error text.
	Message string
	Err     error
}

func (ev Event) String() string {
	return fmt.Sprintf("%s: %s", ev.Type, ev.Message)
}

// eventBus fans events out to subscribers. Every subscriber has an unbounded
// queue, so publishing never blocks and never drops.
type eventBus struct {
	locker      sync.Mutex
	closed      bool
	subscribers map[*subscriber]struct{}
}

type subscriber struct {
	locker   sync.Mutex
	queue    []Event
	closed   bool
	notifyCh chan struct{}
	outCh    chan Event
}

func newEventBus() *eventBus {
	return &eventBus{
		subscribers: map[*subscriber]struct{}{},
	}
}

func (b *eventBus) Subscribe(ctx context.Context) <-chan Event {
	sub := &subscriber{
		notifyCh: make(chan struct{}, 1),
		outCh:    make(chan Event),
	}

	b.locker.Lock()
	if b.closed {
		b.locker.Unlock()
		close(sub.outCh)
		return sub.outCh
	}
	b.subscribers[sub] = struct{}{}
	b.locker.Unlock()

	observability.Go(ctx, func(ctx context.Context) {
		defer b.unsubscribe(sub)
		sub.forward(ctx)
	})
	return sub.outCh
}

func (b *eventBus) unsubscribe(sub *subscriber) {
	b.locker.Lock()
	defer b.locker.Unlock()
	delete(b.subscribers, sub)
}

func (b *eventBus) Publish(ev Event) {
	b.locker.Lock()
	defer b.locker.Unlock()
	if b.closed {
		return
	}
	for sub := range b.subscribers {
		sub.push(ev)
	}
}

// Close makes every subscription channel close after the already queued
// events are delivered.
func (b *eventBus) Close() {
	b.locker.Lock()
	defer b.locker.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for sub := range b.subscribers {
		sub.close()
	}
}

func (sub *subscriber) push(ev Event) {
	sub.locker.Lock()
	sub.queue = append(sub.queue, ev)
	sub.locker.Unlock()
	sub.notify()
}

func (sub *subscriber) close() {
	sub.locker.Lock()
	sub.closed = true
	sub.locker.Unlock()
	sub.notify()
}

func (sub *subscriber) notify() {
	select {
	case sub.notifyCh <- struct{}{}:
	default:
	}
}

func (sub *subscriber) pop() ([]Event, bool) {
	sub.locker.Lock()
	defer sub.locker.Unlock()
	queue := sub.queue
	sub.queue = nil
	return queue, sub.closed
}

func (sub *subscriber) forward(ctx context.Context) {
	defer close(sub.outCh)
	for {
		queue, closed := sub.pop()
		for _, ev := range queue {
			select {
			case sub.outCh <- ev:
			case <-ctx.Done():
				return
			}
		}
		if len(queue) > 0 {
			continue
		}
		if closed {
			return
		}
		select {
		case <-sub.notifyCh:
		case <-ctx.Done():
			return
		}
	}
}
