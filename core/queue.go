package dialogue

import (
	"context"
	"sync"

	"github.com/odiadev/ruthie-core/core/events"
)

const defaultQueueCapacity = 16

// eventQueue buffers inbound events in arrival order while a turn is being
// processed. Over capacity, the oldest partial transcript is dropped with a
// warning; partials are advisory. Finals and control events are never
// dropped, so the queue grows past its bound rather than lose one.
type eventQueue struct {
	mu       sync.Mutex
	items    []events.Event
	capacity int
	closed   bool
	wake     chan struct{}
}

func newEventQueue(capacity int) *eventQueue {
	if capacity <= 0 {
		capacity = defaultQueueCapacity
	}
	return &eventQueue{
		capacity: capacity,
		wake:     make(chan struct{}, 1),
	}
}

// Push appends an event. Pushing to a closed queue is a no-op.
func (q *eventQueue) Push(event events.Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}

	if len(q.items) >= q.capacity {
		if dropped, ok := q.dropOldestPartial(); ok {
			logger.Warn("Event queue over capacity, dropped oldest partial transcript",
				"capacity", q.capacity, "dropped", string(dropped.Kind()))
		}
	}

	q.items = append(q.items, event)
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *eventQueue) dropOldestPartial() (events.Event, bool) {
	for i, item := range q.items {
		if _, ok := item.(events.TranscriptPartial); ok {
			dropped := q.items[i]
			q.items = append(q.items[:i], q.items[i+1:]...)
			return dropped, true
		}
	}
	return nil, false
}

// Pop blocks until an event is available, the queue is closed and drained,
// or ctx is cancelled.
func (q *eventQueue) Pop(ctx context.Context) (events.Event, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			event := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return event, true
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return nil, false
		}

		select {
		case <-ctx.Done():
			return nil, false
		case <-q.wake:
		}
	}
}

// Close discards buffered events and unblocks Pop.
func (q *eventQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.items = nil
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
