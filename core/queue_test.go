package dialogue

import (
	"context"
	"testing"
	"time"

	"github.com/odiadev/ruthie-core/core/events"
)

func TestQueuePreservesArrivalOrder(t *testing.T) {
	queue := newEventQueue(4)
	queue.Push(events.NewTranscriptFinal("first"))
	queue.Push(events.NewTranscriptFinal("second"))

	for _, want := range []string{"first", "second"} {
		event, ok := queue.Pop(context.Background())
		if !ok {
			t.Fatal("expected an event")
		}
		if got := event.(events.TranscriptFinal).Text; got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	}
}

func TestQueueDropsOldestPartialOverCapacity(t *testing.T) {
	queue := newEventQueue(3)
	queue.Push(events.NewTranscriptPartial("old partial"))
	queue.Push(events.NewTranscriptFinal("final one"))
	queue.Push(events.NewTranscriptPartial("new partial"))
	queue.Push(events.NewTranscriptFinal("final two"))

	if got := queue.Len(); got != 3 {
		t.Fatalf("expected queue to stay at capacity, got %d", got)
	}

	event, _ := queue.Pop(context.Background())
	if got := event.(events.TranscriptFinal).Text; got != "final one" {
		t.Fatalf("expected the oldest partial to be dropped, got %v first", event.Kind())
	}
}

func TestQueueNeverDropsFinals(t *testing.T) {
	queue := newEventQueue(2)
	queue.Push(events.NewTranscriptFinal("one"))
	queue.Push(events.NewTranscriptFinal("two"))
	queue.Push(events.NewTranscriptFinal("three"))

	if got := queue.Len(); got != 3 {
		t.Fatalf("expected the queue to grow rather than drop a final, got %d", got)
	}
}

func TestQueuePopBlocksUntilPush(t *testing.T) {
	queue := newEventQueue(4)
	go func() {
		time.Sleep(10 * time.Millisecond)
		queue.Push(events.NewTranscriptFinal("late"))
	}()

	event, ok := queue.Pop(context.Background())
	if !ok || event.(events.TranscriptFinal).Text != "late" {
		t.Fatalf("expected the late event, got %v ok=%t", event, ok)
	}
}

func TestQueueCloseDiscardsAndUnblocks(t *testing.T) {
	queue := newEventQueue(4)
	queue.Push(events.NewTranscriptFinal("buffered"))
	queue.Close()

	if _, ok := queue.Pop(context.Background()); ok {
		t.Fatal("expected Pop on a closed queue to report closed")
	}

	queue.Push(events.NewTranscriptFinal("after close"))
	if got := queue.Len(); got != 0 {
		t.Fatalf("expected pushes after close to be discarded, got %d", got)
	}
}

func TestQueuePopHonorsContextCancellation(t *testing.T) {
	queue := newEventQueue(4)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	if _, ok := queue.Pop(ctx); ok {
		t.Fatal("expected Pop to give up on cancellation")
	}
}
