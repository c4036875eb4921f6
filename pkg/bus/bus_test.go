package bus

import (
	"context"
	"testing"
	"time"
)

func TestInboundRoundTrip(t *testing.T) {
	mb := NewMessageBus()
	t.Cleanup(mb.Close)

	in := InboundFrame{Kind: InboundMessage, Data: `{"text":"hello"}`, At: time.Now()}
	if ok := mb.PublishInbound(context.Background(), in); !ok {
		t.Fatal("expected inbound publish to succeed")
	}

	out, ok := mb.ConsumeInbound(context.Background())
	if !ok {
		t.Fatal("expected inbound consume to succeed")
	}
	if out.Kind != InboundMessage || out.Data != in.Data {
		t.Fatalf("frame = %+v, want %+v", out, in)
	}
}

func TestInboundKeepsArrivalOrder(t *testing.T) {
	mb := NewMessageBus()
	t.Cleanup(mb.Close)

	want := []string{"one", "two", "three"}
	for _, data := range want {
		if ok := mb.PublishInbound(context.Background(), InboundFrame{Data: data}); !ok {
			t.Fatalf("publish %q failed", data)
		}
	}

	for _, data := range want {
		got, ok := mb.ConsumeInbound(context.Background())
		if !ok {
			t.Fatal("expected inbound consume to succeed")
		}
		if got.Data != data {
			t.Fatalf("data = %q, want %q", got.Data, data)
		}
	}
}

func TestOutboundRoundTrip(t *testing.T) {
	mb := NewMessageBus()
	t.Cleanup(mb.Close)

	in := OutboundFrame{Kind: OutboundLine, Data: "look"}
	if ok := mb.PublishOutbound(context.Background(), in); !ok {
		t.Fatal("expected outbound publish to succeed")
	}

	out, ok := mb.SubscribeOutbound(context.Background())
	if !ok {
		t.Fatal("expected outbound subscribe to succeed")
	}
	if out != in {
		t.Fatalf("frame = %+v, want %+v", out, in)
	}
}

func TestCloseStopsBusOperations(t *testing.T) {
	mb := NewMessageBus()
	mb.Close()

	if ok := mb.PublishInbound(context.Background(), InboundFrame{Data: "hello"}); ok {
		t.Fatal("expected inbound publish to fail after close")
	}
	if ok := mb.PublishOutbound(context.Background(), OutboundFrame{Data: "hello"}); ok {
		t.Fatal("expected outbound publish to fail after close")
	}

	if _, ok := mb.ConsumeInbound(context.Background()); ok {
		t.Fatal("expected inbound consume to stop after close")
	}
	if _, ok := mb.SubscribeOutbound(context.Background()); ok {
		t.Fatal("expected outbound subscribe to stop after close")
	}

	select {
	case <-mb.Done():
	default:
		t.Fatal("expected done channel to be closed")
	}
}

func TestQueuedInboundSurvivesClose(t *testing.T) {
	mb := NewMessageBus()

	if ok := mb.PublishInbound(context.Background(), InboundFrame{Data: "last words"}); !ok {
		t.Fatal("expected inbound publish to succeed")
	}
	mb.Close()

	got, ok := mb.ConsumeInbound(context.Background())
	if !ok {
		t.Fatal("expected queued frame after close")
	}
	if got.Data != "last words" {
		t.Fatalf("data = %q, want %q", got.Data, "last words")
	}
	if _, ok := mb.ConsumeInbound(context.Background()); ok {
		t.Fatal("expected empty queue after drain")
	}
}

func TestCanceledContextDrainsQueue(t *testing.T) {
	mb := NewMessageBus()
	t.Cleanup(mb.Close)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if ok := mb.PublishInbound(context.Background(), InboundFrame{Data: "queued"}); !ok {
		t.Fatal("expected inbound publish to succeed")
	}

	if got, ok := mb.ConsumeInbound(ctx); !ok || got.Data != "queued" {
		t.Fatalf("consume = (%q, %v), want queued frame", got.Data, ok)
	}
	if _, ok := mb.ConsumeInbound(ctx); ok {
		t.Fatal("expected consume to fail on canceled context with empty queue")
	}
}

func TestContextCancellation(t *testing.T) {
	mb := NewMessageBus()
	t.Cleanup(mb.Close)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if ok := mb.PublishInbound(ctx, InboundFrame{Data: "hello"}); ok {
		t.Fatal("expected publish to fail on canceled context")
	}
	if ok := mb.PublishOutbound(ctx, OutboundFrame{Data: "hello"}); ok {
		t.Fatal("expected outbound publish to fail on canceled context")
	}
}

func TestConsumeUnblocksOnClose(t *testing.T) {
	mb := NewMessageBus()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = mb.ConsumeInbound(context.Background())
	}()

	mb.Close()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("consume did not unblock after close")
	}
}

func TestSubscribeUnblocksOnClose(t *testing.T) {
	mb := NewMessageBus()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = mb.SubscribeOutbound(context.Background())
	}()

	mb.Close()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("subscribe did not unblock after close")
	}
}

func TestEventFanout(t *testing.T) {
	mb := NewMessageBus()
	t.Cleanup(mb.Close)

	ctx := context.Background()
	eventsA, unsubA := mb.SubscribeEvents(ctx, 1)
	defer unsubA()
	eventsB, unsubB := mb.SubscribeEvents(ctx, 1)
	defer unsubB()

	event := Event{Type: EventConnected, URL: "ws://localhost:8001/websocket"}
	if ok := mb.PublishEvent(ctx, event); !ok {
		t.Fatal("expected event publish to succeed")
	}

	for name, events := range map[string]<-chan Event{"A": eventsA, "B": eventsB} {
		select {
		case got := <-events:
			if got.Type != EventConnected {
				t.Fatalf("subscriber %s event type = %q, want %q", name, got.Type, EventConnected)
			}
			if got.At.IsZero() {
				t.Fatalf("subscriber %s expected event timestamp", name)
			}
		case <-time.After(500 * time.Millisecond):
			t.Fatalf("subscriber %s did not receive event", name)
		}
	}
}

func TestSlowSubscriberDoesNotBlockPublishEvent(t *testing.T) {
	mb := NewMessageBus()
	t.Cleanup(mb.Close)

	ctx := context.Background()
	events, unsubscribe := mb.SubscribeEvents(ctx, 1)
	defer unsubscribe()

	if ok := mb.PublishEvent(ctx, Event{Type: EventFrameReceived}); !ok {
		t.Fatal("expected first event publish to succeed")
	}

	start := time.Now()
	if ok := mb.PublishEvent(ctx, Event{Type: EventFrameSent}); !ok {
		t.Fatal("expected second event publish to succeed")
	}

	if time.Since(start) > 100*time.Millisecond {
		t.Fatal("publish event blocked on slow subscriber")
	}

	select {
	case <-events:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected at least one event")
	}
}

func TestUnsubscribeStopsEvents(t *testing.T) {
	mb := NewMessageBus()
	t.Cleanup(mb.Close)

	ctx := context.Background()
	events, unsubscribe := mb.SubscribeEvents(ctx, 1)
	unsubscribe()

	if ok := mb.PublishEvent(ctx, Event{Type: EventDisconnected}); !ok {
		t.Fatal("expected event publish to succeed")
	}

	select {
	case _, ok := <-events:
		if ok {
			t.Fatal("expected closed event channel")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected event channel close after unsubscribe")
	}
}

func TestSubscribeEventsUnblocksOnClose(t *testing.T) {
	mb := NewMessageBus()

	ctx := context.Background()
	events, _ := mb.SubscribeEvents(ctx, 1)
	mb.Close()

	select {
	case _, ok := <-events:
		if ok {
			t.Fatal("expected event channel to be closed")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("event subscription did not unblock after close")
	}
}
