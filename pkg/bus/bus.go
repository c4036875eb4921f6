package bus

import (
	"context"
	"sync"
)

const defaultBufferSize = 100

// MessageBus connects the transport goroutines to the single loop that owns
// the display: inbound frames in arrival order, outbound frames to write, and
// a lossy fan-out of lifecycle events.
type MessageBus struct {
	inbound  chan InboundFrame
	outbound chan OutboundFrame

	eventSubscribers      map[uint64]chan Event
	nextEventSubscriberID uint64

	done      chan struct{}
	closeOnce sync.Once

	mu sync.RWMutex
}

func NewMessageBus() *MessageBus {
	return &MessageBus{
		inbound:          make(chan InboundFrame, defaultBufferSize),
		outbound:         make(chan OutboundFrame, defaultBufferSize),
		eventSubscribers: make(map[uint64]chan Event),
		done:             make(chan struct{}),
	}
}

func (mb *MessageBus) PublishInbound(ctx context.Context, frame InboundFrame) bool {
	if ctx == nil {
		ctx = context.Background()
	}

	select {
	case <-ctx.Done():
		return false
	case <-mb.done:
		return false
	default:
	}

	select {
	case <-ctx.Done():
		return false
	case <-mb.done:
		return false
	case mb.inbound <- frame:
		return true
	}
}

// ConsumeInbound blocks for the next inbound frame. Frames already queued are
// returned even when ctx is done or the bus is closed, so a canceled context
// drains the queue without blocking.
func (mb *MessageBus) ConsumeInbound(ctx context.Context) (InboundFrame, bool) {
	if ctx == nil {
		ctx = context.Background()
	}

	select {
	case frame := <-mb.inbound:
		return frame, true
	default:
	}

	select {
	case <-ctx.Done():
		return InboundFrame{}, false
	case <-mb.done:
		select {
		case frame := <-mb.inbound:
			return frame, true
		default:
			return InboundFrame{}, false
		}
	case frame := <-mb.inbound:
		return frame, true
	}
}

func (mb *MessageBus) PublishOutbound(ctx context.Context, frame OutboundFrame) bool {
	if ctx == nil {
		ctx = context.Background()
	}

	select {
	case <-ctx.Done():
		return false
	case <-mb.done:
		return false
	default:
	}

	select {
	case <-ctx.Done():
		return false
	case <-mb.done:
		return false
	case mb.outbound <- frame:
		return true
	}
}

// Done is closed when the bus is closed.
func (mb *MessageBus) Done() <-chan struct{} {
	return mb.done
}

func (mb *MessageBus) SubscribeOutbound(ctx context.Context) (OutboundFrame, bool) {
	if ctx == nil {
		ctx = context.Background()
	}

	select {
	case <-ctx.Done():
		return OutboundFrame{}, false
	case <-mb.done:
		return OutboundFrame{}, false
	case frame := <-mb.outbound:
		return frame, true
	}
}

func (mb *MessageBus) Close() {
	mb.closeOnce.Do(func() {
		close(mb.done)

		mb.mu.Lock()
		for id, ch := range mb.eventSubscribers {
			close(ch)
			delete(mb.eventSubscribers, id)
		}
		mb.mu.Unlock()
	})
}
