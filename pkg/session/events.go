package session

import (
	"context"
	"log/slog"

	"mudclient/pkg/bus"
)

func observeEvents(ctx context.Context, messageBus *bus.MessageBus, log *slog.Logger) {
	// Buffered so transport goroutines never block on logging; the bus drops
	// events for slow subscribers.
	log = log.With("component", "bus.events")
	events, unsubscribe := messageBus.SubscribeEvents(ctx, 64)
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			logEvent(log, event)
		}
	}
}

func logEvent(log *slog.Logger, event bus.Event) {
	attrs := []any{
		"event_type", event.Type,
		"url", event.URL,
		"timestamp", event.At.UTC().Format("2006-01-02T15:04:05.999999999Z07:00"),
	}
	if len(event.Payload) > 0 {
		attrs = append(attrs, "payload", event.Payload)
	}

	switch event.Type {
	case bus.EventTransportError:
		log.Error("Session event", append(attrs, "error", event.Error)...)
	case bus.EventDispatchFailed:
		log.Warn("Session event", append(attrs, "error", event.Error)...)
	case bus.EventConnected, bus.EventDisconnected:
		log.Info("Session event", attrs...)
	default:
		log.Debug("Session event", attrs...)
	}
}
