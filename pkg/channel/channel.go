package channel

import (
	"context"

	"mudclient/pkg/bus"
)

// Transport carries frames between one game server and the message bus.
//
// Run publishes every received frame with PublishInbound, writes whatever is
// queued with PublishOutbound, and reports its lifecycle as bus events. It
// returns when the connection ends or ctx is canceled.
type Transport interface {
	Name() string
	Run(ctx context.Context, mb *bus.MessageBus) error
}
