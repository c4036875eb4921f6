package session

import (
	"context"
	"time"

	"mudclient/pkg/bus"
	"mudclient/pkg/protocol"
)

// keepalive sends the idle token on every tick while connected.
func (s *Session) keepalive(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
			if s.State() != StateConnected {
				continue
			}
			if err := s.send(ctx, bus.OutboundKeepalive, protocol.KeepaliveToken); err != nil {
				s.log.Debug("Keepalive stopped", "error", err)
				return
			}
		}
	}
}
