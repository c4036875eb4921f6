package bus

import "time"

// InboundKind mirrors the websocket callbacks: open, message, error, close.
type InboundKind string

const (
	InboundOpen    InboundKind = "open"
	InboundMessage InboundKind = "message"
	InboundError   InboundKind = "error"
	InboundClose   InboundKind = "close"
)

// InboundFrame is one entry in the ordered stream a transport hands to the
// consumer. For InboundMessage, Data is the frame text; for InboundError it is
// the error text.
type InboundFrame struct {
	Kind InboundKind `json:"kind"`
	Data string      `json:"data,omitempty"`
	At   time.Time   `json:"at"`
}

// OutboundKind tags why an outbound frame was produced; the wire text is Data.
type OutboundKind string

const (
	OutboundLine      OutboundKind = "line"
	OutboundOOB       OutboundKind = "oob"
	OutboundKeepalive OutboundKind = "keepalive"
	OutboundCancel    OutboundKind = "cancel"
)

// OutboundFrame is one text frame queued for the game server.
type OutboundFrame struct {
	Kind OutboundKind `json:"kind"`
	Data string       `json:"data"`
}
