// Package router turns inbound server frames into display effects.
package router

import (
	"log/slog"

	"mudclient/pkg/display"
	"mudclient/pkg/protocol"
)

// OOBDispatcher runs a batch of out-of-band calls in order.
type OOBDispatcher interface {
	DispatchAll(calls []protocol.OOBCall)
}

// Router classifies each frame and fans its fields out to the display and the
// oob dispatcher. It keeps no state between frames.
type Router struct {
	out        display.Display
	dispatcher OOBDispatcher
	log        *slog.Logger
}

// New builds a router writing to out.
func New(out display.Display, dispatcher OOBDispatcher, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}

	return &Router{
		out:        out,
		dispatcher: dispatcher,
		log:        log.With("component", "router"),
	}
}

// Route handles one frame. Frames that are not JSON objects are shown
// verbatim; structured fields are handled in the order oob, prompt,
// clear_links, text.
func (r *Router) Route(payload []byte) {
	msg, err := protocol.Decode(payload)
	if err != nil {
		r.out.AppendLine(display.ChannelText, string(payload))
		return
	}

	r.RouteMessage(msg)
}

// RouteMessage handles an already decoded frame.
func (r *Router) RouteMessage(msg protocol.InboundMessage) {
	if len(msg.OOB) > 0 {
		if r.dispatcher != nil {
			r.dispatcher.DispatchAll(msg.OOB)
		} else {
			r.log.Warn("Dropping oob batch without dispatcher", "calls", len(msg.OOB))
		}
	}

	if msg.Prompt != "" {
		r.out.ShowPrompt(msg.Prompt)
	}

	if msg.ClearLinks {
		r.out.ClearLinks()
	}

	if msg.Text != "" {
		r.showText(msg.Type, msg.Text)
	}
}

func (r *Router) showText(kind protocol.TextType, text string) {
	switch kind {
	case protocol.TextInput:
		r.out.OpenInputDialog(display.DialogText, text)
	case protocol.TextInputPassword:
		r.out.OpenInputDialog(display.DialogPassword, text)
	case protocol.TextAlert:
		r.out.OpenInputDialog(display.DialogAlert, text)
	case "", protocol.TextPlain:
		r.out.AppendLine(display.ChannelText, text)
	default:
		// Newer servers may send types this client does not know yet.
		r.log.Debug("Unknown text type, showing as plain text", "type", string(kind))
		r.out.AppendLine(display.ChannelText, text)
	}
}
