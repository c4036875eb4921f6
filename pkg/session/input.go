package session

import (
	"context"
	"strings"

	"mudclient/pkg/bus"
	"mudclient/pkg/display"
	"mudclient/pkg/protocol"
)

const debugOOBSyntax = `OOB testing syntax: ##OOB{"cmdname:args, ...}`

// Send submits one typed line. The line is committed to history unless it
// answers a password request, any open input dialog is closed, and the line
// is sent raw. With oob debugging enabled, lines starting with ##OOB are
// handled locally instead.
//
// Lines sent before the connection opens are queued.
func (s *Session) Send(ctx context.Context, line string) error {
	if dialog, ok := s.out.current(); !ok || !dialog.Masked() {
		s.history.Commit(line)
	}
	s.out.CloseInputDialog()

	if s.oobDebug && protocol.IsDebugOOB(line) {
		return s.sendDebugOOB(ctx, line)
	}

	return s.send(ctx, bus.OutboundLine, line)
}

// Cancel declines the open input request.
func (s *Session) Cancel(ctx context.Context) error {
	err := s.send(ctx, bus.OutboundCancel, protocol.NoInputCommand)
	s.out.CloseInputDialog()
	return err
}

// Dismiss closes the open dialog without telling the server.
func (s *Session) Dismiss() {
	s.out.CloseInputDialog()
}

// SendOOB sends a handler-name to arguments mapping to the server. There is
// no reply matching.
func (s *Session) SendOOB(ctx context.Context, calls map[string]any) error {
	frame, err := protocol.EncodeOOB(calls)
	if err != nil {
		return err
	}

	return s.send(ctx, bus.OutboundOOB, frame)
}

// RecallPrevious steps the history cursor towards older entries.
func (s *Session) RecallPrevious() string {
	return s.history.StepBack()
}

// RecallNext steps the history cursor back towards the empty slot.
func (s *Session) RecallNext() string {
	return s.history.StepForward()
}

func (s *Session) sendDebugOOB(ctx context.Context, line string) error {
	if line == protocol.DebugOOBUnitTest {
		s.out.AppendLine(display.ChannelOut, "OOB testing mode ...")
		for _, calls := range protocol.UnitTestCalls() {
			if err := s.SendOOB(ctx, calls); err != nil {
				return err
			}
		}
		s.out.AppendLine(display.ChannelOut, "... OOB testing mode done.")
		return nil
	}

	body := strings.TrimPrefix(line, protocol.DebugOOBPrefix)
	s.out.AppendLine(display.ChannelOut, "OOB input: "+body)
	if body == "" {
		s.out.AppendLine(display.ChannelError, debugOOBSyntax)
		return nil
	}

	calls, err := protocol.ParseDebugOOB(line)
	if err != nil {
		s.out.AppendLine(display.ChannelError, err.Error())
		return nil
	}

	return s.SendOOB(ctx, calls)
}

func (s *Session) send(ctx context.Context, kind bus.OutboundKind, data string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if s.State() == StateClosed {
		return ErrClosed
	}
	// The close frame may still be queued after the transport has stopped.
	select {
	case <-s.done:
		return ErrClosed
	default:
	}

	if ok := s.messageBus.PublishOutbound(ctx, bus.OutboundFrame{Kind: kind, Data: data}); !ok {
		if err := ctx.Err(); err != nil {
			return err
		}
		return ErrClosed
	}

	s.framesSent.Add(1)
	return nil
}
