// Package session ties one server connection to the components that live for
// as long as it does: the history ring, the router, the oob dispatcher and the
// message bus between them and the transport.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"mudclient/pkg/bus"
	"mudclient/pkg/channel"
	"mudclient/pkg/config"
	"mudclient/pkg/display"
	"mudclient/pkg/history"
	"mudclient/pkg/oob"
	"mudclient/pkg/router"

	"github.com/google/uuid"
)

// ClosedNotice is shown as an alert once the server connection is gone.
const ClosedNotice = "The connection to the server has been closed."

const closeTimeout = 5 * time.Second

// ErrClosed is returned when sending on a session whose connection has ended.
var ErrClosed = errors.New("session closed")

// State is the connection state as seen by the consumer.
type State string

const (
	StateConnecting State = "connecting"
	StateConnected  State = "connected"
	StateClosed     State = "closed"
)

// Options configures Start.
type Options struct {
	Config    *config.Config
	Transport channel.Transport
	// Display receives everything the session shows; a scrollback buffer
	// sized from the config is used when nil.
	Display  display.Display
	Registry *oob.Registry
	Log      *slog.Logger
	// KeepaliveInterval overrides server.keepalive_interval_seconds.
	KeepaliveInterval time.Duration
	ObserveEvents     bool
}

// Status is a point-in-time snapshot safe to read from any goroutine.
type Status struct {
	ID               string    `json:"id"`
	URL              string    `json:"url"`
	State            State     `json:"state"`
	ConnectedAt      time.Time `json:"connected_at,omitzero"`
	FramesReceived   uint64    `json:"frames_received"`
	FramesSent       uint64    `json:"frames_sent"`
	DispatchFailures uint64    `json:"dispatch_failures"`
	LastError        string    `json:"last_error,omitempty"`
}

// Session coordinates one connection to a game server.
//
// It owns:
//   - one message bus shared with the transport,
//   - one transport goroutine,
//   - one keepalive goroutine while the interval is positive,
//   - and the history ring, router and dispatcher fed by the consumer.
//
// Next, HandleFrame and the input methods must be called from a single
// consumer goroutine; Status and Close may be called from anywhere.
type Session struct {
	id       string
	url      string
	oobDebug bool

	messageBus *bus.MessageBus
	transport  channel.Transport
	out        *dialogTracker
	history    *history.Ring
	router     *router.Router
	log        *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	runErr error

	mu          sync.RWMutex
	state       State
	connectedAt time.Time
	lastError   string

	framesReceived   atomic.Uint64
	framesSent       atomic.Uint64
	dispatchFailures atomic.Uint64

	closeOnce sync.Once
}

// Start builds the session and starts the transport. It does not wait for the
// connection; the consumer learns about it from the first frame.
func Start(ctx context.Context, opts Options) (*Session, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	if opts.Transport == nil {
		return nil, errors.New("transport is required")
	}

	log := opts.Log
	if log == nil {
		log = slog.Default()
	}

	out := opts.Display
	if out == nil {
		out = display.NewBuffer(opts.Config.Client.ScrollbackLines)
	}

	id := uuid.NewString()
	log = log.With("session_id", id)

	runCtx, cancel := context.WithCancel(ctx)
	s := &Session{
		id:         id,
		url:        opts.Config.Server.URL,
		oobDebug:   opts.Config.Client.OOBDebug,
		messageBus: bus.NewMessageBus(),
		transport:  opts.Transport,
		out:        &dialogTracker{Display: out},
		history:    history.New(opts.Config.Client.HistoryMaxLength),
		log:        log.With("component", "session"),
		ctx:        runCtx,
		cancel:     cancel,
		done:       make(chan struct{}),
		state:      StateConnecting,
	}

	dispatcher := oob.NewDispatcher(opts.Registry, s.out, log, s.onDispatchFailure)
	s.router = router.New(s.out, dispatcher, log)

	if opts.ObserveEvents {
		go observeEvents(runCtx, s.messageBus, log)
	}

	go s.runTransport()

	interval := opts.KeepaliveInterval
	if interval == 0 {
		interval = opts.Config.Server.KeepaliveInterval()
	}
	if interval > 0 {
		go s.keepalive(runCtx, interval)
	}

	s.log.Info("Session started", "url", s.url, "transport", opts.Transport.Name())
	return s, nil
}

// ID returns the session identifier attached to every log record.
func (s *Session) ID() string {
	return s.id
}

// URL returns the server url the session was started for.
func (s *Session) URL() string {
	return s.url
}

// History exposes the recall ring for the input line.
func (s *Session) History() *history.Ring {
	return s.history
}

// Dialog returns the open input overlay, if any.
func (s *Session) Dialog() (display.Dialog, bool) {
	return s.out.current()
}

// State returns the current connection state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Status returns a snapshot for status endpoints.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		ID:               s.id,
		URL:              s.url,
		State:            s.state,
		ConnectedAt:      s.connectedAt,
		FramesReceived:   s.framesReceived.Load(),
		FramesSent:       s.framesSent.Load(),
		DispatchFailures: s.dispatchFailures.Load(),
		LastError:        s.lastError,
	}
}

// Events subscribes to the session's lifecycle events.
func (s *Session) Events(ctx context.Context, buffer int) (<-chan bus.Event, func()) {
	return s.messageBus.SubscribeEvents(ctx, buffer)
}

// Next blocks for the next inbound frame. It returns false once the stream
// has ended and every queued frame was delivered, or when ctx is done.
func (s *Session) Next(ctx context.Context) (bus.InboundFrame, bool) {
	return s.messageBus.ConsumeInbound(ctx)
}

// HandleFrame applies one inbound frame to the display.
func (s *Session) HandleFrame(frame bus.InboundFrame) {
	switch frame.Kind {
	case bus.InboundOpen:
		s.setState(StateConnected, frame.At, "")
		s.out.AppendLine(display.ChannelSystem, fmt.Sprintf("Using websockets - connected to %s.", s.url))
	case bus.InboundMessage:
		s.framesReceived.Add(1)
		s.router.Route([]byte(frame.Data))
	case bus.InboundError:
		s.mu.Lock()
		s.lastError = frame.Data
		s.mu.Unlock()
		s.log.Warn("Transport error", "error", frame.Data)
		s.out.AppendLine(display.ChannelError, fmt.Sprintf("Connection error trying to access websocket on %s. Contact the admin and/or check settings.WEBSOCKET_CLIENT_URL.", s.url))
	case bus.InboundClose:
		s.setState(StateClosed, time.Time{}, frame.Data)
		s.out.OpenInputDialog(display.DialogAlert, ClosedNotice)
	default:
		s.log.Warn("Ignoring inbound frame of unknown kind", "kind", string(frame.Kind))
	}
}

// Done is closed when the transport has stopped.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err returns the transport's final error once Done is closed.
func (s *Session) Err() error {
	select {
	case <-s.done:
		return s.runErr
	default:
		return nil
	}
}

// Close stops the transport and releases the bus. Frames still queued are
// dropped.
func (s *Session) Close() {
	if s == nil {
		return
	}

	s.closeOnce.Do(func() {
		s.cancel()

		select {
		case <-s.done:
		case <-time.After(closeTimeout):
			s.log.Warn("Transport did not stop in time")
		}

		s.messageBus.Close()
		s.log.Info("Session closed", "frames_received", s.framesReceived.Load(), "frames_sent", s.framesSent.Load())
	})
}

func (s *Session) runTransport() {
	defer close(s.done)

	err := s.transport.Run(s.ctx, s.messageBus)
	if err != nil {
		s.log.Error("Transport stopped", "error", err)
	}
	s.runErr = err
}

func (s *Session) setState(state State, connectedAt time.Time, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = state
	if !connectedAt.IsZero() {
		s.connectedAt = connectedAt
	}

	attrs := []any{"state", string(state)}
	if reason != "" {
		attrs = append(attrs, "reason", reason)
	}
	s.log.Info("Connection state changed", attrs...)
}

func (s *Session) onDispatchFailure(err error) {
	s.dispatchFailures.Add(1)
	_ = s.messageBus.PublishEvent(s.ctx, bus.Event{
		Type:      bus.EventDispatchFailed,
		SessionID: s.id,
		URL:       s.url,
		Payload: map[string]string{
			"category": oob.CategoryFromError(err),
			"failures": strconv.FormatUint(s.dispatchFailures.Load(), 10),
		},
		Error: err.Error(),
	})
}
