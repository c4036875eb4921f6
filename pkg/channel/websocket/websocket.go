package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"mudclient/pkg/bus"
	"mudclient/pkg/config"

	ws "github.com/gorilla/websocket"
)

const transportName = "websocket"
const writeWait = 10 * time.Second

// Transport is a client-side websocket connection to a game server.
type Transport struct {
	cfg    config.ServerConfig
	url    string
	dialer *ws.Dialer
	log    *slog.Logger
}

// New validates the server url and prepares a dialer. No connection is made
// until Run.
func New(cfg config.ServerConfig, log *slog.Logger) (*Transport, error) {
	rawURL := strings.TrimSpace(cfg.URL)
	if rawURL == "" {
		return nil, errors.New("server.url is required")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if parsed.Scheme != "ws" && parsed.Scheme != "wss" {
		return nil, fmt.Errorf("server url %q must use ws:// or wss://", rawURL)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("server url %q has no host", rawURL)
	}

	if log == nil {
		log = slog.Default()
	}

	return &Transport{
		cfg: cfg,
		url: rawURL,
		dialer: &ws.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.HandshakeTimeout(),
		},
		log: log.With("component", "channel.websocket"),
	}, nil
}

// Name returns the transport identifier used in logs.
func (t *Transport) Name() string {
	return transportName
}

// URL returns the server url this transport dials.
func (t *Transport) URL() string {
	return t.url
}

// Run dials the server and pumps frames until the connection ends. The
// consumer sees one InboundOpen (on success), the received messages, at most
// one InboundError and a final InboundClose, in that order. A close initiated
// by the server or by ctx is not an error.
func (t *Transport) Run(ctx context.Context, mb *bus.MessageBus) error {
	if mb == nil {
		return errors.New("message bus is required")
	}

	raw, resp, err := t.dialer.DialContext(ctx, t.url, t.header())
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		err = fmt.Errorf("dial %s: %w", t.url, err)
		t.log.Error("Websocket dial failed", "url", t.url, "error", err)
		t.report(ctx, mb, err, nil)
		return err
	}

	c := &conn{Conn: raw}
	if t.cfg.ReadLimitBytes > 0 {
		raw.SetReadLimit(t.cfg.ReadLimitBytes)
	}

	t.log.Info("Websocket connected", "url", t.url)
	mb.PublishInbound(ctx, bus.InboundFrame{Kind: bus.InboundOpen, At: time.Now().UTC()})
	t.publish(ctx, mb, bus.Event{Type: bus.EventConnected})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	readDone := make(chan error, 1)
	go func() {
		readDone <- t.readLoop(runCtx, c, mb)
		cancel()
	}()

	writeErr := t.writeLoop(runCtx, c, mb)
	if ctx.Err() != nil {
		_ = c.writeClose(ws.CloseNormalClosure, "")
	}
	_ = c.Close()
	readErr := <-readDone

	return t.finish(ctx, mb, readErr, writeErr)
}

func (t *Transport) header() http.Header {
	origin := strings.TrimSpace(t.cfg.Origin)
	if origin == "" {
		return nil
	}

	return http.Header{"Origin": []string{origin}}
}

// readLoop forwards frames in arrival order until the connection fails.
func (t *Transport) readLoop(ctx context.Context, c *conn, mb *bus.MessageBus) error {
	for {
		_, payload, err := c.ReadMessage()
		if err != nil {
			return err
		}

		frame := bus.InboundFrame{Kind: bus.InboundMessage, Data: string(payload), At: time.Now().UTC()}
		if !mb.PublishInbound(ctx, frame) {
			return nil
		}

		t.log.Debug("Frame received", "bytes", len(payload))
		t.publish(ctx, mb, bus.Event{
			Type:    bus.EventFrameReceived,
			Payload: map[string]string{"bytes": strconv.Itoa(len(payload))},
		})
	}
}

// writeLoop drains the outbound queue until ctx ends or a write fails.
func (t *Transport) writeLoop(ctx context.Context, c *conn, mb *bus.MessageBus) error {
	for {
		frame, ok := mb.SubscribeOutbound(ctx)
		if !ok {
			return nil
		}

		if err := c.writeText(frame.Data); err != nil {
			return fmt.Errorf("write %s frame: %w", frame.Kind, err)
		}

		t.log.Debug("Frame sent", "kind", frame.Kind, "bytes", len(frame.Data))
		t.publish(ctx, mb, bus.Event{
			Type:    bus.EventFrameSent,
			Payload: map[string]string{"kind": string(frame.Kind), "bytes": strconv.Itoa(len(frame.Data))},
		})
	}
}

// finish picks the error Run returns and reports how the connection ended.
func (t *Transport) finish(ctx context.Context, mb *bus.MessageBus, readErr, writeErr error) error {
	var closeErr *ws.CloseError
	errors.As(readErr, &closeErr)

	var err error
	switch {
	case ctx.Err() != nil:
		t.log.Info("Websocket closed by client", "url", t.url)
	case writeErr != nil:
		err = writeErr
	case readErr != nil && !ws.IsCloseError(readErr, ws.CloseNormalClosure, ws.CloseGoingAway):
		err = fmt.Errorf("read frame: %w", readErr)
	default:
		attrs := []any{"url", t.url}
		if closeErr != nil {
			attrs = append(attrs, "code", closeErr.Code)
		}
		t.log.Info("Websocket closed by server", attrs...)
	}

	if err != nil {
		t.log.Error("Websocket connection failed", "url", t.url, "error", err)
	}
	t.report(ctx, mb, err, closeErr)

	return err
}

// report queues the trailing error and close frames and their events. It
// outlives ctx briefly so a consumer still draining the bus learns why the
// stream ended.
func (t *Transport) report(ctx context.Context, mb *bus.MessageBus, err error, closeErr *ws.CloseError) {
	final, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeWait)
	defer cancel()

	now := time.Now().UTC()
	if err != nil {
		mb.PublishInbound(final, bus.InboundFrame{Kind: bus.InboundError, Data: err.Error(), At: now})
		t.publish(final, mb, bus.Event{Type: bus.EventTransportError, Error: err.Error()})
	}

	payload := map[string]string{}
	if closeErr != nil {
		payload["code"] = strconv.Itoa(closeErr.Code)
		if closeErr.Text != "" {
			payload["reason"] = closeErr.Text
		}
	}
	mb.PublishInbound(final, bus.InboundFrame{Kind: bus.InboundClose, Data: payload["reason"], At: now})
	t.publish(final, mb, bus.Event{Type: bus.EventDisconnected, Payload: payload})
}

func (t *Transport) publish(ctx context.Context, mb *bus.MessageBus, event bus.Event) {
	event.URL = t.url
	mb.PublishEvent(ctx, event)
}

// conn serializes writes; gorilla allows one concurrent writer.
type conn struct {
	*ws.Conn
	mu sync.Mutex
}

func (c *conn) writeText(data string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.Conn.WriteMessage(ws.TextMessage, []byte(data))
}

func (c *conn) writeClose(code int, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteControl(ws.CloseMessage, ws.FormatCloseMessage(code, text), time.Now().Add(writeWait))
}
