package session

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"mudclient/pkg/bus"
	"mudclient/pkg/config"
	"mudclient/pkg/display"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testURL = "ws://game.example.test/websocket"

// fakeTransport queues scripted frames and records what the session writes.
type fakeTransport struct {
	frames []bus.InboundFrame
	sent   chan bus.OutboundFrame
}

func newFakeTransport(frames ...bus.InboundFrame) *fakeTransport {
	return &fakeTransport{frames: frames, sent: make(chan bus.OutboundFrame, 32)}
}

func (f *fakeTransport) Name() string { return "fake" }

func (f *fakeTransport) Run(ctx context.Context, mb *bus.MessageBus) error {
	for _, frame := range f.frames {
		if !mb.PublishInbound(ctx, frame) {
			return nil
		}
	}

	for {
		frame, ok := mb.SubscribeOutbound(ctx)
		if !ok {
			return nil
		}
		f.sent <- frame
	}
}

func (f *fakeTransport) next(t *testing.T) bus.OutboundFrame {
	t.Helper()

	select {
	case frame := <-f.sent:
		return frame
	case <-time.After(2 * time.Second):
		t.Fatal("no outbound frame")
		return bus.OutboundFrame{}
	}
}

func (f *fakeTransport) assertIdle(t *testing.T) {
	t.Helper()

	select {
	case frame := <-f.sent:
		t.Fatalf("unexpected outbound frame %+v", frame)
	case <-time.After(50 * time.Millisecond):
	}
}

func message(data string) bus.InboundFrame {
	return bus.InboundFrame{Kind: bus.InboundMessage, Data: data, At: time.Now()}
}

func startSession(t *testing.T, transport *fakeTransport, mutate func(*Options)) (*Session, *display.Buffer) {
	t.Helper()

	cfg := config.Default()
	cfg.Server.URL = testURL
	buffer := display.NewBuffer(cfg.Client.ScrollbackLines)

	opts := Options{
		Config:            cfg,
		Transport:         transport,
		Display:           buffer,
		Log:               slog.New(slog.NewTextHandler(io.Discard, nil)),
		KeepaliveInterval: -1,
	}
	if mutate != nil {
		mutate(&opts)
	}

	s, err := Start(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s, buffer
}

func lineTexts(buffer *display.Buffer) []string {
	var texts []string
	for _, line := range buffer.Lines() {
		texts = append(texts, string(line.Channel)+"|"+line.Text)
	}
	return texts
}

func TestStartValidatesOptions(t *testing.T) {
	t.Parallel()

	_, err := Start(context.Background(), Options{Transport: newFakeTransport()})
	require.Error(t, err)

	_, err = Start(context.Background(), Options{Config: config.Default()})
	require.Error(t, err)
}

func TestNextDeliversFramesInArrivalOrder(t *testing.T) {
	t.Parallel()

	transport := newFakeTransport(
		bus.InboundFrame{Kind: bus.InboundOpen, At: time.Now()},
		message(`{"text":"Welcome"}`),
		message("plain banner"),
		message(`{"prompt":"HP 10> "}`),
	)
	s, buffer := startSession(t, transport, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for range transport.frames {
		frame, ok := s.Next(ctx)
		require.True(t, ok)
		s.HandleFrame(frame)
	}

	assert.Equal(t, []string{
		"sys|Using websockets - connected to " + testURL + ".",
		"text|Welcome",
		"text|plain banner",
	}, lineTexts(buffer))
	assert.Equal(t, "HP 10> ", buffer.Prompt())

	status := s.Status()
	assert.Equal(t, StateConnected, status.State)
	assert.Equal(t, uint64(3), status.FramesReceived)
	assert.False(t, status.ConnectedAt.IsZero())
	assert.NotEmpty(t, status.ID)
	assert.Equal(t, testURL, s.URL())
}

func TestHandleFrameReportsErrorAndClose(t *testing.T) {
	t.Parallel()

	s, buffer := startSession(t, newFakeTransport(), nil)

	s.HandleFrame(bus.InboundFrame{Kind: bus.InboundError, Data: "dial: refused"})
	s.HandleFrame(bus.InboundFrame{Kind: bus.InboundClose})

	assert.Equal(t, []string{
		"err|Connection error trying to access websocket on " + testURL + ". Contact the admin and/or check settings.WEBSOCKET_CLIENT_URL.",
	}, lineTexts(buffer))

	dialog, ok := buffer.Dialog()
	require.True(t, ok)
	assert.Equal(t, display.DialogAlert, dialog.Kind)
	assert.Equal(t, ClosedNotice, dialog.Text)

	status := s.Status()
	assert.Equal(t, StateClosed, status.State)
	assert.Equal(t, "dial: refused", status.LastError)

	require.ErrorIs(t, s.Send(context.Background(), "look"), ErrClosed)
}

// stoppedTransport publishes its frames and returns without reading outbound.
type stoppedTransport struct {
	frames []bus.InboundFrame
}

func (stoppedTransport) Name() string { return "stopped" }

func (st stoppedTransport) Run(ctx context.Context, mb *bus.MessageBus) error {
	for _, frame := range st.frames {
		mb.PublishInbound(ctx, frame)
	}
	return nil
}

func TestSendAfterTransportStopsBeforeCloseFrameHandled(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Server.URL = testURL
	s, err := Start(context.Background(), Options{
		Config: cfg,
		Transport: stoppedTransport{frames: []bus.InboundFrame{
			{Kind: bus.InboundOpen, At: time.Now()},
			{Kind: bus.InboundClose, At: time.Now()},
		}},
		Log:               slog.New(slog.NewTextHandler(io.Discard, nil)),
		KeepaliveInterval: -1,
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("transport did not stop")
	}
	require.Equal(t, StateConnecting, s.State(), "close frame is still queued")

	require.ErrorIs(t, s.Send(context.Background(), "look"), ErrClosed)
	require.ErrorIs(t, s.SendOOB(context.Background(), map[string]any{"echo": []any{"hi"}}), ErrClosed)
	assert.Zero(t, s.Status().FramesSent)

	frame, ok := s.Next(context.Background())
	require.True(t, ok)
	assert.Equal(t, bus.InboundOpen, frame.Kind)
}

func TestSendCommitsAndTransmits(t *testing.T) {
	t.Parallel()

	transport := newFakeTransport()
	s, _ := startSession(t, transport, nil)

	require.NoError(t, s.Send(context.Background(), "look"))
	require.NoError(t, s.Send(context.Background(), "look"))
	require.NoError(t, s.Send(context.Background(), "north"))

	assert.Equal(t, bus.OutboundFrame{Kind: bus.OutboundLine, Data: "look"}, transport.next(t))
	assert.Equal(t, bus.OutboundFrame{Kind: bus.OutboundLine, Data: "look"}, transport.next(t))
	assert.Equal(t, bus.OutboundFrame{Kind: bus.OutboundLine, Data: "north"}, transport.next(t))

	assert.Equal(t, []string{"look", "north"}, s.History().Entries())
	assert.Equal(t, "north", s.RecallPrevious())
	assert.Equal(t, "look", s.RecallPrevious())
	assert.Equal(t, "north", s.RecallNext())
	assert.Equal(t, uint64(3), s.Status().FramesSent)
}

func TestSendAnswersInputDialogs(t *testing.T) {
	t.Parallel()

	transport := newFakeTransport()
	s, buffer := startSession(t, transport, nil)

	s.HandleFrame(message(`{"text":"Password:","type":"input_password"}`))
	_, open := s.Dialog()
	require.True(t, open)

	require.NoError(t, s.Send(context.Background(), "hunter2"))
	assert.Equal(t, "hunter2", transport.next(t).Data)
	assert.Empty(t, s.History().Entries(), "masked input stays out of history")
	_, open = buffer.Dialog()
	assert.False(t, open)

	s.HandleFrame(message(`{"text":"Name:","type":"input_text"}`))
	require.NoError(t, s.Send(context.Background(), "Bob"))
	assert.Equal(t, "Bob", transport.next(t).Data)
	assert.Equal(t, []string{"Bob"}, s.History().Entries())
	_, open = s.Dialog()
	assert.False(t, open)
}

func TestCancelSendsNoInputCommand(t *testing.T) {
	t.Parallel()

	transport := newFakeTransport()
	s, buffer := startSession(t, transport, nil)

	s.HandleFrame(message(`{"text":"Name:","type":"input_text"}`))
	require.NoError(t, s.Cancel(context.Background()))

	assert.Equal(t, bus.OutboundFrame{Kind: bus.OutboundCancel, Data: "__noinput_command"}, transport.next(t))
	_, open := buffer.Dialog()
	assert.False(t, open)
}

func TestDismissClosesAlertWithoutSending(t *testing.T) {
	t.Parallel()

	transport := newFakeTransport()
	s, buffer := startSession(t, transport, nil)

	s.HandleFrame(message(`{"text":"Hello","type":"alert"}`))
	s.Dismiss()

	_, open := buffer.Dialog()
	assert.False(t, open)
	transport.assertIdle(t)
}

func TestSendOOBEncodesMapping(t *testing.T) {
	t.Parallel()

	transport := newFakeTransport()
	s, _ := startSession(t, transport, nil)

	require.NoError(t, s.SendOOB(context.Background(), map[string]any{"echo": []any{1, 2}}))
	assert.Equal(t, bus.OutboundFrame{Kind: bus.OutboundOOB, Data: `OOB{"echo":[1,2]}`}, transport.next(t))
}

func TestDebugOOBInput(t *testing.T) {
	t.Parallel()

	t.Run("mapping", func(t *testing.T) {
		transport := newFakeTransport()
		s, buffer := startSession(t, transport, nil)

		require.NoError(t, s.Send(context.Background(), `##OOB{"echo":[1,2]}`))
		assert.Equal(t, bus.OutboundFrame{Kind: bus.OutboundOOB, Data: `OOB{"echo":[1,2]}`}, transport.next(t))
		assert.Equal(t, []string{`out|OOB input: {"echo":[1,2]}`}, lineTexts(buffer))
		assert.Equal(t, []string{`##OOB{"echo":[1,2]}`}, s.History().Entries())
	})

	t.Run("bare prefix", func(t *testing.T) {
		transport := newFakeTransport()
		s, buffer := startSession(t, transport, nil)

		require.NoError(t, s.Send(context.Background(), "##OOB"))
		assert.Equal(t, []string{"out|OOB input: ", "err|" + debugOOBSyntax}, lineTexts(buffer))
		transport.assertIdle(t)
	})

	t.Run("invalid json", func(t *testing.T) {
		transport := newFakeTransport()
		s, buffer := startSession(t, transport, nil)

		require.NoError(t, s.Send(context.Background(), "##OOB{nope"))
		lines := buffer.Lines()
		require.Len(t, lines, 2)
		assert.Equal(t, display.ChannelError, lines[1].Channel)
		assert.True(t, strings.HasPrefix(lines[1].Text, "decode oob input"))
		transport.assertIdle(t)
	})

	t.Run("unit test batch", func(t *testing.T) {
		transport := newFakeTransport()
		s, buffer := startSession(t, transport, nil)

		require.NoError(t, s.Send(context.Background(), "##OOBUNITTEST"))
		want := []string{
			`OOB{"ECHO":"Echo test"}`,
			`OOB{"LIST":"COMMANDS"}`,
			`OOB{"SEND":"CHARACTER_NAME"}`,
			`OOB{"REPORT":"TEST"}`,
			`OOB{"UNREPORT":"TEST"}`,
			`OOB{"REPEAT":1}`,
			`OOB{"UNREPEAT":1}`,
		}
		for _, data := range want {
			assert.Equal(t, data, transport.next(t).Data)
		}
		assert.Equal(t, []string{"out|OOB testing mode ...", "out|... OOB testing mode done."}, lineTexts(buffer))
	})

	t.Run("disabled", func(t *testing.T) {
		transport := newFakeTransport()
		s, buffer := startSession(t, transport, func(opts *Options) {
			opts.Config.Client.OOBDebug = false
		})

		require.NoError(t, s.Send(context.Background(), `##OOB{"echo":[1]}`))
		assert.Equal(t, bus.OutboundFrame{Kind: bus.OutboundLine, Data: `##OOB{"echo":[1]}`}, transport.next(t))
		assert.Empty(t, buffer.Lines())
	})
}

func TestKeepaliveSendsIdleWhileConnected(t *testing.T) {
	t.Parallel()

	transport := newFakeTransport()
	s, _ := startSession(t, transport, func(opts *Options) {
		opts.KeepaliveInterval = 10 * time.Millisecond
	})

	transport.assertIdle(t)

	s.HandleFrame(bus.InboundFrame{Kind: bus.InboundOpen, At: time.Now()})
	assert.Equal(t, bus.OutboundFrame{Kind: bus.OutboundKeepalive, Data: "idle"}, transport.next(t))
}

func TestDispatchFailurePublishesEvent(t *testing.T) {
	t.Parallel()

	s, buffer := startSession(t, newFakeTransport(), nil)
	events, unsubscribe := s.Events(context.Background(), 4)
	defer unsubscribe()

	s.HandleFrame(message(`{"oob":[["teleport",["home"],{}],["echo",["still here"],{}]]}`))

	select {
	case event := <-events:
		assert.Equal(t, bus.EventDispatchFailed, event.Type)
		assert.Equal(t, s.ID(), event.SessionID)
		assert.Equal(t, "lookup", event.Payload["category"])
	case <-time.After(2 * time.Second):
		t.Fatal("no dispatch event")
	}

	lines := buffer.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, display.ChannelError, lines[0].Channel)
	assert.Equal(t, "ECHO return: still here", lines[1].Text)
	assert.Equal(t, uint64(1), s.Status().DispatchFailures)
}

func TestCloseStopsTransport(t *testing.T) {
	t.Parallel()

	s, _ := startSession(t, newFakeTransport(), nil)
	s.Close()

	select {
	case <-s.Done():
	default:
		t.Fatal("transport still running after close")
	}
	require.NoError(t, s.Err())

	_, ok := s.Next(context.Background())
	assert.False(t, ok)
}

func TestLogEventLevels(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	log := slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logEvent(log, bus.Event{Type: bus.EventConnected, URL: testURL, At: time.Now()})
	logEvent(log, bus.Event{Type: bus.EventTransportError, Error: "boom", At: time.Now()})
	logEvent(log, bus.Event{Type: bus.EventFrameSent, Payload: map[string]string{"kind": "line"}, At: time.Now()})

	logged := out.String()
	assert.Contains(t, logged, "level=INFO")
	assert.Contains(t, logged, "event_type=connected")
	assert.Contains(t, logged, "level=ERROR")
	assert.Contains(t, logged, "error=boom")
	assert.Contains(t, logged, "level=DEBUG")
}
