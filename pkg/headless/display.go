package headless

import (
	"log/slog"
	"sync"

	"mudclient/pkg/display"
)

// logDisplay logs everything the session shows and keeps a scrollback for
// the status endpoint. The session worker writes; status handlers read.
type logDisplay struct {
	log *slog.Logger

	mu     sync.Mutex
	buffer *display.Buffer
}

var _ display.Display = (*logDisplay)(nil)

func newLogDisplay(maxLines int, log *slog.Logger) *logDisplay {
	return &logDisplay{
		log:    log.With("component", "headless.display"),
		buffer: display.NewBuffer(maxLines),
	}
}

func (d *logDisplay) AppendLine(channel display.Channel, text string) {
	d.mu.Lock()
	d.buffer.AppendLine(channel, text)
	d.mu.Unlock()

	plain := display.Plain(text)
	if channel == display.ChannelError {
		d.log.Warn(plain, "channel", string(channel))
		return
	}
	d.log.Info(plain, "channel", string(channel))
}

func (d *logDisplay) ShowPrompt(text string) {
	d.mu.Lock()
	d.buffer.ShowPrompt(text)
	d.mu.Unlock()

	d.log.Debug("Prompt updated", "prompt", display.Plain(text))
}

func (d *logDisplay) ClearLinks() {
	d.mu.Lock()
	d.buffer.ClearLinks()
	d.mu.Unlock()
}

func (d *logDisplay) OpenInputDialog(kind display.DialogKind, text string) {
	d.mu.Lock()
	d.buffer.OpenInputDialog(kind, text)
	d.mu.Unlock()

	if kind == display.DialogAlert {
		d.log.Info(display.Plain(text), "channel", "alert")
		return
	}
	d.log.Warn("Server requested input that headless mode cannot answer", "kind", string(kind), "text", display.Plain(text))
}

func (d *logDisplay) CloseInputDialog() {
	d.mu.Lock()
	d.buffer.CloseInputDialog()
	d.mu.Unlock()
}

// snapshot returns the prompt and the plain-text scrollback.
func (d *logDisplay) snapshot() (string, []string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	lines := d.buffer.Lines()
	recent := make([]string, 0, len(lines))
	for _, line := range lines {
		recent = append(recent, display.Plain(line.Text))
	}
	return display.Plain(d.buffer.Prompt()), recent
}
