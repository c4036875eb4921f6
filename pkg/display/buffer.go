package display

import "time"

// DefaultMaxLines is the scrollback cap used when none is configured.
const DefaultMaxLines = 40

// Line is one entry of the scrollback.
type Line struct {
	Channel Channel
	Text    string
	At      time.Time
}

// Buffer is a capped, append-only scrollback with the prompt and overlay state
// next to it. It implements Display.
//
// Buffer is not safe for concurrent use; the owning UI loop serializes access.
type Buffer struct {
	lines   []Line
	max     int
	prompt  string
	dialog  *Dialog
	version uint64
	now     func() time.Time
}

var _ Display = (*Buffer)(nil)

// NewBuffer returns an empty scrollback holding at most maxLines lines.
func NewBuffer(maxLines int) *Buffer {
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}

	return &Buffer{max: maxLines, now: time.Now}
}

// AppendLine adds a line, dropping the oldest lines beyond the cap.
func (b *Buffer) AppendLine(channel Channel, text string) {
	b.lines = append(b.lines, Line{Channel: channel, Text: text, At: b.now().UTC()})
	if overflow := len(b.lines) - b.max; overflow > 0 {
		b.lines = append(b.lines[:0], b.lines[overflow:]...)
	}
	b.version++
}

// ShowPrompt replaces the prompt line.
func (b *Buffer) ShowPrompt(text string) {
	b.prompt = text
	b.version++
}

// ClearLinks unwraps every hyperlink in the scrollback, keeping its text.
func (b *Buffer) ClearLinks() {
	for i := range b.lines {
		b.lines[i].Text = UnwrapLinks(b.lines[i].Text)
	}
	b.version++
}

// OpenInputDialog replaces any open overlay with a new one.
func (b *Buffer) OpenInputDialog(kind DialogKind, text string) {
	b.dialog = &Dialog{Kind: kind, Text: text}
	b.version++
}

// CloseInputDialog removes the overlay if one is open.
func (b *Buffer) CloseInputDialog() {
	if b.dialog == nil {
		return
	}
	b.dialog = nil
	b.version++
}

// Lines returns a copy of the scrollback, oldest first.
func (b *Buffer) Lines() []Line {
	out := make([]Line, len(b.lines))
	copy(out, b.lines)
	return out
}

// Prompt returns the current prompt text.
func (b *Buffer) Prompt() string {
	return b.prompt
}

// Dialog returns the open overlay, if any.
func (b *Buffer) Dialog() (Dialog, bool) {
	if b.dialog == nil {
		return Dialog{}, false
	}

	return *b.dialog, true
}

// Version increases on every change; renderers compare it to skip redraws.
func (b *Buffer) Version() uint64 {
	return b.version
}
