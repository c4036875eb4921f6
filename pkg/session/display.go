package session

import "mudclient/pkg/display"

// dialogTracker remembers the open overlay so Send can tell masked input
// apart, and swallows closes when nothing is open.
type dialogTracker struct {
	display.Display
	dialog *display.Dialog
}

func (t *dialogTracker) OpenInputDialog(kind display.DialogKind, text string) {
	t.dialog = &display.Dialog{Kind: kind, Text: text}
	t.Display.OpenInputDialog(kind, text)
}

func (t *dialogTracker) CloseInputDialog() {
	if t.dialog == nil {
		return
	}
	t.dialog = nil
	t.Display.CloseInputDialog()
}

func (t *dialogTracker) current() (display.Dialog, bool) {
	if t.dialog == nil {
		return display.Dialog{}, false
	}
	return *t.dialog, true
}
