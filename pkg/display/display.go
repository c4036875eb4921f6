// Package display defines the output surface the router and oob handlers
// write to, plus an in-memory scrollback that console and headless modes share.
package display

// Channel classifies a log line; renderers style each channel differently.
type Channel string

const (
	ChannelText   Channel = "text"
	ChannelOut    Channel = "out"
	ChannelError  Channel = "err"
	ChannelSystem Channel = "sys"
)

// DialogKind selects the modal overlay opened for typed text.
type DialogKind string

const (
	// DialogText asks for one line of input.
	DialogText DialogKind = "text"
	// DialogPassword asks for one line of masked input.
	DialogPassword DialogKind = "password"
	// DialogAlert shows a notice that can only be dismissed.
	DialogAlert DialogKind = "alert"
)

// Display is the capability the protocol core needs from a UI.
type Display interface {
	AppendLine(channel Channel, text string)
	ShowPrompt(text string)
	ClearLinks()
	OpenInputDialog(kind DialogKind, text string)
	CloseInputDialog()
}

// Dialog is the currently open modal overlay.
type Dialog struct {
	Kind DialogKind
	Text string
}

// Masked reports whether input typed into the dialog must be hidden.
func (d Dialog) Masked() bool {
	return d.Kind == DialogPassword
}

// AcceptsInput reports whether the dialog has an input field.
func (d Dialog) AcceptsInput() bool {
	return d.Kind == DialogText || d.Kind == DialogPassword
}
