package display

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferDropsOldestBeyondCap(t *testing.T) {
	t.Parallel()

	buffer := NewBuffer(0)
	for i := 0; i < DefaultMaxLines+5; i++ {
		buffer.AppendLine(ChannelText, fmt.Sprintf("line %d", i))
	}

	lines := buffer.Lines()
	require.Len(t, lines, DefaultMaxLines)
	assert.Equal(t, "line 5", lines[0].Text)
	assert.Equal(t, fmt.Sprintf("line %d", DefaultMaxLines+4), lines[len(lines)-1].Text)
}

func TestBufferTracksPromptAndDialog(t *testing.T) {
	t.Parallel()

	buffer := NewBuffer(10)
	start := buffer.Version()

	buffer.ShowPrompt("HP 10/10")
	buffer.OpenInputDialog(DialogPassword, "Password:")

	assert.Equal(t, "HP 10/10", buffer.Prompt())
	dialog, ok := buffer.Dialog()
	require.True(t, ok)
	assert.True(t, dialog.Masked())
	assert.True(t, dialog.AcceptsInput())
	assert.Greater(t, buffer.Version(), start)

	buffer.CloseInputDialog()
	_, ok = buffer.Dialog()
	assert.False(t, ok)

	version := buffer.Version()
	buffer.CloseInputDialog()
	assert.Equal(t, version, buffer.Version(), "closing with no dialog open is a no-op")
}

func TestAlertDialogHasNoInput(t *testing.T) {
	t.Parallel()

	dialog := Dialog{Kind: DialogAlert, Text: "Hello"}
	assert.False(t, dialog.AcceptsInput())
	assert.False(t, dialog.Masked())
}

func TestBufferClearLinksUnwrapsAnchors(t *testing.T) {
	t.Parallel()

	buffer := NewBuffer(10)
	buffer.AppendLine(ChannelText, `Exits: <a href="#" class="exit">north</a> and <b>south</b>`)
	buffer.AppendLine(ChannelText, "no links here")

	buffer.ClearLinks()

	lines := buffer.Lines()
	assert.Equal(t, "Exits: north and <b>south</b>", lines[0].Text)
	assert.Equal(t, "no links here", lines[1].Text)
}

func TestPlainStripsMarkup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain text untouched", input: "You see a sword.", want: "You see a sword."},
		{name: "line breaks", input: "one<br>two<BR/>three", want: "one\ntwo\nthree"},
		{name: "spans and entities", input: `<span class="red">Fire</span> &amp; ice`, want: "Fire & ice"},
		{name: "links keep text", input: `<a href="look">look</a>`, want: "look"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Plain(tt.input))
		})
	}
}
