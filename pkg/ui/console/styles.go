package console

import (
	"mudclient/pkg/display"

	"github.com/charmbracelet/lipgloss"
)

// theme groups reusable styles for console regions.
type theme struct {
	header      lipgloss.Style
	headerMeta  lipgloss.Style
	divider     lipgloss.Style
	textLine    lipgloss.Style
	outLine     lipgloss.Style
	errorLine   lipgloss.Style
	systemLine  lipgloss.Style
	prompt      lipgloss.Style
	dialogBox   lipgloss.Style
	dialogTitle lipgloss.Style
	alertBox    lipgloss.Style
	alertTitle  lipgloss.Style
	status      lipgloss.Style
	statusBusy  lipgloss.Style
	statusErr   lipgloss.Style
	hint        lipgloss.Style
	inputLabel  lipgloss.Style
	input       lipgloss.Style
	viewport    lipgloss.Style
}

// defaultTheme defines the retro terminal palette used by the console.
func defaultTheme() theme {
	return theme{
		header: lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("24")),
		headerMeta: lipgloss.NewStyle().
			Foreground(lipgloss.Color("152")),
		divider: lipgloss.NewStyle().
			Foreground(lipgloss.Color("31")),
		textLine: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),
		outLine: lipgloss.NewStyle().
			Foreground(lipgloss.Color("114")),
		errorLine: lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")).
			Bold(true),
		systemLine: lipgloss.NewStyle().
			Foreground(lipgloss.Color("180")).
			Italic(true),
		prompt: lipgloss.NewStyle().
			Foreground(lipgloss.Color("222")).
			Bold(true),
		dialogBox: lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("44")).
			Background(lipgloss.Color("234")).
			Padding(0, 1),
		dialogTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("16")).
			Background(lipgloss.Color("44")).
			Padding(0, 1),
		alertBox: lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("214")).
			Background(lipgloss.Color("235")).
			Padding(0, 1),
		alertTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("16")).
			Background(lipgloss.Color("214")).
			Padding(0, 1),
		status: lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			Bold(true),
		statusBusy: lipgloss.NewStyle().
			Foreground(lipgloss.Color("222")).
			Bold(true),
		statusErr: lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")).
			Bold(true),
		hint: lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")),
		inputLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")),
		input: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("67")).
			Background(lipgloss.Color("236")).
			Padding(0, 1),
		viewport: lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("31")).
			Background(lipgloss.Color("233")).
			Padding(0, 1),
	}
}

// lineStyle picks the style for one scrollback channel.
func (t theme) lineStyle(channel display.Channel) lipgloss.Style {
	switch channel {
	case display.ChannelOut:
		return t.outLine
	case display.ChannelError:
		return t.errorLine
	case display.ChannelSystem:
		return t.systemLine
	default:
		return t.textLine
	}
}
