package console

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mudclient/pkg/bus"
	"mudclient/pkg/display"
	"mudclient/pkg/session"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Client is the part of a session the console drives. Every method is called
// from the bubbletea update loop, which makes it the single frame consumer.
type Client interface {
	URL() string
	State() session.State
	Next(ctx context.Context) (bus.InboundFrame, bool)
	HandleFrame(frame bus.InboundFrame)
	Send(ctx context.Context, line string) error
	Cancel(ctx context.Context) error
	Dismiss()
	RecallPrevious() string
	RecallNext() string
	Dialog() (display.Dialog, bool)
}

type mode int

const (
	modeInteractive mode = iota
	modeOneShot
)

type frameMsg struct {
	frame bus.InboundFrame
}

type streamEndedMsg struct{}

type oneShotDoneMsg struct{}

type model struct {
	ctx      context.Context
	client   Client
	buffer   *display.Buffer
	mode     mode
	commands []string
	wait     time.Duration

	theme     theme
	spinner   spinner.Model
	input     textinput.Model
	viewport  viewport.Model
	width     int
	height    int
	isReady   bool
	followLog bool
	lastErr   string
	ended     bool
	rendered  uint64
}

func newModel(ctx context.Context, client Client, buffer *display.Buffer, runMode mode, commands []string, wait time.Duration) *model {
	spin := spinner.New()
	spin.Spinner = spinner.Points
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("44"))

	in := textinput.New()
	in.Prompt = ""
	in.Placeholder = "Type a command..."
	in.Focus()
	in.CharLimit = 0

	vp := viewport.New(80, 12)

	return &model{
		ctx:       ctx,
		client:    client,
		buffer:    buffer,
		mode:      runMode,
		commands:  commands,
		wait:      wait,
		theme:     defaultTheme(),
		spinner:   spin,
		input:     in,
		viewport:  vp,
		width:     100,
		height:    28,
		followLog: true,
	}
}

func (m *model) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForFrameCmd(m.ctx, m.client), m.spinner.Tick}

	if m.mode == modeOneShot {
		for _, line := range m.commands {
			if err := m.client.Send(m.ctx, line); err != nil {
				m.lastErr = err.Error()
				break
			}
		}
		cmds = append(cmds, oneShotTimerCmd(m.wait))
		return tea.Batch(cmds...)
	}

	return tea.Batch(append(cmds, textinput.Blink)...)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		m.resizeComponents()
		m.refreshViewport(false)
		m.isReady = true
		return m, nil
	case frameMsg:
		m.client.HandleFrame(typed.frame)
		m.syncInput()
		m.refreshViewport(false)
		if m.mode == modeOneShot && m.client.State() == session.StateClosed {
			return m, tea.Quit
		}
		return m, waitForFrameCmd(m.ctx, m.client)
	case streamEndedMsg:
		m.ended = true
		if m.mode == modeOneShot {
			return m, tea.Quit
		}
		return m, nil
	case oneShotDoneMsg:
		return m, tea.Quit
	case spinner.TickMsg:
		if m.client.State() != session.StateConnecting {
			return m, nil
		}
		m.spinner, cmd = m.spinner.Update(typed)
		return m, cmd
	case tea.MouseMsg:
		if m.mode == modeInteractive {
			m.handleViewportMouse(typed)
		}
		return m, nil
	case tea.KeyMsg:
		if typed.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.mode == modeOneShot {
			return m, nil
		}
		if handled, keyCmd := m.handleKey(typed); handled {
			return m, keyCmd
		}
	}

	if m.mode == modeInteractive {
		m.input, cmd = m.input.Update(msg)
	}

	return m, cmd
}

// handleKey covers dialog keys, history recall, scrolling and submit. Keys
// it does not handle go to the text input.
func (m *model) handleKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	dialog, hasDialog := m.client.Dialog()

	if hasDialog && !dialog.AcceptsInput() {
		switch msg.String() {
		case "enter", "esc", " ":
			m.client.Dismiss()
			m.syncInput()
		}
		return true, nil
	}

	switch msg.String() {
	case "esc":
		if hasDialog {
			if err := m.client.Cancel(m.ctx); err != nil {
				m.lastErr = err.Error()
			}
			m.resetInput()
			return true, nil
		}
		return true, tea.Quit
	case "up":
		if dialog.Masked() {
			return true, nil
		}
		m.input.SetValue(m.client.RecallPrevious())
		m.input.CursorEnd()
		return true, nil
	case "down":
		if dialog.Masked() {
			return true, nil
		}
		m.input.SetValue(m.client.RecallNext())
		m.input.CursorEnd()
		return true, nil
	case "enter":
		line := m.input.Value()
		if !hasDialog && isExitCommand(line) {
			return true, tea.Quit
		}

		m.lastErr = ""
		if err := m.client.Send(m.ctx, line); err != nil {
			m.lastErr = err.Error()
		}
		m.resetInput()
		m.followLog = true
		m.refreshViewport(true)
		return true, nil
	}

	return m.handleViewportKey(msg), nil
}

// syncInput mirrors the open dialog onto the input line.
func (m *model) syncInput() {
	dialog, ok := m.client.Dialog()
	switch {
	case ok && dialog.Masked():
		m.input.EchoMode = textinput.EchoPassword
		m.input.EchoCharacter = '•'
		m.input.Placeholder = "Password..."
	case ok && dialog.AcceptsInput():
		m.input.EchoMode = textinput.EchoNormal
		m.input.Placeholder = "Answer..."
	default:
		m.input.EchoMode = textinput.EchoNormal
		m.input.Placeholder = "Type a command..."
	}
}

func (m *model) resetInput() {
	m.input.SetValue("")
	m.syncInput()
}

func (m *model) View() string {
	if !m.isReady {
		m.resizeComponents()
		m.refreshViewport(false)
	}
	if m.mode == modeOneShot {
		return m.oneShotView()
	}

	header := m.theme.header.Width(m.width - 2).Render("MUD Console")
	meta := m.theme.headerMeta.Render(fmt.Sprintf("server:%s · state:%s", m.client.URL(), m.client.State()))
	line := m.theme.divider.Width(m.width - 2).Render(strings.Repeat("═", max(8, m.width-2)))

	parts := []string{header, meta, line, m.theme.viewport.Width(m.width - 2).Render(m.viewport.View())}

	if dialog, ok := m.client.Dialog(); ok {
		parts = append(parts, m.renderDialog(dialog))
	}

	parts = append(parts,
		m.statusLine(),
		m.theme.inputLabel.Render(m.promptLabel())+" "+m.theme.hint.Render("(/exit to leave)"),
		m.theme.input.Width(m.width-2).Render(m.input.View()),
	)

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *model) statusLine() string {
	switch {
	case m.lastErr != "":
		return m.theme.statusErr.Render("🚨 " + m.lastErr)
	case m.client.State() == session.StateConnecting:
		return m.theme.statusBusy.Render(fmt.Sprintf("%s connecting to %s...", m.spinner.View(), m.client.URL()))
	case m.client.State() == session.StateClosed:
		return m.theme.statusErr.Render("disconnected · Ctrl+C to quit")
	default:
		return m.theme.status.Render("Enter send  ·  ↑/↓ history  ·  PgUp/PgDn scroll  ·  Esc cancel/quit")
	}
}

func (m *model) promptLabel() string {
	prompt := strings.TrimSpace(display.Plain(m.buffer.Prompt()))
	if prompt == "" {
		return ">"
	}
	return m.theme.prompt.Render(prompt)
}

func (m *model) renderDialog(dialog display.Dialog) string {
	body := strings.TrimSpace(display.Plain(dialog.Text))
	width := max(20, m.width-6)

	if !dialog.AcceptsInput() {
		return lipgloss.JoinVertical(lipgloss.Left,
			m.theme.alertTitle.Render("▛▚ NOTICE ▞▜"),
			m.theme.alertBox.Width(width).Render(body+"\n\n"+m.theme.hint.Render("Enter to dismiss")),
		)
	}

	title := "▛▚ INPUT ▞▜"
	if dialog.Masked() {
		title = "▛▚ PASSWORD ▞▜"
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.theme.dialogTitle.Render(title),
		m.theme.dialogBox.Width(width).Render(body+"\n\n"+m.theme.hint.Render("Enter to answer · Esc to cancel")),
	)
}

func (m *model) oneShotView() string {
	parts := []string{m.renderLines()}
	if m.lastErr != "" {
		parts = append(parts, m.theme.statusErr.Render("🚨 "+m.lastErr))
	}
	if dialog, ok := m.client.Dialog(); ok {
		parts = append(parts, m.renderDialog(dialog))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...) + "\n"
}

func (m *model) resizeComponents() {
	w := m.width - 6
	if w < 50 {
		w = 50
	}
	h := m.height - 10
	if h < 8 {
		h = 8
	}

	m.viewport.Width = w
	m.viewport.Height = h
	m.input.Width = w - 2
}

// renderLines turns the scrollback into styled terminal text.
func (m *model) renderLines() string {
	lines := m.buffer.Lines()
	rendered := make([]string, 0, len(lines))
	for _, line := range lines {
		rendered = append(rendered, m.theme.lineStyle(line.Channel).Render(display.Plain(line.Text)))
	}
	return strings.Join(rendered, "\n")
}

func (m *model) refreshViewport(forceBottom bool) {
	if version := m.buffer.Version(); version != m.rendered || forceBottom {
		m.rendered = version
		previousOffset := m.viewport.YOffset
		m.viewport.SetContent(m.renderLines())

		if !m.followLog && !forceBottom {
			maxOffset := max(0, m.viewport.TotalLineCount()-m.viewport.Height)
			m.viewport.SetYOffset(min(previousOffset, maxOffset))
			return
		}
	}

	if m.followLog || forceBottom {
		m.viewport.GotoBottom()
		m.followLog = true
	}
}

func (m *model) handleViewportKey(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "pgup", "ctrl+b", "alt+up", "ctrl+up":
		m.viewport.PageUp()
		m.followLog = false
		return true
	case "pgdown", "ctrl+f", "alt+down", "ctrl+down":
		m.viewport.PageDown()
		if m.viewport.AtBottom() {
			m.followLog = true
		}
		return true
	case "home":
		m.viewport.GotoTop()
		m.followLog = false
		return true
	case "end":
		m.viewport.GotoBottom()
		m.followLog = true
		return true
	default:
		return false
	}
}

func (m *model) handleViewportMouse(msg tea.MouseMsg) bool {
	if msg.Action != tea.MouseActionPress {
		return false
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.viewport.ScrollUp(3)
		m.followLog = false
		return true
	case tea.MouseButtonWheelDown:
		m.viewport.ScrollDown(3)
		if m.viewport.AtBottom() {
			m.followLog = true
		}
		return true
	default:
		return false
	}
}

func waitForFrameCmd(ctx context.Context, client Client) tea.Cmd {
	return func() tea.Msg {
		frame, ok := client.Next(ctx)
		if !ok {
			return streamEndedMsg{}
		}
		return frameMsg{frame: frame}
	}
}

func oneShotTimerCmd(wait time.Duration) tea.Cmd {
	return tea.Tick(wait, func(time.Time) tea.Msg {
		return oneShotDoneMsg{}
	})
}

func isExitCommand(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "/exit", "/quit", ":q":
		return true
	default:
		return false
	}
}
