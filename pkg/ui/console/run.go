package console

import (
	"context"
	"fmt"
	"time"

	"mudclient/pkg/display"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// RunInteractive runs the full-screen console until the user quits.
func RunInteractive(ctx context.Context, client Client, buffer *display.Buffer) error {
	model := newModel(ctx, client, buffer, modeInteractive, nil, 0)
	program := tea.NewProgram(model, tea.WithMouseCellMotion())
	_, err := program.Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(renderGoodbyeBanner(client.URL()))
	return nil
}

// RunOneShot sends commands, shows whatever arrives within wait and exits.
// It exits early when the server closes the connection.
func RunOneShot(ctx context.Context, client Client, buffer *display.Buffer, commands []string, wait time.Duration) error {
	model := newModel(ctx, client, buffer, modeOneShot, commands, wait)
	program := tea.NewProgram(model)
	_, err := program.Run()
	return err
}

func renderGoodbyeBanner(url string) string {
	style := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("230")).
		Background(lipgloss.Color("24")).
		Padding(1, 2)

	return style.Render("Disconnected from " + url)
}
