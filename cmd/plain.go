package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"mudclient/pkg/bus"
	"mudclient/pkg/display"
	"mudclient/pkg/session"
)

// plainDisplay prints every display effect as one line of text.
type plainDisplay struct {
	w io.Writer
}

func newPlainDisplay(w io.Writer) *plainDisplay {
	return &plainDisplay{w: w}
}

func (d *plainDisplay) AppendLine(channel display.Channel, text string) {
	switch channel {
	case display.ChannelError:
		fmt.Fprintf(d.w, "! %s\n", display.Plain(text))
	case display.ChannelSystem:
		fmt.Fprintf(d.w, "* %s\n", display.Plain(text))
	default:
		fmt.Fprintln(d.w, display.Plain(text))
	}
}

func (d *plainDisplay) ShowPrompt(text string) {
	if prompt := strings.TrimSpace(display.Plain(text)); prompt != "" {
		fmt.Fprintf(d.w, "%s ", prompt)
	}
}

// ClearLinks is a no-op; printed lines carry no links.
func (d *plainDisplay) ClearLinks() {}

func (d *plainDisplay) OpenInputDialog(kind display.DialogKind, text string) {
	fmt.Fprintf(d.w, "[%s] %s\n", kind, display.Plain(text))
}

func (d *plainDisplay) CloseInputDialog() {}

// inputDrainWait bounds how long output is collected after in reaches EOF
// when no wait is given.
const inputDrainWait = 2 * time.Second

// runPlain is the line-mode consumer. With commands it sends them, collects
// output for wait and returns; otherwise it reads lines from in until /exit or
// the connection closes. After EOF on in it keeps printing frames for wait
// until the connection closes. /cancel declines an input request.
func runPlain(ctx context.Context, sess *session.Session, in io.Reader, commands []string, wait time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	frames := make(chan bus.InboundFrame)
	go func() {
		defer close(frames)
		for {
			frame, ok := sess.Next(ctx)
			if !ok {
				return
			}
			select {
			case frames <- frame:
			case <-ctx.Done():
				return
			}
		}
	}()

	for _, line := range commands {
		if err := sess.Send(ctx, line); err != nil {
			return fmt.Errorf("send %q: %w", line, err)
		}
	}

	var deadline <-chan time.Time
	if len(commands) > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		deadline = timer.C
	}

	var lines <-chan string
	if in != nil {
		lines = scanLines(in)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-deadline:
			return nil
		case frame, ok := <-frames:
			if !ok {
				return nil
			}
			sess.HandleFrame(frame)
			if frame.Kind == bus.InboundClose {
				return nil
			}
		case line, ok := <-lines:
			if !ok {
				lines = nil
				if deadline == nil {
					drain := wait
					if drain <= 0 {
						drain = inputDrainWait
					}
					timer := time.NewTimer(drain)
					defer timer.Stop()
					deadline = timer.C
				}
				continue
			}
			if isExitCommand(line) {
				return nil
			}

			var err error
			if strings.TrimSpace(line) == "/cancel" {
				err = sess.Cancel(ctx)
			} else {
				err = sess.Send(ctx, line)
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "send failed: %v\n", err)
			}
		}
	}
}

func scanLines(in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		if err := scanner.Err(); err != nil {
			fmt.Fprintf(os.Stderr, "input error: %v\n", err)
		}
	}()
	return lines
}

func isExitCommand(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "/exit", "/quit", ":q":
		return true
	default:
		return false
	}
}
