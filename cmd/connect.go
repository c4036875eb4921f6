package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mudclient/pkg/channel/websocket"
	"mudclient/pkg/display"
	"mudclient/pkg/logger"
	"mudclient/pkg/session"
	"mudclient/pkg/ui/console"

	"github.com/spf13/cobra"
)

var (
	connectCommands []string
	connectWait     time.Duration
	connectPlain    bool
)

// connectCmd represents the connect command
var connectCmd = &cobra.Command{
	Use:   "connect [url]",
	Short: "Connect to a game server",
	Long:  "Opens a websocket session to the game server and starts the interactive console, or sends the given commands and prints what comes back.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(args)
		if err != nil {
			fmt.Printf("failed to load config: %v\n", err)
			return
		}

		// The terminal belongs to the console; logs only go to logging.file.
		appLogger, closer, err := logger.Open(cfg.Logging, nil)
		if err != nil {
			fmt.Printf("failed to initialize logger: %v\n", err)
			return
		}
		defer closer.Close()
		slog.SetDefault(appLogger)
		log := slog.Default().With("component", "cmd.connect")

		transport, err := websocket.New(cfg.Server, appLogger)
		if err != nil {
			fmt.Printf("invalid server settings: %v\n", err)
			return
		}

		runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var out display.Display
		buffer := display.NewBuffer(cfg.Client.ScrollbackLines)
		out = buffer
		if connectPlain {
			out = newPlainDisplay(os.Stdout)
		}

		sess, err := session.Start(runCtx, session.Options{
			Config:        cfg,
			Transport:     transport,
			Display:       out,
			Log:           appLogger,
			ObserveEvents: true,
		})
		if err != nil {
			fmt.Printf("failed to start session: %v\n", err)
			return
		}
		defer sess.Close()

		log.Info("Connecting", "url", cfg.Server.URL, "plain", connectPlain, "commands", len(connectCommands))

		switch {
		case connectPlain:
			var in io.Reader
			if len(connectCommands) == 0 {
				in = os.Stdin
			}
			err = runPlain(runCtx, sess, in, connectCommands, connectWait)
		case len(connectCommands) > 0:
			err = console.RunOneShot(runCtx, sess, buffer, connectCommands, connectWait)
		default:
			err = console.RunInteractive(runCtx, sess, buffer)
		}
		if err != nil {
			fmt.Printf("console failed: %v\n", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(connectCmd)
	connectCmd.Flags().StringArrayVarP(&connectCommands, "command", "c", nil, "command to send (repeatable); exits after --wait")
	connectCmd.Flags().DurationVar(&connectWait, "wait", 2*time.Second, "how long to collect output after sending --command lines")
	connectCmd.Flags().BoolVar(&connectPlain, "plain", false, "line-mode output instead of the full-screen console")
}
