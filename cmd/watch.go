package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"mudclient/pkg/channel/websocket"
	"mudclient/pkg/headless"
	"mudclient/pkg/logger"

	"github.com/spf13/cobra"
)

var watchCommands []string

var watchCmd = &cobra.Command{
	Use:   "watch [url]",
	Short: "Run a headless session",
	Long:  "Connects without a terminal UI, logs every line the server shows and serves health, readiness and status endpoints.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(args)
		if err != nil {
			fmt.Printf("failed to load config: %v\n", err)
			return
		}

		appLogger, closer, err := logger.New(cfg.Logging)
		if err != nil {
			fmt.Printf("failed to initialize logger: %v\n", err)
			return
		}
		defer closer.Close()
		slog.SetDefault(appLogger)
		log := slog.Default().With("component", "cmd.watch")

		transport, err := websocket.New(cfg.Server, appLogger)
		if err != nil {
			log.Error("Server configuration invalid", "error", err)
			return
		}

		runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc, err := headless.NewService(cfg, transport, watchCommands, appLogger)
		if err != nil {
			log.Error("Failed to initialize headless service", "error", err)
			return
		}

		log.Info("Watch started", "url", cfg.Server.URL, "status_host", cfg.Status.Host, "status_port", cfg.Status.Port)
		if err := svc.Run(runCtx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Error("Watch session failed", "error", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringArrayVarP(&watchCommands, "command", "c", nil, "command to send once connected (repeatable)")
}
