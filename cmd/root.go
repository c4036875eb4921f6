/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"
	"strings"

	"mudclient/pkg/config"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mudclient",
	Short: "Terminal client for Evennia-style text games",
	Long: `mudclient connects to a text-game server over its websocket protocol.

Use "connect" for the interactive console or "watch" to run a headless session
that logs everything the server sends.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies a server url given on the
// command line.
func loadConfig(args []string) (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	if url := resolveURL(args); url != "" {
		cfg.Server.URL = url
	}

	return cfg, nil
}

func resolveURL(args []string) string {
	if len(args) == 0 {
		return ""
	}

	return strings.TrimSpace(args[0])
}
