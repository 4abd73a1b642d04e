package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tichu/internal/config"
	"tichu/internal/logx"
	"tichu/internal/room"
	"tichu/internal/wsserver"
)

var configFile string

func main() {
	root := &cobra.Command{
		Use:   "tichu-server",
		Short: "Runs the Tichu game server",
		RunE:  runServe,
	}
	root.Flags().StringVar(&configFile, "config", "", "path to a config file (optional; env vars and defaults otherwise)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logx.Init(cfg.LogLevel)
	logx.Info("tichu-server starting addr=%s log_level=%s score_threshold=%d", cfg.Addr, cfg.LogLevel, cfg.ScoreThreshold)

	manager := room.NewManager(cfg.ReconnectGrace)
	server := wsserver.New(manager, cfg.HeartbeatInterval, time.Now().UnixNano())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.ListenAndServe(ctx, cfg.Addr); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}
