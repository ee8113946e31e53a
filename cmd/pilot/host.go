package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/pilot2048/internal/remote"
)

var flagHostAddr string

var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "Serve games to remote autopilots over websocket",
	Long: `Start a websocket server that hosts one 2048 game per connection.

Clients send {"type":"state"}, {"type":"move","payload":{"direction":"left"}}
or {"type":"new"} and get the game state back. GET /healthz reports ok.

Examples:
  pilot host
  pilot host --addr :9000
  pilot run --remote ws://localhost:8048/ws`,
	RunE: runHost,
}

func init() {
	hostCmd.Flags().StringVar(&flagHostAddr, "addr", "", "Listen address (default from config)")
}

func runHost(cmd *cobra.Command, _ []string) error {
	if cmd.Flags().Changed("addr") {
		cfg.Remote.Addr = flagHostAddr
	}

	srv := remote.NewServer(remote.ServerConfig{
		Address:      cfg.Remote.Addr,
		ReadTimeout:  cfg.Remote.ReadTimeout,
		ResumeWindow: cfg.Remote.ResumeWindow,
		Seed:         cfg.ResolveSeed(),
		Spawn4:       cfg.Spawn4(),
	}, logger.WithPrefix("pilot-host"))

	fmt.Printf("Hosting games on ws://localhost%s/ws\n", cfg.Remote.Addr)
	fmt.Println("Press Ctrl+C to stop")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.ListenAndServe(ctx)
}
