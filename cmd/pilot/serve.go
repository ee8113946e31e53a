package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/pilot2048/internal/platform/tui"
)

var (
	flagSSHAddr     string
	flagHostKey     string
	flagIdleTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the viewer SSH server",
	Long: `Start an SSH server that shows the autopilot playing to every
connected user. Each SSH connection watches its own game. Results are
stored per-server.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.pilot2048/host_key

Examples:
  pilot serve                           # Listen on :23248 with auto-generated key
  pilot serve --ssh :2222               # Listen on port 2222
  pilot serve --host-key ./my_host_key  # Use specific host key

Users can connect with:
  ssh localhost -p 23248`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "SSH server address (default from config)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	serveCmd.Flags().DurationVar(&flagIdleTimeout, "idle-timeout", 0, "Idle timeout before disconnecting (default from config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	if flags.Changed("ssh") {
		cfg.SSH.Addr = flagSSHAddr
	}
	if flags.Changed("host-key") {
		cfg.SSH.HostKey = flagHostKey
	}
	if flags.Changed("idle-timeout") {
		cfg.SSH.IdleTimeout = flagIdleTimeout
	}

	sc := tui.SSHServerConfig{
		Address:     cfg.SSH.Addr,
		HostKeyPath: cfg.SSH.HostKey,
		DBPath:      cfg.Storage.DBPath,
		IdleTimeout: cfg.SSH.IdleTimeout,
		Watch: tui.WatchConfig{
			Spawn4:      cfg.Spawn4(),
			FPS:         cfg.Watch.FPS,
			TargetScore: cfg.Autoplay.TargetScore,
			AutoRestart: true,
		},
	}

	server, err := tui.NewSSHServer(sc, logger.WithPrefix("pilot-ssh"))
	if err != nil {
		return err
	}

	fmt.Printf("Starting pilot SSH server on %s\n", sc.Address)
	fmt.Println("Press Ctrl+C to stop")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.ListenAndServe(ctx)
}
