// pilot is an autopilot for 2048: it picks moves with a one-step greedy
// heuristic and plays local or remote games with them.
//
// Usage:
//
//	pilot suggest <board>   - Print the best move for a board
//	pilot run               - Play games headless until the target score
//	pilot watch             - Watch the autopilot play in the terminal
//	pilot host              - Serve games over websocket
//	pilot serve             - Start SSH server running the viewer
//	pilot scores            - Show stored results
//	pilot config            - Print the effective configuration
//
// Global flags:
//
//	--config <path>     - Config file (default search: ~/.pilot2048/config.yaml, ./configs/pilot.yaml)
//	--seed <value>      - Set RNG seed for reproducible games
//	--db <path>         - Set database path (default: ~/.pilot2048/results.db)
//	--log-level <level> - debug, info, warn or error
package main

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/pilot2048/internal/config"
	"github.com/vovakirdan/pilot2048/internal/logging"
)

var (
	// Global flags
	flagConfig   string
	flagSeed     int64
	flagDBPath   string
	flagLogLevel string
)

var (
	cfg       config.Config
	logger    *log.Logger
	logCloser io.Closer
)

// Commands return their errors instead of exiting, so deferred cleanup such
// as closing the results database runs before the process ends.
func main() {
	err := rootCmd.Execute()
	if logCloser != nil {
		logCloser.Close()
	}
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pilot",
	Short: "pilot2048 - a 2048 autopilot",
	Long: `pilot2048 plays 2048 by simulating every move, scoring the result
and playing the best one.

Available commands:
  suggest  - Print the best move for a board
  run      - Play games headless until the target score is reached
  watch    - Watch the autopilot play in the terminal
  host     - Serve games to remote autopilots over websocket
  serve    - Start SSH server running the viewer
  scores   - View stored results
  config   - Print the effective configuration

Examples:
  pilot suggest "2 2 0 0 / 0 4 0 0 / 0 0 0 0 / 0 0 0 2"
  pilot run --target 2000 --games 10
  pilot host --addr :8048
  pilot run --remote ws://localhost:8048/ws
  pilot watch --fps 16
  pilot scores --tui`,
	SilenceUsage:      true,
	PersistentPreRunE: loadSettings,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config YAML")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to results database (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")

	// Add subcommands
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(hostCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(configCmd)
}

// loadSettings loads the config, applies global flag overrides and builds
// the logger.
func loadSettings(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(flagConfig)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		loaded.Seed = flagSeed
	}
	if flags.Changed("db") {
		loaded.Storage.DBPath = flagDBPath
	}
	if flags.Changed("log-level") {
		loaded.Log.Level = flagLogLevel
	}
	if err := loaded.Validate(); err != nil {
		return err
	}

	cfg = loaded
	logger, logCloser = logging.New(cfg.Log, "pilot")
	return nil
}
