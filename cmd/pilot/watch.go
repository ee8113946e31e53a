package main

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/pilot2048/internal/platform/tui"
	"github.com/vovakirdan/pilot2048/internal/storage"
)

var flagWatchFPS int

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the autopilot play in the terminal",
	Long: `Show the autopilot playing a local game, one move per frame, with
the scores of all four moves it considered.

Controls:
  P/Space    - Pause
  N          - Single move (while paused)
  +/-        - Faster/slower
  R          - New game
  Q/Ctrl+C   - Quit

Examples:
  pilot watch
  pilot watch --fps 30
  pilot watch --seed 42`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().IntVar(&flagWatchFPS, "fps", 0, "Moves per second (default from config)")
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if cmd.Flags().Changed("fps") {
		cfg.Watch.FPS = flagWatchFPS
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	wc := tui.WatchConfig{
		Seed:        cfg.ResolveSeed(),
		Spawn4:      cfg.Spawn4(),
		FPS:         cfg.Watch.FPS,
		TargetScore: cfg.Autoplay.TargetScore,
		AutoRestart: true,
		Logger:      viewerLogger(),
	}

	store, err := storage.Open(cfg.Storage.DBPath)
	if err != nil {
		logger.Warn("could not open results database", "error", err)
	} else {
		defer store.Close()
		wc.Saver = store
		if record, err := store.HighScore("local"); err == nil {
			wc.Record = record
		}
	}

	return tui.RunWatch(wc)
}

// viewerLogger keeps stderr logging off the alternate screen.
func viewerLogger() *log.Logger {
	if cfg.Log.File == "" {
		return nil
	}
	return logger
}
