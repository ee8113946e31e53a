package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/pilot2048/internal/autoplay"
	"github.com/vovakirdan/pilot2048/internal/engine"
	"github.com/vovakirdan/pilot2048/internal/game"
	"github.com/vovakirdan/pilot2048/internal/remote"
	"github.com/vovakirdan/pilot2048/internal/storage"
)

var (
	flagRemote    string
	flagTarget    int
	flagGames     int
	flagDelay     time.Duration
	flagMaxMoves  int
	flagShowBoard bool
	flagNoSave    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Play games headless until the target score",
	Long: `Play games with the autopilot without a UI, one after another, until
a game reaches the target score or the game limit runs out. Results are
stored in the results database.

Without --remote, games are played locally. With --remote, each game is
a new connection to a 'pilot host' server.

Examples:
  pilot run
  pilot run --target 4096 --games 50
  pilot run --seed 42 --show-board
  pilot run --remote ws://localhost:8048/ws --delay 100ms`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&flagRemote, "remote", "", "Websocket URL of a game server (default: play locally)")
	runCmd.Flags().IntVar(&flagTarget, "target", 0, "Stop after a game scores at least this much (default from config)")
	runCmd.Flags().IntVar(&flagGames, "games", 0, "Maximum number of games (default from config)")
	runCmd.Flags().DurationVar(&flagDelay, "delay", 0, "Pause between moves")
	runCmd.Flags().IntVar(&flagMaxMoves, "max-moves", 0, "Stop a game after this many moves (default from config)")
	runCmd.Flags().BoolVar(&flagShowBoard, "show-board", false, "Print the board and move every turn")
	runCmd.Flags().BoolVar(&flagNoSave, "no-save", false, "Do not store results")
}

func runRun(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	if flags.Changed("remote") {
		cfg.Remote.URL = flagRemote
	}
	if flags.Changed("target") {
		cfg.Autoplay.TargetScore = flagTarget
	}
	if flags.Changed("games") {
		cfg.Autoplay.MaxGames = flagGames
	}
	if flags.Changed("delay") {
		cfg.Autoplay.MoveDelay = flagDelay
	}
	if flags.Changed("max-moves") {
		cfg.Autoplay.MaxMoves = flagMaxMoves
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	seed := cfg.ResolveSeed()
	logger.Debug("starting", "seed", seed)

	var source autoplay.Source
	if cfg.Remote.URL != "" {
		source = remote.NewSource(cfg.Remote.URL, logger)
	} else {
		source = game.NewSource(seed, cfg.Spawn4())
	}

	// Open results storage
	var saver autoplay.ResultSaver
	if !flagNoSave {
		store, err := storage.Open(cfg.Storage.DBPath)
		if err != nil {
			logger.Warn("could not open results database", "error", err)
		} else {
			defer store.Close()
			saver = store
		}
	}

	playerCfg := autoplay.DefaultConfig()
	playerCfg.MaxMoves = cfg.Autoplay.MaxMoves
	playerCfg.MoveDelay = cfg.Autoplay.MoveDelay
	playerCfg.MaxConsecutiveErrors = cfg.Autoplay.MaxConsecutiveErrors

	sel := engine.NewSelector(rand.New(rand.NewSource(seed)))
	player := autoplay.NewPlayer(sel, playerCfg, logger)
	if flagShowBoard {
		player.OnTurn(func(t autoplay.Turn) {
			fmt.Printf("Turn %d\n%s\nMove: %s\n\n", t.Number, t.Board, t.Direction)
		})
	}

	sess := autoplay.NewSession(player, source, saver, autoplay.SessionConfig{
		TargetScore: cfg.Autoplay.TargetScore,
		MaxGames:    cfg.Autoplay.MaxGames,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sum, err := sess.Run(ctx)
	printSummary(sum)
	return err
}

func printSummary(sum autoplay.Summary) {
	if len(sum.Games) == 0 {
		fmt.Println("No games finished.")
		return
	}

	fmt.Printf("  %-4s  %-8s  %-6s  %-6s  %s\n", "Game", "Score", "Max", "Moves", "End")
	fmt.Printf("  %-4s  %-8s  %-6s  %-6s  %s\n", "----", "-----", "---", "-----", "---")
	for i, r := range sum.Games {
		fmt.Printf("  %-4d  %-8d  %-6d  %-6d  %s\n", i+1, r.Score, r.MaxTile, r.Moves, r.Reason)
	}

	fmt.Println()
	fmt.Printf("Best: %d (max tile %d)\n", sum.Best.Score, sum.Best.MaxTile)
	if cfg.Autoplay.TargetScore > 0 {
		if sum.Reached {
			fmt.Printf("Target %d reached after %d games.\n", cfg.Autoplay.TargetScore, len(sum.Games))
		} else {
			fmt.Printf("Target %d not reached.\n", cfg.Autoplay.TargetScore)
		}
	}
}
