package main

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/pilot2048/internal/engine"
	"github.com/vovakirdan/pilot2048/internal/platform/tui"
)

var flagQuiet bool

var suggestCmd = &cobra.Command{
	Use:   "suggest <board>",
	Short: "Print the best move for a board",
	Long: `Evaluate all four moves on a board and print the chosen one.

The board is 16 cells in row-major order. Cells may be separated by
spaces, commas, slashes, semicolons or newlines. Empty cells are 0.

Examples:
  pilot suggest "2 2 0 0 / 0 4 0 0 / 0 0 0 0 / 0 0 0 2"
  pilot suggest 2,2,0,0,0,4,0,0,0,0,0,0,0,0,0,2
  pilot suggest --quiet 2 4 8 16 0 0 0 0 0 0 0 0 0 0 0 0`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSuggest,
}

func init() {
	suggestCmd.Flags().BoolVarP(&flagQuiet, "quiet", "q", false, "Print only the chosen direction")
}

func runSuggest(_ *cobra.Command, args []string) error {
	board, err := engine.ParseBoard(strings.Join(args, " "))
	if err != nil {
		return err
	}

	sel := engine.NewSelector(rand.New(rand.NewSource(cfg.ResolveSeed())))
	outcomes, dir, err := sel.Rank(board)
	if err != nil {
		return err
	}

	logger.Debug("move selected", "board", board.Cells(), "direction", dir)

	if flagQuiet {
		fmt.Println(dir)
		return nil
	}

	fmt.Println(tui.RenderBoard(board))
	fmt.Println(tui.RenderOutcomes(outcomes, dir))
	fmt.Printf("Move: %s\n", dir)
	return nil
}
