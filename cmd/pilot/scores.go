package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/pilot2048/internal/platform/tui"
	"github.com/vovakirdan/pilot2048/internal/storage"
)

var (
	flagLimit  int
	flagTUI    bool
	flagSource string
	flagRecent bool
	flagClear  bool
)

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "Show stored results",
	Long: `Display the best stored autopilot results.

Examples:
  pilot scores
  pilot scores --limit 20 --source local
  pilot scores --recent
  pilot scores --tui
  pilot scores --clear`,
	RunE: runScores,
}

func init() {
	scoresCmd.Flags().IntVar(&flagLimit, "limit", 10, "Number of results to show")
	scoresCmd.Flags().BoolVar(&flagTUI, "tui", false, "Browse results interactively")
	scoresCmd.Flags().StringVar(&flagSource, "source", "", "Only show results from this source (local or remote)")
	scoresCmd.Flags().BoolVar(&flagRecent, "recent", false, "List the latest results instead of the best")
	scoresCmd.Flags().BoolVar(&flagClear, "clear", false, "Delete all stored results")
}

func runScores(cmd *cobra.Command, _ []string) error {
	store, err := storage.Open(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("opening results database: %w", err)
	}
	defer store.Close()

	out := cmd.OutOrStdout()

	if flagClear {
		if err := store.ClearResults(); err != nil {
			return err
		}
		fmt.Fprintln(out, "All results deleted.")
		return nil
	}

	if flagTUI {
		width, height := 80, 24
		if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
			width, height = w, h
		}
		return tui.RunScoreboard(store, width, height)
	}

	title := "High Scores"
	var results []storage.ResultEntry
	if flagRecent {
		title = "Recent Games"
		results, err = store.RecentResults(flagLimit)
	} else {
		results, err = store.TopResults(flagSource, flagLimit)
	}
	if err != nil {
		return fmt.Errorf("retrieving results: %w", err)
	}

	fmt.Fprintln(out, title)
	fmt.Fprintln(out)

	if len(results) == 0 {
		fmt.Fprintln(out, "No results recorded yet.")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Run 'pilot run' to set the first high score!")
		return nil
	}

	fmt.Fprintf(out, "  %-4s  %-8s  %-6s  %-6s  %-6s  %s\n", "#", "Score", "Max", "Moves", "Source", "Date")
	fmt.Fprintf(out, "  %-4s  %-8s  %-6s  %-6s  %-6s  %s\n", "----", "-----", "---", "-----", "------", "----")
	for i, e := range results {
		fmt.Fprintf(out, "  %-4d  %-8d  %-6d  %-6d  %-6s  %s\n",
			i+1, e.Score, e.MaxTile, e.Moves, e.Source, e.CreatedAt.Format("2006-01-02 15:04"))
	}
	fmt.Fprintln(out)

	return printStats(out, store, flagSource)
}

// printStats prints one summary line for source, or for every source when
// source is empty.
func printStats(out io.Writer, store *storage.Store, source string) error {
	var stats []*storage.Stats
	if source != "" {
		st, err := store.SourceStats(source)
		if err != nil {
			return err
		}
		stats = append(stats, st)
	} else {
		all, err := store.AllStats()
		if err != nil {
			return err
		}
		for _, st := range all {
			stats = append(stats, st)
		}
		sort.Slice(stats, func(i, j int) bool { return stats[i].Source < stats[j].Source })
	}

	for _, st := range stats {
		fmt.Fprintf(out, "%s: %d games, best %d, average %.0f, best tile %d\n",
			st.Source, st.Games, st.HighScore, st.AvgScore, st.BestTile)
	}
	return nil
}
