package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/pilot2048/internal/engine"
)

const cellWidth = 6 // Width of each tile, value centered

// tileColors maps tile values to foreground colors. Larger tiles use bigTileColor.
var tileColors = map[int]lipgloss.Color{
	2:    lipgloss.Color("252"),
	4:    lipgloss.Color("230"),
	8:    lipgloss.Color("215"),
	16:   lipgloss.Color("209"),
	32:   lipgloss.Color("203"),
	64:   lipgloss.Color("196"),
	128:  lipgloss.Color("228"),
	256:  lipgloss.Color("227"),
	512:  lipgloss.Color("226"),
	1024: lipgloss.Color("220"),
	2048: lipgloss.Color("214"),
}

const bigTileColor = lipgloss.Color("201")

var (
	boardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	chosenStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))
)

func tileStyle(v int) lipgloss.Style {
	st := lipgloss.NewStyle().Width(cellWidth).Align(lipgloss.Center)
	if v == 0 {
		return st.Foreground(lipgloss.Color("238"))
	}
	c, ok := tileColors[v]
	if !ok {
		c = bigTileColor
	}
	return st.Bold(true).Foreground(c)
}

// RenderBoard draws the 4x4 grid with colored tiles.
func RenderBoard(b engine.Board) string {
	rows := make([]string, engine.Size)
	for y := range engine.Size {
		cells := make([]string, engine.Size)
		for x := range engine.Size {
			v := b[y][x]
			text := "·"
			if v > 0 {
				text = strconv.Itoa(v)
			}
			cells[x] = tileStyle(v).Render(text)
		}
		rows[y] = lipgloss.JoinHorizontal(lipgloss.Top, cells...)
	}
	// A blank line between rows keeps tiles roughly square.
	return boardStyle.Render(strings.Join(rows, "\n\n"))
}

// RenderOutcomes lists the four evaluated moves and marks the chosen one.
func RenderOutcomes(outcomes [len(engine.Directions)]engine.Outcome, chosen engine.Direction) string {
	var b strings.Builder
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %-6s %5s %5s %6s %3s", "move", "score", "empty", "merged", "max")))
	for _, o := range outcomes {
		line := fmt.Sprintf("  %-6s %5d %5d %6d %3d", o.Direction, o.Score(), o.Empty, o.Merged, o.MaxExponent)
		b.WriteString("\n")
		if o.Direction == chosen {
			b.WriteString(chosenStyle.Render(">" + line[1:]))
		} else {
			b.WriteString(line)
		}
	}
	return panelStyle.Render(b.String())
}

// centerText centers text horizontally within the given width.
func centerText(text string, width int) string {
	textWidth := lipgloss.Width(text)
	if textWidth >= width {
		return text
	}
	padding := (width - textWidth) / 2
	return strings.Repeat(" ", padding) + text
}
