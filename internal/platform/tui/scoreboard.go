package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/pilot2048/internal/storage"
)

const (
	summaryMinWidth = 90 // below this the summary panel is dropped
	summaryWidth    = 24
	resultsLimit    = 100
	winningTile     = 2048
)

// ResultSource lists the results the scoreboard can show.
type ResultSource interface {
	TopResults(source string, limit int) ([]storage.ResultEntry, error)
}

type scoreboardTab struct {
	Title  string
	Source string // "" for all sources
}

var scoreboardTabs = []scoreboardTab{
	{Title: "All games", Source: ""},
	{Title: "Local", Source: "local"},
	{Title: "Remote", Source: "remote"},
}

// resultSummary aggregates the rows shown on one tab.
type resultSummary struct {
	Games    int
	Best     int
	Average  int
	BestTile int
	Wins     int // games that reached winningTile
}

func summarize(entries []storage.ResultEntry) resultSummary {
	var s resultSummary
	total := 0
	for _, e := range entries {
		s.Games++
		total += e.Score
		s.Best = max(s.Best, e.Score)
		s.BestTile = max(s.BestTile, e.MaxTile)
		if e.MaxTile >= winningTile {
			s.Wins++
		}
	}
	if s.Games > 0 {
		s.Average = total / s.Games
	}
	return s
}

// ScoreboardModel browses stored autopilot results by source.
type ScoreboardModel struct {
	results  ResultSource
	tab      int
	entries  []storage.ResultEntry
	summary  resultSummary
	loadErr  error
	table    table.Model
	help     help.Model
	keys     ScoreboardKeyMap
	width    int
	height   int
	quitting bool
}

// NewScoreboardModel creates a scoreboard sized for a width x height terminal.
func NewScoreboardModel(results ResultSource, width, height int) ScoreboardModel {
	m := ScoreboardModel{
		results: results,
		keys:    DefaultScoreboardKeyMap(),
		help:    help.New(),
		width:   width,
		height:  height,
	}
	m.table = newResultsTable(height)
	m.reload()
	return m
}

func newResultsTable(height int) table.Model {
	rows := height - 9
	if rows < 3 {
		rows = 10
	}

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "#", Width: 4},
			{Title: "Score", Width: 8},
			{Title: "Tile", Width: 6},
			{Title: "Moves", Width: 7},
			{Title: "Stalls", Width: 6},
			{Title: "Source", Width: 7},
			{Title: "Played", Width: 12},
		}),
		table.WithFocused(true),
		table.WithHeight(rows),
	)

	st := table.DefaultStyles()
	st.Header = st.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	st.Selected = st.Selected.Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	t.SetStyles(st)
	return t
}

func (m *ScoreboardModel) reload() {
	m.entries, m.loadErr = nil, nil
	if m.results != nil {
		m.entries, m.loadErr = m.results.TopResults(scoreboardTabs[m.tab].Source, resultsLimit)
	}
	m.summary = summarize(m.entries)
	m.table.SetRows(resultRows(m.entries))
	m.table.GotoTop()
}

func resultRows(entries []storage.ResultEntry) []table.Row {
	rows := make([]table.Row, len(entries))
	for i, e := range entries {
		rows[i] = table.Row{
			strconv.Itoa(i + 1),
			strconv.Itoa(e.Score),
			strconv.Itoa(e.MaxTile),
			strconv.Itoa(e.Moves),
			strconv.Itoa(e.Stalls),
			e.Source,
			e.CreatedAt.Format("Jan 02 15:04"),
		}
	}
	return rows
}

func (m ScoreboardModel) Init() tea.Cmd {
	return nil
}

func (m ScoreboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.NextTab):
			m.tab = (m.tab + 1) % len(scoreboardTabs)
			m.reload()
			return m, nil
		case key.Matches(msg, m.keys.PrevTab):
			m.tab = (m.tab + len(scoreboardTabs) - 1) % len(scoreboardTabs)
			m.reload()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.table = newResultsTable(msg.Height)
		m.table.SetRows(resultRows(m.entries))
		m.help.Width = msg.Width
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m ScoreboardModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(centerText(titleStyle.Render("AUTOPILOT RESULTS"), m.width))
	b.WriteString("\n\n")
	b.WriteString(centerText(m.renderTabs(), m.width))
	b.WriteString("\n\n")

	body := panelStyle.Render(m.renderResults())
	if m.width >= summaryMinWidth {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, "  ", m.renderSummary())
	}
	b.WriteString(centerText(body, m.width))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m ScoreboardModel) renderTabs() string {
	active := lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Padding(0, 1)

	tabs := make([]string, len(scoreboardTabs))
	for i, tab := range scoreboardTabs {
		if i == m.tab {
			tabs[i] = active.Render(tab.Title)
		} else {
			tabs[i] = dimStyle.Render(" " + tab.Title + " ")
		}
	}
	return strings.Join(tabs, " ")
}

func (m ScoreboardModel) renderResults() string {
	switch {
	case m.loadErr != nil:
		return errorStyle.Render("could not load results: " + m.loadErr.Error())
	case len(m.entries) == 0:
		return dimStyle.Italic(true).Padding(2, 4).
			Render("No results recorded yet.\nRun 'pilot run' to record one.")
	}
	return m.table.View()
}

func (m ScoreboardModel) renderSummary() string {
	s := m.summary
	lines := []string{
		titleStyle.Render("Summary"),
		"",
		fmt.Sprintf("games    %d", s.Games),
		fmt.Sprintf("best     %d", s.Best),
		fmt.Sprintf("average  %d", s.Average),
		fmt.Sprintf("tile     %d", s.BestTile),
		fmt.Sprintf("%-8d %d", winningTile, s.Wins),
	}
	return panelStyle.Width(summaryWidth).Render(strings.Join(lines, "\n"))
}

// RunScoreboard shows the results screen until the user quits.
func RunScoreboard(results ResultSource, width, height int) error {
	_, err := tea.NewProgram(NewScoreboardModel(results, width, height), tea.WithAltScreen()).Run()
	return err
}
