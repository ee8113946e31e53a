package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/pilot2048/internal/autoplay"
	"github.com/vovakirdan/pilot2048/internal/engine"
	"github.com/vovakirdan/pilot2048/internal/storage"
)

type recordingSaver struct {
	results []autoplay.Result
}

func (r *recordingSaver) SaveResult(res autoplay.Result) error {
	r.results = append(r.results, res)
	return nil
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m WatchModel, msg tea.Msg) WatchModel {
	t.Helper()
	next, _ := m.Update(msg)
	wm, ok := next.(WatchModel)
	if !ok {
		t.Fatalf("Update() returned %T, want WatchModel", next)
	}
	return wm
}

func tick(t *testing.T, m WatchModel) WatchModel {
	t.Helper()
	return update(t, m, TickMsg(time.Now()))
}

func TestWatchTickPlaysOneMove(t *testing.T) {
	m := NewWatchModel(WatchConfig{Seed: 1})
	m = tick(t, m)

	// A slide without merges can tie a no-op, so count decisions, not moves.
	if m.turns != 1 {
		t.Errorf("turns = %d after one tick, want 1", m.turns)
	}
	if !m.haveLast || m.last.Number != 1 {
		t.Errorf("last turn = %+v, want turn 1", m.last)
	}
	if !m.last.Direction.Valid() {
		t.Errorf("last direction %d is invalid", m.last.Direction)
	}
}

func TestWatchPauseAndStep(t *testing.T) {
	m := NewWatchModel(WatchConfig{Seed: 2})

	m = update(t, m, keyMsg("p"))
	if !m.paused {
		t.Fatal("p should pause")
	}
	m = tick(t, m)
	if m.turns != 0 {
		t.Errorf("turns = %d while paused, want 0", m.turns)
	}

	m = update(t, m, keyMsg("n"))
	m = tick(t, m)
	m = tick(t, m)
	if m.turns != 1 {
		t.Errorf("turns = %d after a single step, want 1", m.turns)
	}
	if !m.paused {
		t.Error("single step should leave the viewer paused")
	}
}

func TestWatchShowsRecord(t *testing.T) {
	m := NewWatchModel(WatchConfig{Seed: 1, Record: 5120})
	if view := m.View(); !strings.Contains(view, "Record: 5120") {
		t.Errorf("View() missing stored record:\n%s", view)
	}

	m.best = 6000
	if view := m.View(); !strings.Contains(view, "Record: 6000") {
		t.Errorf("View() should show a session best above the record:\n%s", view)
	}
}

func TestWatchSpeedKeys(t *testing.T) {
	m := NewWatchModel(WatchConfig{Seed: 3, FPS: 8})

	m = update(t, m, keyMsg("+"))
	if m.fps != 16 {
		t.Errorf("fps = %d after +, want 16", m.fps)
	}
	for range 10 {
		m = update(t, m, keyMsg("+"))
	}
	if m.fps != maxFPS {
		t.Errorf("fps = %d, want capped at %d", m.fps, maxFPS)
	}
	for range 10 {
		m = update(t, m, keyMsg("-"))
	}
	if m.fps != 1 {
		t.Errorf("fps = %d, want floor of 1", m.fps)
	}
}

func TestWatchPlaysToGameOverAndSaves(t *testing.T) {
	saver := &recordingSaver{}
	m := NewWatchModel(WatchConfig{Seed: 4, Saver: saver})

	for i := 0; i < 100000 && !m.finished; i++ {
		m = tick(t, m)
	}
	if !m.finished {
		t.Fatal("game did not finish")
	}
	if m.games != 1 {
		t.Errorf("games = %d, want 1", m.games)
	}
	if len(saver.results) != 1 {
		t.Fatalf("saved %d results, want 1", len(saver.results))
	}

	res := saver.results[0]
	snap := m.game.Snapshot()
	if res.Score != snap.Score || res.Moves != snap.Moves || res.GameID != snap.ID {
		t.Errorf("saved %+v, game ended at %+v", res, snap)
	}
	if res.Reason != autoplay.ReasonGameOver || res.Source != "local" {
		t.Errorf("saved Reason/Source = %s/%s", res.Reason, res.Source)
	}
	if m.best != res.Score {
		t.Errorf("best = %d, want %d", m.best, res.Score)
	}

	// Further ticks without auto-restart keep the finished game.
	m = tick(t, m)
	if len(saver.results) != 1 || !m.finished {
		t.Error("finished game should be recorded once and stay on screen")
	}

	if !strings.Contains(m.View(), "GAME OVER") {
		t.Error("View() should show GAME OVER")
	}

	m = update(t, m, keyMsg("r"))
	if m.finished || m.game.Snapshot().Moves != 0 {
		t.Error("r should deal a new game")
	}
	if m.game.Snapshot().ID == res.GameID {
		t.Error("new game should have a new ID")
	}
}

func TestWatchAutoRestart(t *testing.T) {
	m := NewWatchModel(WatchConfig{Seed: 5, FPS: 60, AutoRestart: true})

	for i := 0; i < 100000 && !m.finished; i++ {
		m = tick(t, m)
	}
	first := m.game.Snapshot().ID

	// restartPause at 60 fps is 120 ticks.
	for range 120 {
		m = tick(t, m)
	}
	if m.finished || m.game.Snapshot().ID == first {
		t.Error("viewer should start a new game after the restart pause")
	}
}

func TestWatchQuit(t *testing.T) {
	m := NewWatchModel(WatchConfig{Seed: 6})
	next, cmd := m.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatal("q should return a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
	if next.(WatchModel).View() != "" {
		t.Error("View() after quit should be empty")
	}
}

func TestRenderBoard(t *testing.T) {
	out := RenderBoard(engine.Board{{2, 0, 0, 2048}, {0, 4096, 0, 0}})
	for _, want := range []string{"2", "2048", "4096", "·"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderBoard() missing %q:\n%s", want, out)
		}
	}
}

func TestRenderOutcomesMarksChoice(t *testing.T) {
	sel := engine.NewSelector(fixedRand(1))
	outcomes, dir, err := sel.Rank(engine.Board{{2, 2}})
	if err != nil {
		t.Fatalf("Rank() failed: %v", err)
	}

	out := RenderOutcomes(outcomes, dir)
	for _, d := range engine.Directions {
		if !strings.Contains(out, d.String()) {
			t.Errorf("RenderOutcomes() missing %s:\n%s", d, out)
		}
	}
	if !strings.Contains(out, ">") {
		t.Errorf("RenderOutcomes() does not mark the chosen move:\n%s", out)
	}
}

type fixedRand int

func (r fixedRand) Intn(n int) int { return int(r) % n }

type fakeResults struct {
	bySource map[string][]storage.ResultEntry
	asked    []string
}

func (f *fakeResults) TopResults(source string, limit int) ([]storage.ResultEntry, error) {
	f.asked = append(f.asked, source)
	return f.bySource[source], nil
}

func TestScoreboardTabs(t *testing.T) {
	results := &fakeResults{bySource: map[string][]storage.ResultEntry{
		"":      {{Score: 3000, Source: "remote"}, {Score: 1200, Source: "local"}},
		"local": {{Score: 1200, Source: "local"}},
	}}

	m := NewScoreboardModel(results, 100, 30)
	if len(m.entries) != 2 {
		t.Fatalf("entries = %d, want 2 for all sources", len(m.entries))
	}
	if !strings.Contains(m.View(), "3000") {
		t.Error("View() should list the top score")
	}

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(ScoreboardModel)
	if scoreboardTabs[m.tab].Source != "local" || len(m.entries) != 1 {
		t.Errorf("after tab: source %q with %d entries, want local with 1", scoreboardTabs[m.tab].Source, len(m.entries))
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(ScoreboardModel)
	if !strings.Contains(m.View(), "No results recorded yet") {
		t.Error("empty tab should show the empty message")
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	m = next.(ScoreboardModel)
	if scoreboardTabs[m.tab].Source != "local" {
		t.Errorf("shift+tab landed on %q, want local", scoreboardTabs[m.tab].Source)
	}

	if got := strings.Join(results.asked, ","); got != ",local,remote,local" {
		t.Errorf("sources queried = %q", got)
	}
}

func TestSummarize(t *testing.T) {
	got := summarize([]storage.ResultEntry{
		{Score: 30000, MaxTile: 2048},
		{Score: 12000, MaxTile: 1024},
		{Score: 3001, MaxTile: 256},
	})
	want := resultSummary{Games: 3, Best: 30000, Average: 15000, BestTile: 2048, Wins: 1}
	if got != want {
		t.Errorf("summarize() = %+v, want %+v", got, want)
	}

	if got := summarize(nil); got != (resultSummary{}) {
		t.Errorf("summarize(nil) = %+v, want zero", got)
	}
}

func TestScoreboardSummaryPanel(t *testing.T) {
	results := &fakeResults{bySource: map[string][]storage.ResultEntry{
		"": {{Score: 3000, MaxTile: 256}, {Score: 1200, MaxTile: 128}},
	}}

	if view := NewScoreboardModel(results, 120, 30).View(); !strings.Contains(view, "average  2100") {
		t.Errorf("wide View() missing summary:\n%s", view)
	}
	if view := NewScoreboardModel(results, 60, 30).View(); strings.Contains(view, "Summary") {
		t.Error("narrow View() should drop the summary panel")
	}
}
