package ui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/tminus/internal/config"
	"github.com/five82/tminus/internal/countdown"
	"github.com/five82/tminus/internal/logtail"
	"github.com/five82/tminus/internal/notice"
	"github.com/five82/tminus/internal/prefs"
	"github.com/five82/tminus/internal/state"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return out, cmd
}

func newTestModel(t *testing.T, store *state.Store, board *notice.Board) Model {
	t.Helper()
	m := New(Options{
		Store:     store,
		Board:     board,
		PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
	})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	if store != nil {
		m, _ = update(t, m, snapshotMsg(store.Snapshot()))
	}
	return m
}

func countingResult() *countdown.Result {
	return &countdown.Result{
		Progress: 50,
		Target:   time.Date(2025, 12, 25, 0, 0, 0, 0, time.UTC),
		Display:  countdown.Display{Value: "3", Label: "days", Subtitle: "3 days and 4 hours"},
	}
}

func TestView_RendersCards(t *testing.T) {
	store := &state.Store{}
	store.Register("trip", config.Card{Title: "Trip"})
	store.Register("launch", config.Card{Title: "Launch"})
	store.Register("broken", config.Card{Title: "Broken"})
	store.Update("trip", countingResult(), nil)
	store.Update("launch", &countdown.Result{Expired: true, Progress: 100, Display: countdown.FormatExpired("")}, nil)
	store.SetConfigError("broken", errors.New("color: not a color"))

	view := newTestModel(t, store, nil).View()
	for _, want := range []string{"Trip", "3 days and 4 hours", "Launch", "Expired!", "Broken", "Invalid configuration", "not a color"} {
		if !strings.Contains(view, want) {
			t.Fatalf("View() missing %q:\n%s", want, view)
		}
	}
}

func TestView_NoCards(t *testing.T) {
	view := newTestModel(t, &state.Store{}, nil).View()
	if !strings.Contains(view, "No cards configured") {
		t.Fatalf("View() = %q, want empty-state message", view)
	}
}

func TestView_LoadingBeforeSize(t *testing.T) {
	m := New(Options{PrefsPath: filepath.Join(t.TempDir(), "prefs.toml")})
	if got := m.View(); got != "Loading..." {
		t.Fatalf("View() = %q, want Loading...", got)
	}
}

func TestCardState(t *testing.T) {
	tests := []struct {
		name string
		card state.CardSnapshot
		want string
	}{
		{"config error wins", state.CardSnapshot{ConfigError: errors.New("bad"), HasResult: true}, stateInvalid},
		{"no result yet", state.CardSnapshot{}, stateWaiting},
		{"stale", state.CardSnapshot{HasResult: true, ConsecutiveFailures: 2}, stateStale},
		{"expired", state.CardSnapshot{HasResult: true, Result: countdown.Result{Expired: true}}, stateExpired},
		{"counting", state.CardSnapshot{HasResult: true}, stateCounting},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cardState(tt.card); got != tt.want {
				t.Fatalf("cardState = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGridColumns(t *testing.T) {
	tests := []struct {
		width, cards, want int
	}{
		{20, 3, 1},
		{120, 3, 3},
		{120, 10, 3},
		{70, 1, 1},
	}
	for _, tt := range tests {
		if got := gridColumns(tt.width, tt.cards); got != tt.want {
			t.Fatalf("gridColumns(%d, %d) = %d, want %d", tt.width, tt.cards, got, tt.want)
		}
	}
}

func TestCardColor(t *testing.T) {
	tests := map[string]string{
		"#ff8800": "#ff8800",
		" #abc ":  "#abc",
		"red":     "fallback",
		"":        "fallback",
		"#ff88":   "fallback",
	}
	for in, want := range tests {
		if got := cardColor(in, "fallback"); got != want {
			t.Fatalf("cardColor(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCycleTheme_SavesPrefs(t *testing.T) {
	m := newTestModel(t, &state.Store{}, nil)
	m, _ = update(t, m, runes("T"))
	if m.theme.Name != "Kanagawa" {
		t.Fatalf("theme = %q, want Kanagawa", m.theme.Name)
	}
	p, err := prefs.Load(m.prefsPath)
	if err != nil {
		t.Fatalf("prefs.Load returned error: %v", err)
	}
	if p.Theme != "Kanagawa" {
		t.Fatalf("saved theme = %q, want Kanagawa", p.Theme)
	}
}

func TestSelection_FollowsID(t *testing.T) {
	store := &state.Store{}
	store.Register("a", config.Card{Title: "A"})
	store.Register("b", config.Card{Title: "B"})

	m := New(Options{Store: store, Selected: "b", PrefsPath: filepath.Join(t.TempDir(), "prefs.toml")})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m, _ = update(t, m, snapshotMsg(store.Snapshot()))
	if m.selected != 1 || m.selectedID != "b" {
		t.Fatalf("selection = %d/%q, want 1/b", m.selected, m.selectedID)
	}

	m, _ = update(t, m, runes("k"))
	if m.selectedID != "a" {
		t.Fatalf("after k selectedID = %q, want a", m.selectedID)
	}
	m, _ = update(t, m, runes("k"))
	if m.selected != 0 {
		t.Fatalf("selection moved past the first card: %d", m.selected)
	}

	m, _ = update(t, m, runes("G"))
	if m.selectedID != "b" {
		t.Fatalf("after G selectedID = %q, want b", m.selectedID)
	}
}

func TestQuit_SavesSelection(t *testing.T) {
	store := &state.Store{}
	store.Register("a", config.Card{})
	store.Register("b", config.Card{})
	m := newTestModel(t, store, nil)
	m, _ = update(t, m, runes("j"))

	_, cmd := update(t, m, runes("e"))
	if cmd == nil {
		t.Fatalf("quit returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("quit command did not produce tea.QuitMsg")
	}
	p, err := prefs.Load(m.prefsPath)
	if err != nil {
		t.Fatalf("prefs.Load returned error: %v", err)
	}
	if p.Selected != "b" {
		t.Fatalf("saved selection = %q, want b", p.Selected)
	}
}

func TestDismissNotice(t *testing.T) {
	board := notice.NewBoard()
	board.Raise("trip", "older", true)
	time.Sleep(2 * time.Millisecond)
	board.Raise("trip", "newer", true)

	m := newTestModel(t, &state.Store{}, board)
	if len(m.notices) != 2 {
		t.Fatalf("notices = %d, want 2", len(m.notices))
	}
	if view := m.View(); !strings.Contains(view, "[trip] newer") {
		t.Fatalf("View() missing notice:\n%s", view)
	}

	m, _ = update(t, m, runes("x"))
	if len(m.notices) != 1 || m.notices[0].Message != "older" {
		t.Fatalf("after dismiss notices = %+v, want only older", m.notices)
	}
}

func TestRefresh_CallsRefreshFunc(t *testing.T) {
	store := &state.Store{}
	store.Register("trip", config.Card{})
	var got string
	m := New(Options{
		Store:     store,
		PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
		Refresh: func(_ context.Context, id string) error {
			got = id
			return errors.New("backend down")
		},
	})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m, _ = update(t, m, snapshotMsg(store.Snapshot()))

	m, cmd := update(t, m, runes("r"))
	if cmd == nil {
		t.Fatalf("refresh returned no command")
	}
	msg := cmd()
	if got != "trip" {
		t.Fatalf("refreshed %q, want trip", got)
	}
	m, _ = update(t, m, msg)
	if !strings.Contains(m.status, "backend down") {
		t.Fatalf("status = %q, want refresh error", m.status)
	}
}

func TestWaitForChangeCmd(t *testing.T) {
	store := &state.Store{}
	store.Notify()
	if _, ok := waitForChangeCmd(context.Background(), store)().(changedMsg); !ok {
		t.Fatalf("waitForChangeCmd did not report the pending change")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if msg := waitForChangeCmd(ctx, store)(); msg != nil {
		t.Fatalf("waitForChangeCmd after cancel = %v, want nil", msg)
	}
}

func TestLogs_FilterBySelectedCard(t *testing.T) {
	store := &state.Store{}
	store.Register("trip", config.Card{})
	m := newTestModel(t, store, nil)

	m, cmd := update(t, m, runes("l"))
	if m.currentView != ViewLogs || cmd == nil {
		t.Fatalf("l did not open the log view with a load command")
	}
	m, _ = update(t, m, logMsg{entries: []logtail.Entry{
		{Level: "INFO", Card: "trip", Message: "card configured", Raw: "x"},
		{Level: "WARN", Card: "other", Message: "target date not parseable", Raw: "y"},
	}})
	if n := len(m.visibleEntries()); n != 2 {
		t.Fatalf("visible entries = %d, want 2", n)
	}

	m, _ = update(t, m, runes("f"))
	entries := m.visibleEntries()
	if len(entries) != 1 || entries[0].Card != "trip" {
		t.Fatalf("filtered entries = %+v, want only trip", entries)
	}
	if view := m.View(); !strings.Contains(view, "card configured") || strings.Contains(view, "not parseable") {
		t.Fatalf("log view not filtered:\n%s", view)
	}
}

func TestLogs_FollowToggle(t *testing.T) {
	m := newTestModel(t, &state.Store{}, nil)
	m, _ = update(t, m, runes("l"))
	if !m.logState.follow {
		t.Fatalf("log view should follow by default")
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeySpace})
	if m.logState.follow {
		t.Fatalf("space should pause follow")
	}
}
