package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/tminus/internal/notice"
	"github.com/five82/tminus/internal/prefs"
	"github.com/five82/tminus/internal/state"
)

// View represents the current active view.
type View int

const (
	ViewCards View = iota
	ViewLogs
)

const (
	redrawTick     = time.Second
	refreshTimeout = 10 * time.Second
)

// RefreshFunc recomputes one card immediately.
type RefreshFunc func(ctx context.Context, cardID string) error

// Options configures the UI.
type Options struct {
	Context   context.Context
	Store     *state.Store
	Board     *notice.Board
	Refresh   RefreshFunc
	LogPath   string
	ThemeName string
	PrefsPath string
	Selected  string // card id to select on start
	Tick      time.Duration
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	store     *state.Store
	board     *notice.Board
	refresh   RefreshFunc
	logPath   string
	prefsPath string
	tick      time.Duration
	keys      keyMap
	help      help.Model

	// UI state
	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool
	status      string

	// Data state
	snapshot    state.Snapshot
	notices     []notice.Notice
	lastUpdated time.Time

	// Card selection
	selected   int
	selectedID string

	// Log state
	logViewport viewport.Model
	logState    logState
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	tick := opts.Tick
	if tick <= 0 {
		tick = redrawTick
	}
	themeName := opts.ThemeName
	if themeName == "" {
		themeName = prefs.DefaultTheme
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	return Model{
		ctx:         ctx,
		store:       opts.Store,
		board:       opts.Board,
		refresh:     opts.Refresh,
		logPath:     opts.LogPath,
		prefsPath:   prefsPath,
		tick:        tick,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		theme:       GetTheme(themeName),
		currentView: ViewCards,
		selectedID:  strings.TrimSpace(opts.Selected),
		logState:    logState{follow: true},
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.tick)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store), waitForChangeCmd(m.ctx, m.store))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true
		m.updateLogViewport()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case changedMsg:
		return m, tea.Batch(fetchSnapshotCmd(m.store), waitForChangeCmd(m.ctx, m.store))

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.lastUpdated = time.Now()
		m.syncSelection()
		m.readNotices()
		return m, nil

	case refreshMsg:
		if msg.err != nil {
			m.status = "refresh " + msg.id + ": " + msg.err.Error()
		} else {
			m.status = "refreshed " + msg.id
		}
		return m, nil

	case logMsg:
		m.handleLogBatch(msg)
		return m, nil
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	return b.String()
}

func (m Model) renderContent() string {
	switch m.currentView {
	case ViewLogs:
		return m.renderLogs()
	default:
		strip := m.renderNotices()
		height := m.contentHeight() - lineCount(strip)
		body := m.renderCards(height)
		if strip == "" {
			return body
		}
		return body + "\n" + strip
	}
}

// contentHeight is the space below the header and command bar.
func (m Model) contentHeight() int {
	h := m.height - 2
	if h < 1 {
		return 1
	}
	return h
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.savePrefs()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		m.updateLogViewport()
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		if m.currentView == ViewLogs {
			m.currentView = ViewCards
			return m, nil
		}
		m.currentView = ViewLogs
		return m, loadLogsCmd(m.logPath)

	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.ViewCards):
		m.currentView = ViewCards
		return m, nil

	case key.Matches(msg, m.keys.ViewLogs):
		m.currentView = ViewLogs
		return m, loadLogsCmd(m.logPath)
	}

	if m.currentView == ViewLogs {
		return m.handleLogsKey(msg)
	}
	return m.handleCardsKey(msg)
}

func (m Model) handleCardsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := len(m.snapshot.Cards)

	switch {
	case key.Matches(msg, m.keys.Dismiss):
		m.dismissNotice()
		return m, nil
	case count == 0:
		return m, nil
	case key.Matches(msg, m.keys.Up):
		m.selectIndex(m.selected - 1)
	case key.Matches(msg, m.keys.Down):
		m.selectIndex(m.selected + 1)
	case key.Matches(msg, m.keys.Top):
		m.selectIndex(0)
	case key.Matches(msg, m.keys.Bottom):
		m.selectIndex(count - 1)
	case key.Matches(msg, m.keys.Refresh):
		id := m.snapshot.Cards[m.selected].ID
		m.status = "refreshing " + id
		return m, refreshCmd(m.ctx, m.refresh, id)
	}
	return m, nil
}

func (m Model) handleTick() (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{tickCmd(m.tick)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.currentView == ViewLogs && m.logState.follow {
		cmds = append(cmds, loadLogsCmd(m.logPath))
	}
	return m, tea.Batch(cmds...)
}

// syncSelection keeps the selected card stable across snapshots, following
// its id rather than its position.
func (m *Model) syncSelection() {
	cards := m.snapshot.Cards
	if len(cards) == 0 {
		m.selected = 0
		return
	}
	for i, c := range cards {
		if c.ID == m.selectedID {
			m.selected = i
			return
		}
	}
	m.selectIndex(m.selected)
}

func (m *Model) selectIndex(i int) {
	cards := m.snapshot.Cards
	if len(cards) == 0 {
		m.selected = 0
		return
	}
	if i < 0 {
		i = 0
	}
	if i >= len(cards) {
		i = len(cards) - 1
	}
	m.selected = i
	m.selectedID = cards[i].ID
}

func (m *Model) readNotices() {
	if m.board == nil {
		m.notices = nil
		return
	}
	m.notices = m.board.Active()
}

// dismissNotice removes the newest notice.
func (m *Model) dismissNotice() {
	if m.board == nil || len(m.notices) == 0 {
		return
	}
	m.board.Dismiss(m.notices[0].ID)
	m.readNotices()
}

func (m Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	_ = prefs.Save(m.prefsPath, prefs.Prefs{Theme: m.theme.Name, Selected: m.selectedID})
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type changedMsg struct{}

type refreshMsg struct {
	id  string
	err error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

// waitForChangeCmd blocks until the store signals a change. Bursts of card
// updates arrive as a single changedMsg.
func waitForChangeCmd(ctx context.Context, store *state.Store) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case <-store.Changed():
			return changedMsg{}
		}
	}
}

func refreshCmd(ctx context.Context, fn RefreshFunc, id string) tea.Cmd {
	if fn == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
		defer cancel()
		return refreshMsg{id: id, err: fn(ctx, id)}
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if err != nil && m.ctx.Err() != nil {
		// Cancelled from outside, e.g. by a signal.
		return nil
	}
	return err
}
