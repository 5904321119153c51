package ui

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/tminus/internal/logtail"
)

const logTailLines = 500

// logState holds all log-related state.
type logState struct {
	entries  []logtail.Entry
	follow   bool
	cardOnly bool // only entries of the selected card
	err      error
}

type logMsg struct {
	entries []logtail.Entry
	err     error
}

func loadLogsCmd(path string) tea.Cmd {
	return func() tea.Msg {
		if strings.TrimSpace(path) == "" {
			return logMsg{err: errors.New("no log file configured")}
		}
		entries, err := logtail.Tail(path, logTailLines)
		return logMsg{entries: entries, err: err}
	}
}

func (m *Model) handleLogBatch(msg logMsg) {
	if msg.err != nil && !errors.Is(msg.err, fs.ErrNotExist) {
		m.logState.err = msg.err
	} else {
		m.logState.err = nil
		m.logState.entries = msg.entries
	}
	m.updateLogViewport()
}

func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ToggleFollow):
		m.logState.follow = !m.logState.follow
		if m.logState.follow {
			m.logViewport.GotoBottom()
		}
	case key.Matches(msg, m.keys.FilterCard):
		m.logState.cardOnly = !m.logState.cardOnly
		m.updateLogViewport()
	case key.Matches(msg, m.keys.Up):
		m.logState.follow = false
		m.logViewport.LineUp(1)
	case key.Matches(msg, m.keys.Down):
		m.logViewport.LineDown(1)
	case key.Matches(msg, m.keys.PageUp):
		m.logState.follow = false
		m.logViewport.ViewUp()
	case key.Matches(msg, m.keys.PageDown):
		m.logViewport.ViewDown()
	case key.Matches(msg, m.keys.Top):
		m.logState.follow = false
		m.logViewport.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.logViewport.GotoBottom()
	}
	return m, nil
}

// updateLogViewport resizes the viewport and refreshes its content.
func (m *Model) updateLogViewport() {
	width := m.width - 2
	height := m.contentHeight() - 4 // title, box borders and status line
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	if m.logViewport.Width == 0 {
		m.logViewport = viewport.New(width, height)
	}
	m.logViewport.Width = width
	m.logViewport.Height = height
	m.logViewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))
	m.logViewport.SetContent(m.renderLogContent())
	if m.logState.follow {
		m.logViewport.GotoBottom()
	}
}

// visibleEntries applies the card filter.
func (m Model) visibleEntries() []logtail.Entry {
	if !m.logState.cardOnly || m.selectedID == "" {
		return m.logState.entries
	}
	out := make([]logtail.Entry, 0, len(m.logState.entries))
	for _, e := range m.logState.entries {
		if e.Card == m.selectedID {
			out = append(out, e)
		}
	}
	return out
}

func (m Model) renderLogContent() string {
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles()
	width := m.logViewport.Width

	if m.logState.err != nil {
		return bg.FillLine(bg.Render("Log unavailable: "+m.logState.err.Error(), styles.DangerText), width)
	}
	entries := m.visibleEntries()
	if len(entries) == 0 {
		return bg.FillLine(bg.Render("No log entries", styles.MutedText), width)
	}

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		text := truncate(e.Format(), width)
		lines = append(lines, bg.FillLine(bg.Render(text, m.levelStyle(e.Level)), width))
	}
	return strings.Join(lines, "\n")
}

// levelStyle picks the foreground for a log level.
func (m Model) levelStyle(level string) lipgloss.Style {
	styles := m.theme.Styles()
	switch strings.ToUpper(level) {
	case "ERROR", "DPANIC", "PANIC", "FATAL":
		return styles.DangerText
	case "WARN", "WARNING":
		return styles.WarningText
	case "DEBUG":
		return styles.FaintText
	default:
		return styles.Text
	}
}

func (m Model) renderLogs() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Background)

	title := "Log"
	if m.logState.cardOnly && m.selectedID != "" {
		title = "Log [" + m.selectedID + "]"
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.BorderFocus)).
		Width(m.width - 2).
		Render(m.logViewport.View())
	header := bg.Render(title, styles.AccentText.Bold(true))

	follow := "off"
	if m.logState.follow {
		follow = "on"
	}
	status := fmt.Sprintf("%d lines  auto-tail %s  %s", len(m.visibleEntries()), follow, truncateMiddle(m.logPath, 50))
	return header + "\n" + box + "\n" + bg.Render(status, styles.FaintText)
}
