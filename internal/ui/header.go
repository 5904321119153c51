package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader renders the status bar.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	parts := []string{bg.Render("tminus", styles.Logo)}

	counts := m.stateCounts()
	total := len(m.snapshot.Cards)
	if total == 0 {
		parts = append(parts, bg.Render("No cards", styles.WarningText))
	} else {
		parts = append(parts,
			bg.Render("Cards:", styles.MutedText)+bg.Space()+
				bg.Render(fmt.Sprintf("%d", total), styles.Text))
		for _, st := range []string{stateExpired, stateStale, stateInvalid} {
			if counts[st] == 0 {
				continue
			}
			color := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.StateColor(st)))
			parts = append(parts,
				bg.Render(stateLabel(st)+":", styles.MutedText)+bg.Space()+
					bg.Render(fmt.Sprintf("%d", counts[st]), color))
		}
	}

	if n := len(m.notices); n > 0 {
		parts = append(parts,
			bg.Render("!", styles.WarningText.Bold(true))+bg.Space()+
				bg.Render(fmt.Sprintf("%d", n), styles.WarningText))
	}

	if ts := m.formatTimestamp(); ts != "" {
		parts = append(parts, bg.Render(ts, styles.MutedText))
	}

	if m.status != "" {
		limit := 60
		if m.width < 100 {
			limit = 30
		}
		parts = append(parts, bg.Render(truncate(m.status, limit), styles.InfoText))
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

// stateCounts tallies cards by state.
func (m Model) stateCounts() map[string]int {
	counts := make(map[string]int, 5)
	for _, c := range m.snapshot.Cards {
		counts[cardState(c)]++
	}
	return counts
}

func stateLabel(state string) string {
	switch state {
	case stateExpired:
		return "Expired"
	case stateStale:
		return "Stale"
	case stateInvalid:
		return "Invalid"
	case stateWaiting:
		return "Waiting"
	default:
		return "Counting"
	}
}

// formatTimestamp formats the last update time with a relative indicator.
func (m Model) formatTimestamp() string {
	last := m.snapshot.LastUpdated
	if last.IsZero() {
		return ""
	}
	since := time.Since(last)
	out := last.Format("15:04:05")
	switch {
	case since < time.Minute:
		out += " (now)"
	case since < time.Hour:
		out += fmt.Sprintf(" (%dm ago)", int(since.Minutes()))
	case since < 24*time.Hour:
		out += fmt.Sprintf(" (%dh ago)", int(since.Hours()))
	}
	return out
}

// renderCommandBar renders the command hints bar.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.currentView {
	case ViewLogs:
		followLabel := "Pause"
		if !m.logState.follow {
			followLabel = "Follow"
		}
		commands = []cmd{
			{"Space", followLabel},
			{"j/k", "Scroll"},
			{"f", "Card"},
			{"c", "Cards"},
			{"?", "More"},
		}
	default:
		commands = []cmd{
			{"j/k", "Select"},
			{"r", "Refresh"},
			{"x", "Dismiss"},
			{"l", "Logs"},
			{"?", "More"},
		}
	}

	colon := bg.Render(":", styles.FaintText)
	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}
	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(strings.Join(segments, bg.Spaces(2)))
}
