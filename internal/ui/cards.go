package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/tminus/internal/state"
)

const (
	minCardWidth = 34
	cardLines    = 6
	cardHeight   = cardLines + 2 // borders
)

// cardState classifies a card for coloring and header counts.
func cardState(c state.CardSnapshot) string {
	switch {
	case c.ConfigError != nil:
		return stateInvalid
	case !c.HasResult:
		return stateWaiting
	case c.IsStale():
		return stateStale
	case c.Result.Expired:
		return stateExpired
	default:
		return stateCounting
	}
}

// gridColumns returns how many cards fit side by side.
func gridColumns(width, cards int) int {
	cols := width / minCardWidth
	if cols < 1 {
		cols = 1
	}
	if cards > 0 && cols > cards {
		cols = cards
	}
	return cols
}

// renderCards lays the cards out in a grid, scrolled so the selected card
// is visible.
func (m Model) renderCards(height int) string {
	cards := m.snapshot.Cards
	if len(cards) == 0 {
		styles := m.theme.Styles()
		msg := styles.WarningText.Render("No cards configured") + "\n" +
			styles.MutedText.Render("Add [[cards]] entries to the config file")
		return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, msg)
	}

	cols := gridColumns(m.width, len(cards))
	width := m.width / cols
	rowsFit := height / cardHeight
	if rowsFit < 1 {
		rowsFit = 1
	}
	first := 0
	if selRow := m.selected / cols; selRow >= rowsFit {
		first = selRow - rowsFit + 1
	}

	var rows []string
	for r := first; r < first+rowsFit; r++ {
		start := r * cols
		if start >= len(cards) {
			break
		}
		end := start + cols
		if end > len(cards) {
			end = len(cards)
		}
		boxes := make([]string, 0, cols)
		for i := start; i < end; i++ {
			boxes = append(boxes, m.renderCard(cards[i], width, i == m.selected))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
	}
	return lipgloss.NewStyle().Height(height).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// renderCard renders one bordered card.
func (m Model) renderCard(c state.CardSnapshot, width int, selected bool) string {
	inner := width - 4
	if inner < 10 {
		inner = 10
	}
	st := cardState(c)
	surface := cardColor(c.Config.BackgroundColor, m.theme.Surface)
	styles := m.theme.Styles().WithBackground(surface)
	bg := NewBgStyle(surface)
	accent := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.StateColor(st)))

	lines := make([]string, 0, cardLines)
	lines = append(lines, m.cardTitle(c, st, inner, styles, bg, accent))

	switch st {
	case stateInvalid:
		lines = append(lines, bg.Render("Invalid configuration", styles.DangerText))
		for _, issue := range splitIssues(c.ConfigError.Error()) {
			if len(lines) >= cardLines {
				break
			}
			lines = append(lines, bg.Render(truncate(issue, inner), styles.MutedText))
		}
	case stateWaiting:
		lines = append(lines, bg.Render("Waiting for first update...", styles.MutedText))
		if c.LastError != nil {
			lines = append(lines, "", bg.Render(truncate(c.LastError.Error(), inner), styles.WarningText))
		}
	default:
		lines = append(lines, m.cardBody(c, inner, styles, bg)...)
	}

	for i, line := range lines {
		lines[i] = bg.FillLine(line, inner)
	}
	for len(lines) < cardLines {
		lines = append(lines, bg.FillLine("", inner))
	}

	border := m.theme.Border
	if selected {
		border = m.theme.BorderFocus
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(border)).
		BorderBackground(lipgloss.Color(m.theme.Background)).
		Background(lipgloss.Color(surface)).
		Padding(0, 1).
		Width(width - 2)
	return box.Render(strings.Join(lines, "\n"))
}

func (m Model) cardTitle(c state.CardSnapshot, st string, inner int, styles Styles, bg BgStyle, accent lipgloss.Style) string {
	badge := strings.ToUpper(stateLabel(st))
	title := c.Config.Name()
	if icon := iconGlyph(c.Config.Icon); icon != "" {
		title = icon + " " + title
	}
	room := inner - len(badge) - 1
	title = truncate(title, room)
	gap := room - lipgloss.Width(title) + 1
	if gap < 1 {
		gap = 1
	}
	return bg.Render(title, styles.Text.Bold(true)) + bg.Spaces(gap) + bg.Render(badge, accent.Bold(true))
}

func (m Model) cardBody(c state.CardSnapshot, inner int, styles Styles, bg BgStyle) []string {
	res := c.Result
	valueColor := cardColor(c.Config.Color, m.theme.Text)
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(valueColor)).Bold(true)
	if res.Expired {
		valueStyle = styles.SuccessText
	}

	headline := bg.Render(truncate(res.Display.Value, inner), valueStyle)
	if res.Display.Label != "" {
		headline += bg.Space() + bg.Render(res.Display.Label, styles.MutedText)
	}

	subtitle := ""
	if !res.Expired {
		subtitle = bg.Render(truncate(res.Display.Subtitle, inner), styles.MutedText)
	}

	footer := ""
	if !res.Target.IsZero() {
		verb := "Ends "
		if res.Expired {
			verb = "Ended "
		}
		footer = bg.Render(verb+res.Target.Format("Mon Jan 2 2006 15:04"), styles.FaintText)
	}
	if c.IsStale() && c.LastError != nil {
		footer = bg.Render(truncate(c.LastError.Error(), inner), styles.WarningText)
	}

	return []string{
		headline,
		subtitle,
		m.progressBar(c, inner, bg, styles),
		footer,
	}
}

// progressBar renders the elapsed fraction followed by a percentage.
func (m Model) progressBar(c state.CardSnapshot, inner int, bg BgStyle, styles Styles) string {
	pct := c.Result.Progress
	label := fmt.Sprintf(" %3.0f%%", pct)
	barWidth := inner - len(label)
	if barWidth < 4 {
		barWidth = 4
	}
	bar := progress.New(
		progress.WithSolidFill(cardColor(c.Config.ProgressColor, m.theme.StateColor(cardState(c)))),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = m.theme.SurfaceAlt
	return bar.ViewAs(pct/100) + bg.Render(label, styles.MutedText)
}

// cardColor returns value when it is a hex color the terminal can show.
func cardColor(value, fallback string) string {
	v := strings.TrimSpace(value)
	if strings.HasPrefix(v, "#") && (len(v) == 4 || len(v) == 7) {
		return v
	}
	return fallback
}

// iconGlyph returns icon when it is something a terminal can print. Icon
// set references such as "mdi:calendar" are dropped.
func iconGlyph(icon string) string {
	icon = strings.TrimSpace(icon)
	if icon == "" || strings.Contains(icon, ":") {
		return ""
	}
	return icon
}

func splitIssues(msg string) []string {
	parts := strings.Split(msg, "; ")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
